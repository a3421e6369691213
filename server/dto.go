package server

import (
	"time"

	"github.com/Luismorlan/localsocial/model"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/jinzhu/copier"
	"gorm.io/datatypes"
)

type ProfileResponse struct {
	Id          string         `json:"id"`
	Username    string         `json:"username"`
	FullName    string         `json:"full_name"`
	DisplayName string         `json:"display_name"`
	AvatarUrl   string         `json:"avatar_url"`
	Bio         string         `json:"bio"`
	IsPrivate   bool           `json:"is_private"`
	SocialLinks datatypes.JSON `json:"social_links,omitempty"`

	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
	FollowedByMe   bool  `json:"followed_by_me"`
}

type PostResponse struct {
	Id              string                 `json:"id"`
	CreatedAt       time.Time              `json:"created_at"`
	UserID          string                 `json:"user_id"`
	Author          *ProfileResponse       `json:"profile,omitempty"`
	Content         string                 `json:"content"`
	Attachments     []model.Media          `json:"media"`
	CheckInLocation *model.CheckInLocation `json:"check_in_location,omitempty"`
	LikeCount       int                    `json:"like_count"`
	LikedByMe       bool                   `json:"liked_by_me"`
}

type CommentResponse struct {
	Id              string           `json:"id"`
	CreatedAt       time.Time        `json:"created_at"`
	PostID          string           `json:"post_id"`
	UserID          string           `json:"user_id"`
	Author          *ProfileResponse `json:"profile,omitempty"`
	Content         string           `json:"content"`
	ParentCommentID *string          `json:"parent_comment_id,omitempty"`
}

type NotificationResponse struct {
	Id        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	UserID    string                 `json:"user_id"`
	ActorID   string                 `json:"actor_id"`
	Author    *ProfileResponse       `json:"actor,omitempty"`
	Type      model.NotificationType `json:"type"`
	PostID    *string                `json:"post_id,omitempty"`
	CommentID *string                `json:"comment_id,omitempty"`
	Read      bool                   `json:"read"`
	// Text is filled from Notification.Text.
	Text string `json:"text"`
}

type ConversationResponse struct {
	Id        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Other     *ProfileResponse `json:"other"`
}

type MessageResponse struct {
	Id             string           `json:"id"`
	CreatedAt      time.Time        `json:"created_at"`
	ConversationID string           `json:"conversation_id"`
	SenderID       string           `json:"sender_id"`
	Author         *ProfileResponse `json:"sender,omitempty"`
	Content        string           `json:"content"`
}

func copyOrLog(to interface{}, from interface{}) {
	if err := copier.Copy(to, from); err != nil {
		Log.WithError(err).Errorf("cannot map %T into %T", from, to)
	}
}

func toProfileResponse(p *model.Profile) *ProfileResponse {
	if p == nil {
		return nil
	}
	resp := &ProfileResponse{}
	copyOrLog(resp, p)
	return resp
}

func toPostResponse(p *model.Post, viewerID string) PostResponse {
	resp := PostResponse{}
	copyOrLog(&resp, p)
	resp.Author = toProfileResponse(p.Profile)
	resp.LikeCount = len(p.Likes)
	resp.LikedByMe = p.LikedBy(viewerID)
	media, err := p.Media()
	if err != nil {
		Log.WithError(err).Warnf("post %s has unreadable media", p.Id)
	}
	if media == nil {
		media = []model.Media{}
	}
	resp.Attachments = media
	return resp
}

func toCommentResponse(c *model.Comment) CommentResponse {
	resp := CommentResponse{}
	copyOrLog(&resp, c)
	resp.Author = toProfileResponse(c.Profile)
	return resp
}

func toNotificationResponse(n *model.Notification) NotificationResponse {
	resp := NotificationResponse{}
	copyOrLog(&resp, n)
	resp.Author = toProfileResponse(n.Actor)
	return resp
}

func toConversationResponse(c *model.Conversation, viewerID string) ConversationResponse {
	resp := ConversationResponse{Id: c.Id, CreatedAt: c.CreatedAt}
	other := c.ParticipantTwoProfile
	if c.Other(viewerID) == c.ParticipantOne {
		other = c.ParticipantOneProfile
	}
	if other == nil {
		other = &model.Profile{Id: c.Other(viewerID)}
	}
	resp.Other = toProfileResponse(other)
	return resp
}

func toMessageResponse(m *model.Message) MessageResponse {
	resp := MessageResponse{}
	copyOrLog(&resp, m)
	resp.Author = toProfileResponse(m.Sender)
	return resp
}
