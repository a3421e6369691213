package client

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Luismorlan/localsocial/media"
	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/server"
	"gorm.io/datatypes"
)

type ProfileUpdate struct {
	Username    string         `json:"username"`
	FullName    string         `json:"full_name,omitempty"`
	AvatarUrl   string         `json:"avatar_url,omitempty"`
	Bio         string         `json:"bio,omitempty"`
	IsPrivate   bool           `json:"is_private"`
	SocialLinks datatypes.JSON `json:"social_links,omitempty"`
}

type NewPost struct {
	Content           string        `json:"content,omitempty"`
	Media             []model.Media `json:"media,omitempty"`
	CheckInLocationID *string       `json:"check_in_location_id,omitempty"`
}

type FeedOptions struct {
	FollowingOnly bool
	Before        *time.Time
	Limit         int
}

type Upload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// WhoAmI returns the id of the user the client's credential authenticates.
func (c *Client) WhoAmI(ctx context.Context) (string, error) {
	var me struct {
		UserID string `json:"user_id"`
	}
	if err := do(http.MethodGet, "/me", c.r(ctx).SetResult(&me)); err != nil {
		return "", err
	}
	return me.UserID, nil
}

func (c *Client) OwnProfile(ctx context.Context) (*server.ProfileResponse, error) {
	var profile server.ProfileResponse
	err := do(http.MethodGet, "/profile", c.r(ctx).SetResult(&profile))
	return &profile, err
}

func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*server.ProfileResponse, error) {
	var profile server.ProfileResponse
	err := do(http.MethodPut, "/profile", c.r(ctx).SetBody(update).SetResult(&profile))
	return &profile, err
}

// Profile loads a profile by username or id.
func (c *Client) Profile(ctx context.Context, ref string) (*server.ProfileResponse, error) {
	var profile server.ProfileResponse
	err := do(http.MethodGet, "/profiles/{id}", c.r(ctx).SetPathParam("id", ref).SetResult(&profile))
	return &profile, err
}

func (c *Client) Followers(ctx context.Context, profileID string) ([]server.ProfileResponse, error) {
	var profiles []server.ProfileResponse
	err := do(http.MethodGet, "/profiles/{id}/followers", c.r(ctx).SetPathParam("id", profileID).SetResult(&profiles))
	return profiles, err
}

func (c *Client) Following(ctx context.Context, profileID string) ([]server.ProfileResponse, error) {
	var profiles []server.ProfileResponse
	err := do(http.MethodGet, "/profiles/{id}/following", c.r(ctx).SetPathParam("id", profileID).SetResult(&profiles))
	return profiles, err
}

func (c *Client) ProfilePosts(ctx context.Context, ref string) ([]server.PostResponse, error) {
	var posts []server.PostResponse
	err := do(http.MethodGet, "/profiles/{id}/posts", c.r(ctx).SetPathParam("id", ref).SetResult(&posts))
	return posts, err
}

func (c *Client) Follow(ctx context.Context, profileID string) error {
	return do(http.MethodPost, "/profiles/{id}/follow", c.r(ctx).SetPathParam("id", profileID))
}

func (c *Client) Unfollow(ctx context.Context, profileID string) error {
	return do(http.MethodDelete, "/profiles/{id}/follow", c.r(ctx).SetPathParam("id", profileID))
}

func (c *Client) Posts(ctx context.Context, opts FeedOptions) ([]server.PostResponse, error) {
	req := c.r(ctx)
	if opts.FollowingOnly {
		req.SetQueryParam("following", "true")
	}
	if opts.Before != nil {
		req.SetQueryParam("before", opts.Before.UTC().Format(time.RFC3339Nano))
	}
	if opts.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(opts.Limit))
	}
	var posts []server.PostResponse
	err := do(http.MethodGet, "/posts", req.SetResult(&posts))
	return posts, err
}

func (c *Client) CreatePost(ctx context.Context, post NewPost) (*server.PostResponse, error) {
	var created server.PostResponse
	err := do(http.MethodPost, "/posts", c.r(ctx).SetBody(post).SetResult(&created))
	return &created, err
}

func (c *Client) Post(ctx context.Context, postID string) (*server.PostResponse, error) {
	var post server.PostResponse
	err := do(http.MethodGet, "/posts/{id}", c.r(ctx).SetPathParam("id", postID).SetResult(&post))
	return &post, err
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return do(http.MethodDelete, "/posts/{id}", c.r(ctx).SetPathParam("id", postID))
}

// Like likes the post and returns the id of its author.
func (c *Client) Like(ctx context.Context, postID string) (string, error) {
	var res struct {
		PostOwnerID string `json:"post_owner_id"`
	}
	err := do(http.MethodPost, "/posts/{id}/like", c.r(ctx).SetPathParam("id", postID).SetResult(&res))
	return res.PostOwnerID, err
}

func (c *Client) Unlike(ctx context.Context, postID string) error {
	return do(http.MethodDelete, "/posts/{id}/like", c.r(ctx).SetPathParam("id", postID))
}

func (c *Client) Comments(ctx context.Context, postID string) ([]server.CommentResponse, error) {
	var comments []server.CommentResponse
	err := do(http.MethodGet, "/posts/{id}/comments", c.r(ctx).SetPathParam("id", postID).SetResult(&comments))
	return comments, err
}

// AddComment comments on the post, or replies to parentID when it is not
// empty.
func (c *Client) AddComment(ctx context.Context, postID, content, parentID string) (*server.CommentResponse, error) {
	body := map[string]interface{}{"content": content}
	if parentID != "" {
		body["parent_comment_id"] = parentID
	}
	var comment server.CommentResponse
	err := do(http.MethodPost, "/posts/{id}/comments", c.r(ctx).SetPathParam("id", postID).SetBody(body).SetResult(&comment))
	return &comment, err
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return do(http.MethodDelete, "/comments/{id}", c.r(ctx).SetPathParam("id", commentID))
}

// CreateNotification writes a notification from the signed in user, see
// fanout.Writer.
func (c *Client) CreateNotification(ctx context.Context, n *model.Notification) error {
	body := map[string]interface{}{
		"user_id": n.UserID,
		"type":    n.Type,
	}
	if n.PostID != nil {
		body["post_id"] = *n.PostID
	}
	if n.CommentID != nil {
		body["comment_id"] = *n.CommentID
	}
	var created server.NotificationResponse
	if err := do(http.MethodPost, "/notifications", c.r(ctx).SetBody(body).SetResult(&created)); err != nil {
		return err
	}
	n.Id, n.CreatedAt = created.Id, created.CreatedAt
	return nil
}

func (c *Client) Notifications(ctx context.Context, limit int) ([]server.NotificationResponse, error) {
	req := c.r(ctx)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	var notifications []server.NotificationResponse
	err := do(http.MethodGet, "/notifications", req.SetResult(&notifications))
	return notifications, err
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var res struct {
		Unread int64 `json:"unread"`
	}
	err := do(http.MethodGet, "/notifications/unread", c.r(ctx).SetResult(&res))
	return res.Unread, err
}

func (c *Client) MarkRead(ctx context.Context, notificationID string) error {
	return do(http.MethodPost, "/notifications/{id}/read", c.r(ctx).SetPathParam("id", notificationID))
}

func (c *Client) MarkAllRead(ctx context.Context) error {
	return do(http.MethodPost, "/notifications/read", c.r(ctx))
}

func (c *Client) OpenConversation(ctx context.Context, participantID string) (*server.ConversationResponse, error) {
	var conv server.ConversationResponse
	err := do(http.MethodPost, "/conversations",
		c.r(ctx).SetBody(map[string]string{"participant_id": participantID}).SetResult(&conv))
	return &conv, err
}

func (c *Client) Conversations(ctx context.Context) ([]server.ConversationResponse, error) {
	var convs []server.ConversationResponse
	err := do(http.MethodGet, "/conversations", c.r(ctx).SetResult(&convs))
	return convs, err
}

func (c *Client) Messages(ctx context.Context, conversationID string) ([]server.MessageResponse, error) {
	var messages []server.MessageResponse
	err := do(http.MethodGet, "/conversations/{id}/messages", c.r(ctx).SetPathParam("id", conversationID).SetResult(&messages))
	return messages, err
}

func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (*server.MessageResponse, error) {
	var msg server.MessageResponse
	err := do(http.MethodPost, "/conversations/{id}/messages", c.r(ctx).
		SetPathParam("id", conversationID).
		SetBody(map[string]string{"content": content}).
		SetResult(&msg))
	return &msg, err
}

func (c *Client) UploadMedia(ctx context.Context, bucket media.Bucket, fileName string, body io.Reader) (*Upload, error) {
	var upload Upload
	err := do(http.MethodPost, "/media/{bucket}", c.r(ctx).
		SetPathParam("bucket", bucket.String()).
		SetFileReader("file", fileName, body).
		SetResult(&upload))
	return &upload, err
}

func (c *Client) SendFeedback(ctx context.Context, t model.FeedbackType, subject, message string) error {
	return do(http.MethodPost, "/feedback", c.r(ctx).SetBody(map[string]string{
		"type":    string(t),
		"subject": subject,
		"message": message,
	}))
}
