package model

import (
	"encoding/json"
	"fmt"
	"time"
)

/*

Notification is an activity row addressed to a single user, written alongside
the social action that caused it

UserID: recipient
ActorID:
Actor: profile that performed the action
Type: what happened, see NotificationType
PostID: post the action relates to, if any
CommentID: comment the action relates to, if any
Read: whether the recipient opened it

*/

type Notification struct {
	Id        string           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
	UserID    string           `gorm:"index" json:"user_id"`
	ActorID   string           `json:"actor_id"`
	Actor     *Profile         `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Type      NotificationType `json:"type"`
	PostID    *string          `json:"post_id,omitempty"`
	CommentID *string          `json:"comment_id,omitempty"`
	Read      bool             `gorm:"default:false" json:"read"`
}

// Text renders the notification the way the bell menu shows it.
func (n *Notification) Text() string {
	actor := "Someone"
	if n.Actor != nil && n.Actor.Username != "" {
		actor = n.Actor.Username
	}
	switch n.Type {
	case NotificationTypeLike:
		return fmt.Sprintf("%s liked your post.", actor)
	case NotificationTypeComment:
		return fmt.Sprintf("%s commented on your post.", actor)
	case NotificationTypeReply:
		return fmt.Sprintf("%s replied to your comment.", actor)
	case NotificationTypeFollow:
		return fmt.Sprintf("%s started following you.", actor)
	case NotificationTypeNewMessage:
		return fmt.Sprintf("%s sent you a new message.", actor)
	}
	return "You have a new notification."
}

type NotificationType string

const (
	NotificationTypeLike       NotificationType = "like"
	NotificationTypeComment    NotificationType = "comment"
	NotificationTypeReply      NotificationType = "reply"
	NotificationTypeFollow     NotificationType = "follow"
	NotificationTypeNewMessage NotificationType = "new_message"
)

var AllNotificationType = []NotificationType{
	NotificationTypeLike,
	NotificationTypeComment,
	NotificationTypeReply,
	NotificationTypeFollow,
	NotificationTypeNewMessage,
}

func (e NotificationType) IsValid() bool {
	switch e {
	case NotificationTypeLike, NotificationTypeComment, NotificationTypeReply,
		NotificationTypeFollow, NotificationTypeNewMessage:
		return true
	}
	return false
}

func (e NotificationType) String() string {
	return string(e)
}

func (e *NotificationType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("enums must be strings")
	}

	*e = NotificationType(str)
	if !e.IsValid() {
		return fmt.Errorf("%s is not a valid NotificationType", str)
	}
	return nil
}
