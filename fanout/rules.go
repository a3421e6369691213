// Package fanout decides which notification rows accompany a social action
// and delivers them.
package fanout

import (
	"github.com/Luismorlan/localsocial/model"
	"github.com/google/uuid"
)

func newNotification(recipient, actor string, t model.NotificationType) *model.Notification {
	return &model.Notification{
		Id:      uuid.New().String(),
		UserID:  recipient,
		ActorID: actor,
		Type:    t,
	}
}

// ForLike notifies the post owner about a like. It returns false when the
// actor liked their own post.
func ForLike(actorID, postID, postOwnerID string) (*model.Notification, bool) {
	if actorID == "" || postOwnerID == "" || actorID == postOwnerID {
		return nil, false
	}
	n := newNotification(postOwnerID, actorID, model.NotificationTypeLike)
	n.PostID = &postID
	return n, true
}

// ForFollow notifies the followed profile.
func ForFollow(actorID, targetID string) (*model.Notification, bool) {
	if actorID == "" || targetID == "" || actorID == targetID {
		return nil, false
	}
	return newNotification(targetID, actorID, model.NotificationTypeFollow), true
}

// ForComment notifies the author of parent when the comment is a reply,
// otherwise the owner of the post.
func ForComment(post *model.Post, comment *model.Comment, parent *model.Comment) (*model.Notification, bool) {
	if post == nil || comment == nil {
		return nil, false
	}

	recipient, t := post.UserID, model.NotificationTypeComment
	if comment.IsReply() && parent != nil {
		recipient, t = parent.UserID, model.NotificationTypeReply
	}
	if recipient == "" || recipient == comment.UserID {
		return nil, false
	}

	n := newNotification(recipient, comment.UserID, t)
	postID, commentID := post.Id, comment.Id
	n.PostID = &postID
	n.CommentID = &commentID
	return n, true
}

// ForMessage notifies the other participant of the conversation.
func ForMessage(senderID string, conversation *model.Conversation) (*model.Notification, bool) {
	if conversation == nil || !conversation.HasParticipant(senderID) {
		return nil, false
	}
	recipient := conversation.Other(senderID)
	if recipient == "" || recipient == senderID {
		return nil, false
	}
	return newNotification(recipient, senderID, model.NotificationTypeNewMessage), true
}
