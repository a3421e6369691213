package store

import (
	"context"

	"github.com/Luismorlan/localsocial/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const DefaultNotificationPageSize = 10

func validateNotification(n *model.Notification) error {
	if n.UserID == "" || n.ActorID == "" {
		return invalid("notification needs a recipient and an actor")
	}
	if !n.Type.IsValid() {
		return invalid("unknown notification type %q", n.Type)
	}
	return nil
}

// CreateNotification inserts a notification row, assigning an id when the
// caller left it empty.
func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	return createNotification(s.db.WithContext(ctx), n)
}

func createNotification(db *gorm.DB, n *model.Notification) error {
	if err := validateNotification(n); err != nil {
		return err
	}
	if n.Id == "" {
		n.Id = uuid.New().String()
	}
	return errors.Wrap(db.Omit("Actor").Create(n).Error, "failed to create notification")
}

// ListNotifications returns the newest notifications of userID with their
// actor profile.
func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationPageSize
	}
	var notifications []model.Notification
	err := s.db.WithContext(ctx).
		Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&notifications).Error
	return notifications, errors.Wrap(err, "failed to list notifications")
}

// MarkNotificationRead flags the notification as read. Only its recipient may
// do so.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	db := s.db.WithContext(ctx)
	var n model.Notification
	if err := notFound(db.Where("id = ?", id).First(&n).Error, "notification "+id); err != nil {
		return err
	}
	if n.UserID != userID {
		return ErrForbidden
	}
	return errors.Wrap(
		db.Model(&n).Update("read", true).Error,
		"failed to mark notification read")
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	return errors.Wrap(
		s.db.WithContext(ctx).Model(&model.Notification{}).
			Where("user_id = ? AND read = ?", userID, false).
			Update("read", true).Error,
		"failed to mark notifications read")
}

func (s *Store) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, errors.Wrap(err, "failed to count unread notifications")
}
