package client

import (
	"context"
	"sync"

	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/realtime"
	"github.com/Luismorlan/localsocial/server"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/pkg/errors"
)

// DefaultNotificationLimit is how many notifications the bell menu shows.
const DefaultNotificationLimit = 10

// NotificationCenter keeps the latest notifications of the signed in user and
// their unread count up to date.
type NotificationCenter struct {
	client *Client
	userID string
	limit  int

	mu            sync.Mutex
	notifications []server.NotificationResponse
	unread        int64
	observers     []func([]server.NotificationResponse, int64)
}

func (s *Session) NotificationCenter() (*NotificationCenter, error) {
	userID := s.UserID()
	if userID == "" {
		return nil, ErrNotSignedIn
	}
	return &NotificationCenter{
		client: s.client,
		userID: userID,
		limit:  DefaultNotificationLimit,
	}, nil
}

// OnChange registers an observer called with the notifications and the unread
// count after every change.
func (n *NotificationCenter) OnChange(f func([]server.NotificationResponse, int64)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, f)
}

func (n *NotificationCenter) Notifications() []server.NotificationResponse {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]server.NotificationResponse(nil), n.notifications...)
}

func (n *NotificationCenter) Unread() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.unread
}

func (n *NotificationCenter) emit() {
	n.mu.Lock()
	notifications := append([]server.NotificationResponse(nil), n.notifications...)
	unread := n.unread
	observers := append(([]func([]server.NotificationResponse, int64))(nil), n.observers...)
	n.mu.Unlock()
	for _, f := range observers {
		f(notifications, unread)
	}
}

// Refresh refetches the latest notifications and the unread count.
func (n *NotificationCenter) Refresh(ctx context.Context) error {
	notifications, err := n.client.Notifications(ctx, n.limit)
	if err != nil {
		return err
	}
	unread, err := n.client.UnreadCount(ctx)
	if err != nil {
		return err
	}
	n.mu.Lock()
	n.notifications, n.unread = notifications, unread
	n.mu.Unlock()
	n.emit()
	return nil
}

// Run loads the notifications, then refetches them on every new notification
// until ctx is done or the change feed ends.
func (n *NotificationCenter) Run(ctx context.Context) error {
	feed, err := n.client.Subscribe(ctx, model.NotificationsChannel(n.userID))
	if err != nil {
		return err
	}
	defer feed.Close()

	if err := n.Refresh(ctx); err != nil {
		return err
	}
	for {
		event, err := feed.Next(ctx)
		if errors.Is(err, realtime.ErrSubscriptionClosed) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		if event.Op != model.ChangeOpInsert {
			continue
		}
		if row, err := decodeRow(event); err == nil {
			if _, err := model.ParseNotification(row); err != nil {
				Log.WithError(err).Warn("ignoring malformed notification event")
				continue
			}
		}
		if err := n.Refresh(ctx); err != nil {
			Log.WithError(err).Error("cannot refresh notifications")
		}
	}
}

// MarkRead flags the notification read locally and writes it in the
// background. The local flag is restored when the write fails. The returned
// channel receives the result of the write.
func (n *NotificationCenter) MarkRead(ctx context.Context, id string) <-chan error {
	result := make(chan error, 1)

	n.mu.Lock()
	idx := -1
	for i := range n.notifications {
		if n.notifications[i].Id == id {
			idx = i
		}
	}
	changed := idx >= 0 && !n.notifications[idx].Read
	if changed {
		n.notifications[idx].Read = true
		n.unread--
	}
	n.mu.Unlock()
	if changed {
		n.emit()
	}

	go func() {
		err := n.client.MarkRead(ctx, id)
		if err != nil && changed {
			Log.WithError(err).Warnf("cannot mark notification %s read", id)
			n.mu.Lock()
			for i := range n.notifications {
				if n.notifications[i].Id == id && n.notifications[i].Read {
					n.notifications[i].Read = false
					n.unread++
				}
			}
			n.mu.Unlock()
			n.emit()
		}
		result <- err
	}()
	return result
}
