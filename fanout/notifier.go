package fanout

import (
	"context"

	"github.com/Luismorlan/localsocial/edgesync"
	"github.com/Luismorlan/localsocial/model"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Writer persists a notification row.
type Writer interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
}

// Notifier turns confirmed edges into notification rows. It implements
// edgesync.SideEffect.
type Notifier struct {
	writer Writer
}

func NewNotifier(w Writer) *Notifier {
	return &Notifier{writer: w}
}

// ForEdge applies the rule matching the kind of edge.
func ForEdge(edge edgesync.Edge) (*model.Notification, bool) {
	switch edge.Kind {
	case edgesync.KindLike:
		return ForLike(edge.ActorID, edge.TargetID, edge.TargetOwnerID)
	case edgesync.KindFollow:
		return ForFollow(edge.ActorID, edge.TargetID)
	}
	return nil, false
}

func (n *Notifier) Notify(ctx context.Context, edge edgesync.Edge) error {
	if !edge.Kind.IsValid() {
		return errors.Errorf("no notification rule for edge kind %q", edge.Kind)
	}
	notification, ok := ForEdge(edge)
	if !ok {
		return nil
	}
	return n.Deliver(ctx, notification)
}

// Deliver writes the notification, logging on failure. A nil notification is
// a no-op.
func (n *Notifier) Deliver(ctx context.Context, notification *model.Notification) error {
	if notification == nil {
		return nil
	}
	if err := n.writer.CreateNotification(ctx, notification); err != nil {
		Log.WithFields(logrus.Fields{
			"recipient": notification.UserID,
			"actor":     notification.ActorID,
			"type":      notification.Type,
		}).WithError(err).Error("failed to write notification")
		return err
	}
	return nil
}
