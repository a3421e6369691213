package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Luismorlan/localsocial/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notificationEvent(t *testing.T, n *model.Notification) model.ChangeEvent {
	record, err := json.Marshal(n)
	require.NoError(t, err)
	return model.ChangeEvent{
		Channel: model.NotificationsChannel(n.UserID),
		Table:   "notifications",
		Op:      model.ChangeOpInsert,
		Record:  record,
		At:      time.Now(),
	}
}

func nextWithin(t *testing.T, sub *Subscription) model.ChangeEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	event, err := sub.Next(ctx)
	require.NoError(t, err)
	return event
}

func TestHubDeliversToChannelSubscribers(t *testing.T) {
	hub := NewHub(10)
	defer hub.Close()
	ctx := context.Background()

	mine, err := hub.Subscribe(ctx, model.NotificationsChannel("a"))
	require.NoError(t, err)
	other, err := hub.Subscribe(ctx, model.NotificationsChannel("b"))
	require.NoError(t, err)
	assert.Equal(t, 2, hub.ActiveCount())
	assert.NotEqual(t, mine.ID, other.ID)

	require.NoError(t, hub.Publish(ctx, notificationEvent(t, &model.Notification{Id: "n1", UserID: "a", Type: model.NotificationTypeLike})))

	event := nextWithin(t, mine)
	assert.Equal(t, model.ChangeOpInsert, event.Op)
	var n model.Notification
	require.NoError(t, event.Decode(&n))
	assert.Equal(t, "n1", n.Id)
	assert.Equal(t, uint64(1), hub.PublishedCount())

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = other.Next(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHubPreservesOrderPerChannel(t *testing.T) {
	hub := NewHub(10)
	defer hub.Close()
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, model.NotificationsChannel("a"))
	require.NoError(t, err)
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, hub.Publish(ctx, notificationEvent(t, &model.Notification{Id: id, UserID: "a", Type: model.NotificationTypeLike})))
	}
	for _, id := range []string{"1", "2", "3"} {
		var n model.Notification
		require.NoError(t, nextWithin(t, sub).Decode(&n))
		assert.Equal(t, id, n.Id)
	}
}

func TestSubscriptionClose(t *testing.T) {
	hub := NewHub(10)
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), model.MessagesChannel("conv"))
	require.NoError(t, err)
	sub.Close()

	_, err = sub.Next(context.Background())
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
	assert.Eventually(t, func() bool { return hub.ActiveCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestSubscriptionEndsWithParentContext(t *testing.T) {
	hub := NewHub(10)
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := hub.Subscribe(ctx, model.MessagesChannel("conv"))
	require.NoError(t, err)
	cancel()

	_, err = sub.Next(context.Background())
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
	assert.Eventually(t, func() bool { return hub.ActiveCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubRejectsUnknownChannels(t *testing.T) {
	hub := NewHub(0)
	defer hub.Close()

	_, err := hub.Subscribe(context.Background(), "posts:1")
	assert.Error(t, err)
	assert.Error(t, hub.Publish(context.Background(), model.ChangeEvent{Channel: "notifications:"}))
}

func TestPublishHooks(t *testing.T) {
	hub := NewHub(10)
	defer hub.Close()

	var seen []string
	remove := hub.OnPublish(func(ctx context.Context, event model.ChangeEvent) {
		seen = append(seen, event.Channel)
	})
	require.NoError(t, hub.Publish(context.Background(), notificationEvent(t, &model.Notification{UserID: "a", Type: model.NotificationTypeLike})))
	remove()
	require.NoError(t, hub.Publish(context.Background(), notificationEvent(t, &model.Notification{UserID: "b", Type: model.NotificationTypeLike})))

	assert.Equal(t, []string{"notifications:a"}, seen)
}

func TestInsertEvent(t *testing.T) {
	event, ok := insertEvent(&model.Message{Id: "m", ConversationID: "c", SenderID: "a", Content: "hi"})
	require.True(t, ok)
	assert.Equal(t, "messages:c", event.Channel)
	assert.Equal(t, "messages", event.Table)
	var msg model.Message
	require.NoError(t, event.Decode(&msg))
	assert.Equal(t, "hi", msg.Content)

	event, ok = insertEvent(&model.Notification{Id: "n", UserID: "u", Type: model.NotificationTypeLike})
	require.True(t, ok)
	assert.Equal(t, "notifications:u", event.Channel)

	_, ok = insertEvent(&model.Post{Id: "p"})
	assert.False(t, ok)
}

func TestFullSubscriptionDropsEvents(t *testing.T) {
	hub := NewHub(1)
	defer hub.Close()
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, model.NotificationsChannel("a"))
	require.NoError(t, err)
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, hub.Publish(ctx, notificationEvent(t, &model.Notification{Id: id, UserID: "a", Type: model.NotificationTypeLike})))
	}

	var n model.Notification
	require.NoError(t, nextWithin(t, sub).Decode(&n))
	assert.Equal(t, "1", n.Id)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = sub.Next(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
