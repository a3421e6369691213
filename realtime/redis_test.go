package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/Luismorlan/localsocial/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisKeyParser(t *testing.T) {
	p := RedisKeyParser{delimiter: "__"}

	assert.True(t, p.ValidateId("valid-user-id"))
	assert.False(t, p.ValidateId("invalid__user"))
	assert.False(t, p.ValidateId(""))

	key, err := p.EncodeUnreadKey("valid-user-id")
	require.NoError(t, err)
	assert.Equal(t, "unread__valid-user-id", key)

	_, err = p.EncodeUnreadKey("invalid__user")
	assert.Error(t, err)

	userId, err := p.DecodeUnreadKey(key)
	require.NoError(t, err)
	assert.Equal(t, "valid-user-id", userId)
	_, err = p.DecodeUnreadKey("read__x")
	assert.Error(t, err)
}

func TestUnreadCounter(t *testing.T) {
	_, client := newMiniRedis(t)
	c := NewUnreadCounter(client)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "u")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Incr(ctx, "u"))
	_, ok, _ = c.Get(ctx, "u")
	assert.False(t, ok, "incr must not create an entry")

	require.NoError(t, c.Set(ctx, "u", 3))
	require.NoError(t, c.Incr(ctx, "u"))
	n, ok, err := c.Get(ctx, "u")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(4), n)

	require.NoError(t, c.Invalidate(ctx, "u"))
	_, ok, _ = c.Get(ctx, "u")
	assert.False(t, ok)
}

func TestUnreadCounterFill(t *testing.T) {
	_, client := newMiniRedis(t)
	c := NewUnreadCounter(client)
	ctx := context.Background()

	gen, err := c.BeginFill(ctx, "u")
	require.NoError(t, err)
	ok, err := c.Fill(ctx, "u", 2, gen)
	require.NoError(t, err)
	assert.True(t, ok)
	n, ok, err := c.Get(ctx, "u")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), n)

	// An insert between BeginFill and Fill means the recount may be stale.
	require.NoError(t, c.Invalidate(ctx, "u"))
	gen, err = c.BeginFill(ctx, "u")
	require.NoError(t, err)
	require.NoError(t, c.Incr(ctx, "u"))
	ok, err = c.Fill(ctx, "u", 2, gen)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = c.Get(ctx, "u")
	require.NoError(t, err)
	assert.False(t, ok)

	// So does a mark-read.
	gen, err = c.BeginFill(ctx, "u")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "u"))
	ok, err = c.Fill(ctx, "u", 3, gen)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.BeginFill(ctx, "bad__id")
	assert.Error(t, err)
}

func TestUnreadCounterTracksHub(t *testing.T) {
	_, client := newMiniRedis(t)
	c := NewUnreadCounter(client)
	hub := NewHub(10)
	defer hub.Close()
	ctx := context.Background()

	remove := c.Track(hub)
	defer remove()
	require.NoError(t, c.Set(ctx, "u", 0))
	require.NoError(t, hub.Publish(ctx, notificationEvent(t, &model.Notification{UserID: "u", Type: model.NotificationTypeLike})))
	require.NoError(t, hub.Publish(ctx, model.ChangeEvent{Channel: model.MessagesChannel("c"), Op: model.ChangeOpInsert}))

	n, ok, err := c.Get(ctx, "u")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), n)
}

func TestRedisBridgeConnectsHubs(t *testing.T) {
	_, client := newMiniRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hubOne, hubTwo := NewHub(10), NewHub(10)
	defer hubOne.Close()
	defer hubTwo.Close()
	bridgeOne := NewRedisBridge(hubOne, client, "")
	bridgeTwo := NewRedisBridge(hubTwo, client, "")
	assert.Equal(t, "redis_bridge", bridgeOne.Name())

	done := make(chan error, 2)
	go func() { done <- bridgeOne.RunModule(ctx) }()
	go func() { done <- bridgeTwo.RunModule(ctx) }()
	hooked := func(h *Hub) func() bool {
		return func() bool {
			h.mu.RLock()
			defer h.mu.RUnlock()
			return len(h.hooks) == 1
		}
	}
	require.Eventually(t, hooked(hubOne), time.Second, 10*time.Millisecond)
	require.Eventually(t, hooked(hubTwo), time.Second, 10*time.Millisecond)

	local, err := hubOne.Subscribe(ctx, model.NotificationsChannel("u"))
	require.NoError(t, err)
	remote, err := hubTwo.Subscribe(ctx, model.NotificationsChannel("u"))
	require.NoError(t, err)

	require.NoError(t, hubOne.Publish(ctx, notificationEvent(t, &model.Notification{Id: "n1", UserID: "u", Type: model.NotificationTypeLike})))

	var n model.Notification
	require.NoError(t, nextWithin(t, remote).Decode(&n))
	assert.Equal(t, "n1", n.Id)
	require.NoError(t, nextWithin(t, local).Decode(&n))
	assert.Equal(t, "n1", n.Id)

	// The origin instance must not receive its own event a second time.
	waitCtx, waitCancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer waitCancel()
	_, err = local.Next(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	cancel()
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("bridge did not stop")
		}
	}
}
