package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Luismorlan/localsocial/app_setting"
	"github.com/Luismorlan/localsocial/edgesync"
	"github.com/Luismorlan/localsocial/media"
	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/realtime"
	"github.com/Luismorlan/localsocial/server"
	"github.com/Luismorlan/localsocial/server/middlewares"
	"github.com/Luismorlan/localsocial/server/servertest"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testBackend struct {
	repo *servertest.Repository
	hub  *realtime.Hub
	srv  *httptest.Server
}

func newTestBackend(t *testing.T) *testBackend {
	repo := servertest.NewRepository()
	repo.AddProfile("u1", "alice", false)
	repo.AddProfile("u2", "bob", false)

	hub := realtime.NewHub(10)
	setting := app_setting.DefaultServerAppSetting()
	files, err := media.NewLocalFileStore(t.TempDir(), "http://localhost/media")
	require.NoError(t, err)

	router := server.New(repo, hub, files, setting).Router(server.RouterConfig{
		ServiceName: "localsocial_test",
		Auth:        middlewares.ByPassAuth(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &testBackend{repo: repo, hub: hub, srv: srv}
}

func (b *testBackend) session(t *testing.T, userID string) *Session {
	c := New(Config{BaseURL: b.srv.URL, Subject: userID})
	t.Cleanup(func() { c.Close() })
	s := NewSession(c)
	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, userID, s.UserID())
	return s
}

func (b *testBackend) publish(t *testing.T, channel string, record interface{}) {
	raw, err := json.Marshal(record)
	require.NoError(t, err)
	require.NoError(t, b.hub.Publish(context.Background(), model.ChangeEvent{
		Channel: channel,
		Table:   "test",
		Op:      model.ChangeOpInsert,
		Record:  raw,
		At:      time.Now(),
	}))
}

func (b *testBackend) waitForSubscribers(t *testing.T, n int) {
	require.Eventually(t, func() bool { return b.hub.ActiveCount() == n }, 2*time.Second, 10*time.Millisecond)
}

type recordingNoticer struct {
	mu      sync.Mutex
	notices []edgesync.Notice
}

func (n *recordingNoticer) Notice(notice edgesync.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func TestSessionLifecycle(t *testing.T) {
	b := newTestBackend(t)
	s := b.session(t, "u2")
	ctx := context.Background()

	assert.Equal(t, "u2", s.UserID())
	profile, err := s.Profile(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.Username)

	b.repo.FailWith(errors.New("db down"))
	profile, err = s.Profile(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.Username)
	_, err = s.Profile(ctx, true)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	b.repo.FailWith(nil)

	s.Clear()
	assert.Empty(t, s.UserID())
	_, err = s.Profile(ctx, false)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	require.NoError(t, s.Start(ctx))
	assert.Equal(t, "u2", s.UserID())

	// Signed in before the profile exists.
	fresh := b.session(t, "u9")
	_, err = fresh.Profile(ctx, false)
	assert.True(t, IsStatus(err, http.StatusNotFound))

	_, err = fresh.Client().UpdateProfile(ctx, ProfileUpdate{Username: "ivy"})
	require.NoError(t, err)
	profile, err = fresh.Profile(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "ivy", profile.Username)
}

func TestSessionStartRequiresCredential(t *testing.T) {
	b := newTestBackend(t)
	c := New(Config{BaseURL: b.srv.URL})
	defer c.Close()

	s := NewSession(c)
	err := s.Start(context.Background())
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Empty(t, s.UserID())
}

type recordingReporter struct {
	mu                 sync.Mutex
	confirmed          int
	sideEffectFailures int
}

func (r *recordingReporter) Toggled(edgesync.Edge, edgesync.Transition) {}

func (r *recordingReporter) Confirmed(edgesync.Edge, edgesync.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmed++
}

func (r *recordingReporter) Reverted(edgesync.Edge, edgesync.Transition, error) {}

func (r *recordingReporter) SideEffectFailed(edgesync.Edge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sideEffectFailures++
}

func TestLikingOwnPostWritesNoNotification(t *testing.T) {
	b := newTestBackend(t)
	b.repo.AddPost("p1", "u1", "hello")
	s := b.session(t, "u1")
	ctx := context.Background()

	post, err := s.Client().Post(ctx, "p1")
	require.NoError(t, err)
	reporter := &recordingReporter{}
	card := s.PostCard(*post, CardOptions{Reporter: reporter})
	assert.True(t, card.Like.Edge().SelfDirected())
	require.NoError(t, card.Like.Toggle(ctx).Wait())
	assert.Equal(t, edgesync.State{Active: true, Count: 1}, card.Like.State())

	reporter.mu.Lock()
	assert.Equal(t, 1, reporter.confirmed)
	assert.Zero(t, reporter.sideEffectFailures)
	reporter.mu.Unlock()
	notifications, err := b.repo.ListNotifications(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestPostCardLikeWritesNotification(t *testing.T) {
	b := newTestBackend(t)
	b.repo.AddPost("p1", "u1", "hello")
	s := b.session(t, "u2")
	ctx := context.Background()

	post, err := s.Client().Post(ctx, "p1")
	require.NoError(t, err)
	card := s.PostCard(*post, CardOptions{})
	assert.Equal(t, edgesync.State{}, card.Like.State())

	pending := card.Like.Toggle(ctx)
	assert.True(t, pending.Optimistic.Active)
	assert.Equal(t, 1, pending.Optimistic.Count)
	require.NoError(t, pending.Wait())
	assert.Equal(t, edgesync.State{Active: true, Count: 1}, card.Like.State())

	notifications, err := b.repo.ListNotifications(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationTypeLike, notifications[0].Type)
	assert.Equal(t, "u2", notifications[0].ActorID)
	require.NotNil(t, notifications[0].PostID)
	assert.Equal(t, "p1", *notifications[0].PostID)

	require.NoError(t, card.Like.Toggle(ctx).Wait())
	post, err = s.Client().Post(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, post.LikedByMe)
	assert.Zero(t, post.LikeCount)

	notifications, err = b.repo.ListNotifications(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
}

func TestPostCardLikeFailureReverts(t *testing.T) {
	b := newTestBackend(t)
	s := b.session(t, "u2")
	noticer := &recordingNoticer{}

	card := s.PostCard(server.PostResponse{Id: "gone", UserID: "u1", LikeCount: 4}, CardOptions{Noticer: noticer})
	err := card.Like.Toggle(context.Background()).Wait()
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, edgesync.State{Active: false, Count: 4}, card.Like.State())

	require.Len(t, noticer.notices, 1)
	assert.Equal(t, "Could not like the post", noticer.notices[0].Title)
	notifications, err := b.repo.ListNotifications(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestProfileCardFollow(t *testing.T) {
	b := newTestBackend(t)
	s := b.session(t, "u2")
	ctx := context.Background()

	profile, err := s.Client().Profile(ctx, "alice")
	require.NoError(t, err)
	card := s.ProfileCard(*profile, CardOptions{})
	require.NoError(t, card.Follow.Toggle(ctx).Wait())
	assert.Equal(t, edgesync.State{Active: true, Count: 1}, card.Follow.State())

	profile, err = s.Client().Profile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, profile.FollowedByMe)
	assert.Equal(t, int64(1), profile.FollowerCount)

	notifications, err := b.repo.ListNotifications(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationTypeFollow, notifications[0].Type)

	own, err := s.Profile(ctx, true)
	require.NoError(t, err)
	self := s.ProfileCard(*own, CardOptions{})
	err = self.Follow.Toggle(ctx).Wait()
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Equal(t, edgesync.State{}, self.Follow.State())
}

func TestCardsWithoutSession(t *testing.T) {
	b := newTestBackend(t)
	s := b.session(t, "u2")
	s.Clear()

	card := s.PostCard(server.PostResponse{Id: "p1", UserID: "u1"}, CardOptions{})
	assert.ErrorIs(t, card.Like.Toggle(context.Background()).Wait(), edgesync.ErrNoActor)
	_, err := s.NotificationCenter()
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestSubscribeIsAuthorized(t *testing.T) {
	b := newTestBackend(t)
	s := b.session(t, "u2")

	_, err := s.Client().Subscribe(context.Background(), model.NotificationsChannel("u1"))
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusForbidden))
}

func TestFeedEndsOnClose(t *testing.T) {
	b := newTestBackend(t)
	s := b.session(t, "u1")

	feed, err := s.Client().Subscribe(context.Background(), model.NotificationsChannel("u1"))
	require.NoError(t, err)
	b.waitForSubscribers(t, 1)

	b.publish(t, model.NotificationsChannel("u1"), map[string]string{"id": "n1"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	event, err := feed.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.NotificationsChannel("u1"), event.Channel)

	feed.Close()
	_, err = feed.Next(ctx)
	assert.ErrorIs(t, err, realtime.ErrSubscriptionClosed)
	b.waitForSubscribers(t, 0)
}

func TestNotificationCenter(t *testing.T) {
	b := newTestBackend(t)
	s := b.session(t, "u1")
	center, err := s.NotificationCenter()
	require.NoError(t, err)

	unreadSeen := make(chan int64, 100)
	center.OnChange(func(_ []server.NotificationResponse, unread int64) { unreadSeen <- unread })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- center.Run(ctx) }()

	next := func() int64 {
		select {
		case unread := <-unreadSeen:
			return unread
		case <-time.After(2 * time.Second):
			t.Fatal("notification center did not change")
		}
		return -1
	}
	assert.Equal(t, int64(0), next())
	b.waitForSubscribers(t, 1)

	n := &model.Notification{UserID: "u1", ActorID: "u2", Type: model.NotificationTypeFollow}
	require.NoError(t, b.repo.CreateNotification(context.Background(), n))
	b.publish(t, model.NotificationsChannel("u1"), n)
	assert.Equal(t, int64(1), next())

	notifications := center.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, "bob started following you.", notifications[0].Text)

	result := center.MarkRead(context.Background(), n.Id)
	assert.Equal(t, int64(0), center.Unread())
	require.NoError(t, <-result)
	assert.Equal(t, int64(0), next())
	count, err := b.repo.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("notification center did not stop")
	}
}

func TestNotificationCenterMarkReadFailureRestores(t *testing.T) {
	b := newTestBackend(t)
	s := b.session(t, "u1")
	ctx := context.Background()
	n := &model.Notification{UserID: "u1", ActorID: "u2", Type: model.NotificationTypeLike}
	require.NoError(t, b.repo.CreateNotification(ctx, n))

	center, err := s.NotificationCenter()
	require.NoError(t, err)
	require.NoError(t, center.Refresh(ctx))
	require.Equal(t, int64(1), center.Unread())

	b.repo.FailWith(errors.New("db down"))
	result := center.MarkRead(ctx, n.Id)
	assert.Error(t, <-result)
	b.repo.FailWith(nil)

	assert.Equal(t, int64(1), center.Unread())
	assert.False(t, center.Notifications()[0].Read)
}

func TestChatRoom(t *testing.T) {
	b := newTestBackend(t)
	s := b.session(t, "u1")
	ctx := context.Background()

	conv, err := s.Client().OpenConversation(ctx, "u2")
	require.NoError(t, err)
	room, err := s.OpenChatRoom(ctx, conv.Id)
	require.NoError(t, err)
	assert.Empty(t, room.Messages())

	sent, err := room.Send(ctx, "hi")
	require.NoError(t, err)
	require.NotNil(t, sent.Author)
	assert.Equal(t, "alice", sent.Author.Username)

	received := make(chan server.MessageResponse, 10)
	room.OnMessage(func(m server.MessageResponse) { received <- m })
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go room.Run(runCtx)
	b.waitForSubscribers(t, 1)

	// The echo of our own message is not added twice.
	b.publish(t, model.MessagesChannel(conv.Id), model.Message{
		Id: sent.Id, CreatedAt: sent.CreatedAt, ConversationID: conv.Id, SenderID: "u1", Content: "hi",
	})
	reply, err := b.repo.SendMessage(ctx, conv.Id, "u2", "hey")
	require.NoError(t, err)
	b.publish(t, model.MessagesChannel(conv.Id), reply)

	select {
	case m := <-received:
		assert.Equal(t, "hey", m.Content)
		require.NotNil(t, m.Author)
		assert.Equal(t, "bob", m.Author.Username)
	case <-time.After(2 * time.Second):
		t.Fatal("reply never arrived")
	}
	messages := room.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, "hey", messages[1].Content)
}

func TestUploadAndPost(t *testing.T) {
	b := newTestBackend(t)
	s := b.session(t, "u1")
	ctx := context.Background()

	upload, err := s.Client().UploadMedia(ctx, media.BucketPostImages, "cat.png", bytes.NewReader([]byte("png")))
	require.NoError(t, err)
	assert.Contains(t, upload.URL, "/post-images/u1/")

	post, err := s.Client().CreatePost(ctx, NewPost{
		Content: "my cat",
		Media:   []model.Media{{Type: model.MediaTypeImage, URL: upload.URL}},
	})
	require.NoError(t, err)
	require.Len(t, post.Attachments, 1)

	posts, err := s.Client().Posts(ctx, FeedOptions{Limit: 5})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, post.Id, posts[0].Id)

	require.NoError(t, s.Client().DeletePost(ctx, post.Id))
	_, err = s.Client().Post(ctx, post.Id)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}
