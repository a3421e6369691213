package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationText(t *testing.T) {
	actor := &Profile{Username: "ana"}
	assert.Equal(t, "ana liked your post.", (&Notification{Type: NotificationTypeLike, Actor: actor}).Text())
	assert.Equal(t, "ana replied to your comment.", (&Notification{Type: NotificationTypeReply, Actor: actor}).Text())
	assert.Equal(t, "Someone started following you.", (&Notification{Type: NotificationTypeFollow}).Text())
	assert.Equal(t, "You have a new notification.", (&Notification{Type: "poke", Actor: actor}).Text())
}

func TestNotificationTypeUnmarshal(t *testing.T) {
	var n Notification
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","type":"follow"}`), &n))
	assert.Equal(t, NotificationTypeFollow, n.Type)

	assert.Error(t, json.Unmarshal([]byte(`{"id":"1","type":"poke"}`), &n))
	assert.Error(t, json.Unmarshal([]byte(`{"id":"1","type":3}`), &n))
}

func TestPostMedia(t *testing.T) {
	var p Post
	media, err := p.Media()
	require.NoError(t, err)
	assert.Empty(t, media)

	want := []Media{
		{Type: MediaTypeImage, URL: "https://cdn/a.png"},
		{Type: MediaTypeYoutube, URL: "https://youtu.be/x"},
	}
	require.NoError(t, p.SetMedia(want))
	got, err := p.Media()
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want, got))

	assert.Error(t, p.SetMedia([]Media{{Type: "gif", URL: "u"}}))
	assert.Error(t, p.SetMedia([]Media{{Type: MediaTypeImage}}))

	require.NoError(t, p.SetMedia(nil))
	assert.Nil(t, p.MediaUrls)
}

func TestPostLikedBy(t *testing.T) {
	p := Post{Likes: []Like{{PostID: "p", UserID: "a"}}}
	assert.True(t, p.LikedBy("a"))
	assert.False(t, p.LikedBy("b"))
}

func TestConversationOther(t *testing.T) {
	c := Conversation{ParticipantOne: "a", ParticipantTwo: "b"}
	assert.Equal(t, "b", c.Other("a"))
	assert.Equal(t, "a", c.Other("b"))
	assert.True(t, c.HasParticipant("a"))
	assert.False(t, c.HasParticipant("c"))
}

func TestChannels(t *testing.T) {
	kind, id, err := ParseChannel(NotificationsChannel("u1"))
	require.NoError(t, err)
	assert.Equal(t, ChannelKindNotifications, kind)
	assert.Equal(t, "u1", id)

	kind, id, err = ParseChannel(MessagesChannel("c:1"))
	require.NoError(t, err)
	assert.Equal(t, ChannelKindMessages, kind)
	assert.Equal(t, "c:1", id)

	for _, bad := range []string{"", "notifications", "notifications:", "likes:u1"} {
		_, _, err := ParseChannel(bad)
		assert.Error(t, err, bad)
	}
}

func TestChangeEventDecode(t *testing.T) {
	ev := ChangeEvent{Channel: MessagesChannel("c1"), Record: json.RawMessage(`{"id":"m1","content":"hi"}`)}
	var m Message
	require.NoError(t, ev.Decode(&m))
	assert.Equal(t, "m1", m.Id)
	assert.Equal(t, "hi", m.Content)

	assert.Error(t, ChangeEvent{Channel: "x"}.Decode(&m))
}

func TestParseNotification(t *testing.T) {
	n, err := ParseNotification(Row{
		"id":         "n1",
		"user_id":    "owner",
		"actor_id":   "ana",
		"type":       "like",
		"post_id":    "p1",
		"created_at": "2024-05-01T10:00:00.123456+00:00",
		"actor":      map[string]interface{}{"username": "ana", "avatar_url": "a.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, NotificationTypeLike, n.Type)
	require.NotNil(t, n.PostID)
	assert.Equal(t, "p1", *n.PostID)
	assert.Nil(t, n.CommentID)
	assert.False(t, n.Read)
	assert.Equal(t, "ana", n.Actor.Username)
	assert.Equal(t, 2024, n.CreatedAt.Year())
	assert.Equal(t, time.May, n.CreatedAt.Month())

	_, err = ParseNotification(Row{"id": "n1", "user_id": "owner", "actor_id": "ana", "type": "poke", "created_at": "2024-05-01"})
	assert.Error(t, err)
	_, err = ParseNotification(Row{"id": "n1", "actor_id": "ana", "type": "like", "created_at": "2024-05-01"})
	assert.Error(t, err)
	_, err = ParseNotification(Row{"id": "n1", "user_id": "owner", "actor_id": "ana", "type": "like"})
	assert.Error(t, err)
}

func TestParseMessage(t *testing.T) {
	m, err := ParseMessage(Row{
		"id":              "m1",
		"conversation_id": "c1",
		"sender_id":       "ana",
		"content":         "hello",
		"created_at":      float64(1714557600),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Content)
	assert.Equal(t, int64(1714557600), m.CreatedAt.Unix())
	assert.Nil(t, m.Sender)

	_, err = ParseMessage(Row{"id": "m1", "conversation_id": "c1", "created_at": "2024-05-01"})
	assert.Error(t, err)
}

func TestParseMedia(t *testing.T) {
	media, err := ParseMedia([]interface{}{
		map[string]interface{}{"type": "image", "url": "a"},
		nil,
		map[string]interface{}{"type": "video", "url": "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []Media{{Type: MediaTypeImage, URL: "a"}, {Type: MediaTypeVideo, URL: "b"}}, media)

	_, err = ParseMedia([]interface{}{"a"})
	assert.Error(t, err)
	_, err = ParseMedia([]interface{}{map[string]interface{}{"type": "gif", "url": "a"}})
	assert.Error(t, err)
}

func TestProfileDisplayName(t *testing.T) {
	assert.Equal(t, "Ana", (&Profile{Username: "ana", FullName: "Ana"}).DisplayName())
	assert.Equal(t, "ana", (&Profile{Username: "ana"}).DisplayName())
	var p *Profile
	assert.Equal(t, "", p.DisplayName())
}
