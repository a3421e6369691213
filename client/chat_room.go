package client

import (
	"context"
	"sync"

	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/realtime"
	"github.com/Luismorlan/localsocial/server"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ChatRoom is one open conversation. New messages of either participant are
// patched in as they arrive.
type ChatRoom struct {
	client         *Client
	conversationID string

	mu        sync.Mutex
	messages  []server.MessageResponse
	senders   map[string]*server.ProfileResponse
	observers []func(server.MessageResponse)
}

// OpenChatRoom loads the messages of the conversation.
func (s *Session) OpenChatRoom(ctx context.Context, conversationID string) (*ChatRoom, error) {
	if s.UserID() == "" {
		return nil, ErrNotSignedIn
	}
	messages, err := s.client.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	room := &ChatRoom{
		client:         s.client,
		conversationID: conversationID,
		messages:       messages,
		senders:        map[string]*server.ProfileResponse{},
	}
	for _, m := range messages {
		if m.Author != nil {
			room.senders[m.SenderID] = m.Author
		}
	}
	return room, nil
}

func (r *ChatRoom) ConversationID() string {
	return r.conversationID
}

func (r *ChatRoom) Messages() []server.MessageResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]server.MessageResponse(nil), r.messages...)
}

// OnMessage registers an observer called for every message added to the room.
func (r *ChatRoom) OnMessage(f func(server.MessageResponse)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, f)
}

// add appends the message unless the room already has it.
func (r *ChatRoom) add(m server.MessageResponse) {
	r.mu.Lock()
	if lo.ContainsBy(r.messages, func(existing server.MessageResponse) bool { return existing.Id == m.Id }) {
		r.mu.Unlock()
		return
	}
	r.messages = append(r.messages, m)
	observers := append(([]func(server.MessageResponse))(nil), r.observers...)
	r.mu.Unlock()
	for _, f := range observers {
		f(m)
	}
}

func (r *ChatRoom) sender(ctx context.Context, id string) *server.ProfileResponse {
	r.mu.Lock()
	cached, ok := r.senders[id]
	r.mu.Unlock()
	if ok {
		return cached
	}
	profile, err := r.client.Profile(ctx, id)
	if err != nil {
		Log.WithError(err).Warnf("cannot resolve message sender %s", id)
		return nil
	}
	r.mu.Lock()
	r.senders[id] = profile
	r.mu.Unlock()
	return profile
}

// Send writes a message to the conversation.
func (r *ChatRoom) Send(ctx context.Context, content string) (*server.MessageResponse, error) {
	msg, err := r.client.SendMessage(ctx, r.conversationID, content)
	if err != nil {
		return nil, err
	}
	if msg.Author == nil {
		msg.Author = r.sender(ctx, msg.SenderID)
	}
	r.add(*msg)
	return msg, nil
}

// Run patches in new messages until ctx is done or the change feed ends.
func (r *ChatRoom) Run(ctx context.Context) error {
	feed, err := r.client.Subscribe(ctx, model.MessagesChannel(r.conversationID))
	if err != nil {
		return err
	}
	defer feed.Close()

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
		row, err := decodeRow(event)
		if err != nil {
			Log.WithError(err).Warn("ignoring undecodable message event")
			continue
		}
		msg, err := model.ParseMessage(row)
		if err != nil {
			Log.WithError(err).Warn("ignoring malformed message event")
			continue
		}
		r.add(server.MessageResponse{
			Id:             msg.Id,
			CreatedAt:      msg.CreatedAt,
			ConversationID: msg.ConversationID,
			SenderID:       msg.SenderID,
			Author:         r.sender(ctx, msg.SenderID),
			Content:        msg.Content,
		})
	}
}
