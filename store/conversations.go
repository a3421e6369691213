package store

import (
	"context"

	"github.com/Luismorlan/localsocial/fanout"
	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// FindOrCreateConversation returns the conversation between a and b in
// either participant order, creating it with a as the first participant.
func (s *Store) FindOrCreateConversation(ctx context.Context, a, b string) (*model.Conversation, error) {
	if a == "" || b == "" || a == b {
		return nil, invalid("a conversation needs two distinct participants")
	}
	if _, err := s.GetProfile(ctx, b); err != nil {
		return nil, err
	}

	var conv model.Conversation
	err := s.transaction(func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		err := tx.Where(
			"(participant_one = ? AND participant_two = ?) OR (participant_one = ? AND participant_two = ?)",
			a, b, b, a,
		).First(&conv).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		conv = model.Conversation{
			Id:             uuid.New().String(),
			ParticipantOne: a,
			ParticipantTwo: b,
		}
		return tx.Create(&conv).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to find or create conversation")
	}
	return &conv, nil
}

// GetConversation loads a conversation userID takes part in.
func (s *Store) GetConversation(ctx context.Context, id, userID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).
		Preload("ParticipantOneProfile").
		Preload("ParticipantTwoProfile").
		Where("id = ?", id).First(&conv).Error
	if err := notFound(err, "conversation "+id); err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return &conv, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := s.db.WithContext(ctx).
		Preload("ParticipantOneProfile").
		Preload("ParticipantTwoProfile").
		Where("participant_one = ? OR participant_two = ?", userID, userID).
		Order("created_at desc").
		Find(&convs).Error
	return convs, errors.Wrap(err, "failed to list conversations")
}

// SendMessage appends a message from senderID and writes the new_message
// notification of the other participant in the same transaction.
func (s *Store) SendMessage(ctx context.Context, conversationID, senderID, content string) (*model.Message, error) {
	content = utils.TrimmedOrEmpty(content)
	if content == "" {
		return nil, invalid("message is empty")
	}

	var msg model.Message
	err := s.transaction(func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		var conv model.Conversation
		if err := notFound(tx.Where("id = ?", conversationID).First(&conv).Error, "conversation "+conversationID); err != nil {
			return err
		}
		if !conv.HasParticipant(senderID) {
			return ErrForbidden
		}
		msg = model.Message{
			Id:             uuid.New().String(),
			ConversationID: conversationID,
			SenderID:       senderID,
			Content:        content,
		}
		if err := tx.Omit("Sender").Create(&msg).Error; err != nil {
			return errors.Wrap(err, "failed to create message")
		}
		if n, ok := fanout.ForMessage(senderID, &conv); ok {
			return createNotification(tx, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns the messages of a conversation oldest first, with
// their sender.
func (s *Store) ListMessages(ctx context.Context, conversationID, userID string) ([]model.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	var msgs []model.Message
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&msgs).Error
	return msgs, errors.Wrap(err, "failed to list messages")
}
