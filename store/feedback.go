package store

import (
	"context"

	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (s *Store) CreateFeedback(ctx context.Context, f *model.Feedback) error {
	f.Message = utils.TrimmedOrEmpty(f.Message)
	if f.Message == "" {
		return invalid("feedback message is empty")
	}
	if !f.Type.IsValid() {
		return invalid("unknown feedback type %q", f.Type)
	}
	if f.Id == "" {
		f.Id = uuid.New().String()
	}
	return errors.Wrap(s.db.WithContext(ctx).Create(f).Error, "failed to create feedback")
}
