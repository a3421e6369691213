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

// AddComment comments on a post, or replies to parentID when set. The post
// owner, or the parent author for a reply, is notified in the same
// transaction.
func (s *Store) AddComment(ctx context.Context, postID, userID, content string, parentID *string) (*model.Comment, error) {
	content = utils.TrimmedOrEmpty(content)
	if content == "" {
		return nil, invalid("comment is empty")
	}

	var comment model.Comment
	err := s.transaction(func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		var post model.Post
		if err := notFound(tx.Where("id = ?", postID).First(&post).Error, "post "+postID); err != nil {
			return err
		}

		var parent *model.Comment
		if parentID != nil && *parentID != "" {
			parent = &model.Comment{}
			err := tx.Where("id = ? AND post_id = ?", *parentID, postID).First(parent).Error
			if err := notFound(err, "comment "+*parentID); err != nil {
				return err
			}
		} else {
			parentID = nil
		}

		comment = model.Comment{
			Id:              uuid.New().String(),
			PostID:          postID,
			UserID:          userID,
			Content:         content,
			ParentCommentID: parentID,
		}
		if err := tx.Omit("Profile").Create(&comment).Error; err != nil {
			return errors.Wrap(err, "failed to create comment")
		}
		if n, ok := fanout.ForComment(&post, &comment, parent); ok {
			return createNotification(tx, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment soft deletes a comment. Only its author may do so.
func (s *Store) DeleteComment(ctx context.Context, id, userID string) error {
	db := s.db.WithContext(ctx)
	var comment model.Comment
	if err := notFound(db.Where("id = ?", id).First(&comment).Error, "comment "+id); err != nil {
		return err
	}
	if comment.UserID != userID {
		return ErrForbidden
	}
	return errors.Wrap(db.Delete(&comment).Error, "failed to delete comment")
}

// ListComments returns the comments of a post oldest first, with their author.
func (s *Store) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	var comments []model.Comment
	err := s.db.WithContext(ctx).
		Preload("Profile").
		Where("post_id = ?", postID).
		Order("created_at asc").
		Find(&comments).Error
	return comments, errors.Wrap(err, "failed to list comments")
}
