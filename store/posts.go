package store

import (
	"context"
	"time"

	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const DefaultFeedPageSize = 20

// CreatePost publishes a post with text content, media attachments, or both.
func (s *Store) CreatePost(ctx context.Context, userID, content string, media []model.Media, checkInLocationID *string) (*model.Post, error) {
	content = utils.TrimmedOrEmpty(content)
	if content == "" && len(media) == 0 {
		return nil, invalid("post needs content or media")
	}

	post := model.Post{
		Id:                uuid.New().String(),
		UserID:            userID,
		Content:           content,
		CheckInLocationID: checkInLocationID,
	}
	if err := post.SetMedia(media); err != nil {
		return nil, invalid("%s", err.Error())
	}
	err := s.db.WithContext(ctx).Omit("Profile", "CheckInLocation", "Likes", "Comments").Create(&post).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to create post")
	}
	return &post, nil
}

// DeletePost soft deletes a post. Only its author may do so. The stored media
// of the post is returned so that callers can remove the objects.
func (s *Store) DeletePost(ctx context.Context, id, userID string) ([]model.Media, error) {
	db := s.db.WithContext(ctx)
	var post model.Post
	if err := notFound(db.Where("id = ?", id).First(&post).Error, "post "+id); err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, ErrForbidden
	}
	media, err := post.Media()
	if err != nil {
		return nil, err
	}
	if err := db.Delete(&post).Error; err != nil {
		return nil, errors.Wrap(err, "failed to delete post")
	}
	return lo.Filter(media, func(m model.Media, _ int) bool {
		return m.Type.IsStored()
	}), nil
}

// GetPost loads a post with its author and likes.
func (s *Store) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := s.db.WithContext(ctx).
		Preload("Profile").
		Preload("CheckInLocation").
		Preload("Likes").
		Where("id = ?", id).First(&post).Error
	if err := notFound(err, "post "+id); err != nil {
		return nil, err
	}
	return &post, nil
}

type FeedQuery struct {
	ViewerID string
	// FollowingOnly restricts the feed to authors the viewer follows.
	FollowingOnly bool
	AuthorID      string
	Before        *time.Time
	Limit         int
}

// ListPosts returns the posts the viewer may see, newest first.
func (s *Store) ListPosts(ctx context.Context, q FeedQuery) ([]model.Post, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultFeedPageSize
	}
	db := s.db.WithContext(ctx)
	following := db.Model(&model.Follow{}).Select("following_id").Where("follower_id = ?", q.ViewerID)
	public := db.Model(&model.Profile{}).Select("id").Where("is_private = ?", false)

	query := db.
		Preload("Profile").
		Preload("CheckInLocation").
		Preload("Likes").
		Where("posts.user_id = ? OR posts.user_id IN (?) OR posts.user_id IN (?)", q.ViewerID, public, following)
	if q.FollowingOnly {
		query = query.Where("posts.user_id IN (?)", following)
	}
	if q.AuthorID != "" {
		query = query.Where("posts.user_id = ?", q.AuthorID)
	}
	if q.Before != nil {
		query = query.Where("posts.created_at < ?", *q.Before)
	}

	var posts []model.Post
	err := query.Order("posts.created_at desc").Limit(q.Limit).Find(&posts).Error
	return posts, errors.Wrap(err, "failed to list posts")
}
