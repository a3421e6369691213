package store

import (
	"context"

	"github.com/Luismorlan/localsocial/model"
	"github.com/pkg/errors"
	"gorm.io/gorm/clause"
)

// AddLike records that userID likes postID. Liking twice is a no-op. The post
// is returned so that callers know its owner.
func (s *Store) AddLike(ctx context.Context, userID, postID string) (*model.Post, error) {
	db := s.db.WithContext(ctx)
	var post model.Post
	if err := notFound(db.Where("id = ?", postID).First(&post).Error, "post "+postID); err != nil {
		return nil, err
	}
	like := model.Like{PostID: postID, UserID: userID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
		return nil, errors.Wrap(err, "failed to add like")
	}
	return &post, nil
}

// RemoveLike deletes the like, a missing like is a no-op.
func (s *Store) RemoveLike(ctx context.Context, userID, postID string) error {
	return errors.Wrap(
		s.db.WithContext(ctx).
			Where("post_id = ? AND user_id = ?", postID, userID).
			Delete(&model.Like{}).Error,
		"failed to remove like")
}

func (s *Store) LikesForPost(ctx context.Context, postID string) ([]model.Like, error) {
	var likes []model.Like
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at asc").Find(&likes).Error
	return likes, errors.Wrap(err, "failed to list likes")
}

func (s *Store) HasLiked(ctx context.Context, userID, postID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error
	return count > 0, errors.Wrap(err, "failed to check like")
}

// Follow makes followerID follow followingID. Following twice is a no-op.
func (s *Store) Follow(ctx context.Context, followerID, followingID string) error {
	if followerID == followingID {
		return invalid("profile %s cannot follow itself", followerID)
	}
	db := s.db.WithContext(ctx)
	if _, err := s.GetProfile(ctx, followingID); err != nil {
		return err
	}
	follow := model.Follow{FollowerID: followerID, FollowingID: followingID}
	return errors.Wrap(
		db.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error,
		"failed to follow")
}

func (s *Store) Unfollow(ctx context.Context, followerID, followingID string) error {
	return errors.Wrap(
		s.db.WithContext(ctx).
			Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&model.Follow{}).Error,
		"failed to unfollow")
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).Count(&count).Error
	return count > 0, errors.Wrap(err, "failed to check follow")
}

// Followers lists the profiles following profileID.
func (s *Store) Followers(ctx context.Context, profileID string) ([]model.Profile, error) {
	var profiles []model.Profile
	err := s.db.WithContext(ctx).
		Joins("JOIN followers ON followers.follower_id = profiles.id").
		Where("followers.following_id = ?", profileID).
		Order("followers.created_at desc").
		Find(&profiles).Error
	return profiles, errors.Wrap(err, "failed to list followers")
}

// Following lists the profiles profileID follows.
func (s *Store) Following(ctx context.Context, profileID string) ([]model.Profile, error) {
	var profiles []model.Profile
	err := s.db.WithContext(ctx).
		Joins("JOIN followers ON followers.following_id = profiles.id").
		Where("followers.follower_id = ?", profileID).
		Order("followers.created_at desc").
		Find(&profiles).Error
	return profiles, errors.Wrap(err, "failed to list following")
}

// FollowCounts returns how many profiles follow profileID and how many it
// follows.
func (s *Store) FollowCounts(ctx context.Context, profileID string) (followers int64, following int64, err error) {
	db := s.db.WithContext(ctx).Model(&model.Follow{})
	if err = db.Where("following_id = ?", profileID).Count(&followers).Error; err != nil {
		return 0, 0, errors.Wrap(err, "failed to count followers")
	}
	db = s.db.WithContext(ctx).Model(&model.Follow{})
	if err = db.Where("follower_id = ?", profileID).Count(&following).Error; err != nil {
		return 0, 0, errors.Wrap(err, "failed to count following")
	}
	return followers, following, nil
}
