package store

import (
	"context"

	"github.com/Luismorlan/localsocial/model"
	"github.com/Luismorlan/localsocial/utils"
	"github.com/pkg/errors"
	"gorm.io/gorm/clause"
)

// UpsertProfile creates the profile or updates its editable fields.
func (s *Store) UpsertProfile(ctx context.Context, p *model.Profile) error {
	if p.Id == "" {
		return invalid("profile has no id")
	}
	p.Username = utils.TrimmedOrEmpty(p.Username)
	if p.Username == "" {
		return invalid("profile %s has no username", p.Id)
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "full_name", "avatar_url", "bio", "is_private", "social_links", "updated_at",
		}),
	}).Create(p).Error
	return errors.Wrap(err, "failed to upsert profile")
}

func (s *Store) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	if err := notFound(s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error, "profile "+id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&p).Error
	if err := notFound(err, "profile @"+username); err != nil {
		return nil, err
	}
	return &p, nil
}

// CanView reports whether viewerID may see the posts of profile: public
// profiles are visible to all, private ones to their owner and followers.
func (s *Store) CanView(ctx context.Context, viewerID string, profile *model.Profile) (bool, error) {
	if profile == nil {
		return false, nil
	}
	if !profile.IsPrivate || profile.Id == viewerID {
		return true, nil
	}
	if viewerID == "" {
		return false, nil
	}
	return s.IsFollowing(ctx, viewerID, profile.Id)
}
