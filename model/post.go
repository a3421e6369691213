package model

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*

Post is a piece of content a user shares on the feed

Id: primary key, use to identify a post
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

UserID:
Profile: author of the post, "belongs-to" relation
Content: post's content in plain text, may be empty when media is attached
MediaUrls: json list of Media, a post holds zero or more attachments
CheckInLocationID:
CheckInLocation: optional place the post checks in at

Likes: like edges on this post, "has-many" relation
Comments: comments on this post, "has-many" relation

*/

type Post struct {
	Id                string           `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time        `json:"created_at"`
	DeletedAt         gorm.DeletedAt   `json:"-"`
	UserID            string           `gorm:"index" json:"user_id"`
	Profile           *Profile         `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Content           string           `json:"content"`
	MediaUrls         datatypes.JSON   `json:"media_urls,omitempty"`
	CheckInLocationID *string          `json:"check_in_location_id,omitempty"`
	CheckInLocation   *CheckInLocation `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"check_in_location,omitempty"`
	Likes             []Like           `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE;" json:"likes,omitempty"`
	Comments          []Comment        `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE;" json:"comments,omitempty"`
}

// Media decodes the attachments of the post.
func (p *Post) Media() ([]Media, error) {
	if len(p.MediaUrls) == 0 {
		return []Media{}, nil
	}
	var media []Media
	if err := json.Unmarshal(p.MediaUrls, &media); err != nil {
		return nil, errors.Wrap(err, "post media_urls is not a media list")
	}
	return media, nil
}

// SetMedia validates and encodes the attachments of the post.
func (p *Post) SetMedia(media []Media) error {
	for _, m := range media {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	if len(media) == 0 {
		p.MediaUrls = nil
		return nil
	}
	b, err := json.Marshal(media)
	if err != nil {
		return err
	}
	p.MediaUrls = datatypes.JSON(b)
	return nil
}

// LikedBy reports whether the user is among the preloaded likes.
func (p *Post) LikedBy(userID string) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}
