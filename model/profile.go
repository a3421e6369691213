package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*

Profile is the public face of an authenticated user

Id: primary key, equals the auth subject ("sub") of the user
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Username: unique handle used in profile urls
FullName: display name, may be empty
AvatarUrl: public url of the avatar image
IsPrivate: when true only followers (and the owner) can see posts
SocialLinks: free-form json object of external links

*/

type Profile struct {
	Id          string         `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"`
	Username    string         `gorm:"uniqueIndex" json:"username"`
	FullName    string         `json:"full_name"`
	AvatarUrl   string         `json:"avatar_url"`
	Bio         string         `json:"bio"`
	IsPrivate   bool           `json:"is_private"`
	SocialLinks datatypes.JSON `json:"social_links,omitempty"`
}

// DisplayName prefers the full name, falls back to the username.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.FullName != "" {
		return p.FullName
	}
	return p.Username
}
