package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MarketplaceItem is an item a user offers for sale. Plain record.
type MarketplaceItem struct {
	Id          string         `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `json:"-"`
	UserID      string         `json:"user_id"`
	Profile     *Profile       `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	PriceCents  int64          `json:"price_cents"`
	Category    string         `json:"category"`
	ImageUrls   datatypes.JSON `json:"image_urls,omitempty"`
}
