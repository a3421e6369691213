package model

import (
	"time"

	"gorm.io/gorm"
)

// CheckInLocation is a place users check in at. Plain record.
type CheckInLocation struct {
	Id        string         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-"`
	UserID    string         `json:"user_id"`
	PlaceName string         `json:"place_name"`
	City      string         `json:"city"`
	State     string         `json:"state"`
	Country   string         `json:"country"`
	Category  string         `json:"category"`
	ImageUrl  string         `json:"image_url"`
}
