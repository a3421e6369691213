package model

import (
	"time"

	"gorm.io/gorm"
)

// Event is a calendar entry created by a user. Plain record.
type Event struct {
	Id          string         `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `json:"-"`
	UserID      string         `json:"user_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	StartsAt    time.Time      `json:"starts_at"`
	Location    string         `json:"location"`
	ImageUrl    string         `json:"image_url"`
}
