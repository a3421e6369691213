package model

import "time"

type FeedbackType string

const (
	FeedbackTypeBug        FeedbackType = "bug"
	FeedbackTypeSuggestion FeedbackType = "suggestion"
	FeedbackTypeOther      FeedbackType = "other"
)

func (e FeedbackType) IsValid() bool {
	switch e {
	case FeedbackTypeBug, FeedbackTypeSuggestion, FeedbackTypeOther:
		return true
	}
	return false
}

type Feedback struct {
	Id        string       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	UserID    string       `json:"user_id"`
	Type      FeedbackType `json:"type"`
	Subject   string       `json:"subject"`
	Message   string       `json:"message"`
}
