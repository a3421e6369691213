package model

import "time"

type Message struct {
	Id             string    `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	ConversationID string    `gorm:"index" json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Sender         *Profile  `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content        string    `json:"content"`
}
