package model

import "time"

/*

Conversation is a private two-party chat

ParticipantOne: the profile that opened the conversation
ParticipantTwo: the other profile

*/

type Conversation struct {
	Id                    string    `gorm:"primaryKey" json:"id"`
	CreatedAt             time.Time `json:"created_at"`
	ParticipantOne        string    `gorm:"index" json:"participant_one"`
	ParticipantTwo        string    `gorm:"index" json:"participant_two"`
	ParticipantOneProfile *Profile  `gorm:"foreignKey:ParticipantOne" json:"participant_one_profile,omitempty"`
	ParticipantTwoProfile *Profile  `gorm:"foreignKey:ParticipantTwo" json:"participant_two_profile,omitempty"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	return c.ParticipantOne == userID || c.ParticipantTwo == userID
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	if c.ParticipantOne == userID {
		return c.ParticipantTwo
	}
	return c.ParticipantOne
}
