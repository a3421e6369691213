package model

import "time"

/*

Follow is a directed "many-to-many" relation of a profile following another

FollowerID: the profile that follows
FollowingID: the profile being followed
CreatedAt: time when relation is created

*/

type Follow struct {
	FollowerID  string    `gorm:"primaryKey" json:"follower_id"`
	FollowingID string    `gorm:"primaryKey;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "followers"
}
