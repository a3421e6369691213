package model

import "time"

/*

Like is a "many-to-many" relation of user liking a post

PostID: post id
UserID: user id
CreatedAt: time when relation is created

*/

type Like struct {
	PostID    string    `gorm:"primaryKey" json:"post_id"`
	UserID    string    `gorm:"primaryKey;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
