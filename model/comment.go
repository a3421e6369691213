package model

import (
	"time"

	"gorm.io/gorm"
)

/*

Comment is a comment on a post, optionally a reply to another comment

ParentCommentID: set when the comment replies to another comment of the same post

*/

type Comment struct {
	Id              string         `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	DeletedAt       gorm.DeletedAt `json:"-"`
	PostID          string         `gorm:"index" json:"post_id"`
	UserID          string         `json:"user_id"`
	Profile         *Profile       `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Content         string         `json:"content"`
	ParentCommentID *string        `json:"parent_comment_id,omitempty"`
}

func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil && *c.ParentCommentID != ""
}
