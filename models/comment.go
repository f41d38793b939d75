package models

import "time"

// Comment represents a reply to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	CreatedAt time.Time `json:"date_posted"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    *User     `gorm:"foreignKey:UserID" json:"-"`
}

func (c Comment) OwnerID() uint { return c.UserID }
