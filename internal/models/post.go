package models

import "time"

// MaxPostBodyLength is the maximum number of characters in a post body.
const MaxPostBodyLength = 140

// Post represents a short message authored by a user. Posts are never edited.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Body      string    `gorm:"size:140;not null" json:"body"`
	Timestamp time.Time `gorm:"column:created_at;not null;index:idx_posts_author_time,priority:2;index:idx_posts_time" json:"timestamp"`
	UserID    uint      `gorm:"not null;index:idx_posts_author_time,priority:1" json:"user_id"`
	Author    User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}
