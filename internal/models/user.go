// Package models contains data structures for the application's domain models.
package models

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	// MaxNicknameLength bounds the nickname column.
	MaxNicknameLength = 64
	// MaxEmailLength bounds the email column.
	MaxEmailLength = 120
	// MaxAboutMeLength bounds the profile blurb.
	MaxAboutMeLength = 140
)

// User represents a registered microblog user.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Nickname  string     `gorm:"size:64;uniqueIndex;not null" json:"nickname"`
	Email     string     `gorm:"size:120;uniqueIndex;not null" json:"-"`
	AboutMe   string     `gorm:"size:140" json:"about_me"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// AvatarURL returns the Gravatar image for the user's email at the given size.
func (u *User) AvatarURL(size int) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(u.Email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=mm&s=%d", hex.EncodeToString(sum[:]), size)
}

// UserSummary is the public shape of a user embedded in other payloads.
type UserSummary struct {
	ID       uint   `json:"id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// Summary returns the compact representation used in feeds and lists.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Nickname: u.Nickname,
		Avatar:   u.AvatarURL(64),
	}
}
