package models

import (
	"strings"
	"time"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User rows are hard deleted so the unique email stays free for the
// find-or-create at login.
type User struct {
	Record
	Email           string     `gorm:"size:255;uniqueIndex;not null" json:"email"` // always stored normalised
	Name            string     `gorm:"size:255;default:''" json:"name,omitempty"`
	Role            string     `gorm:"size:16;default:'USER'" json:"role"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt,omitempty"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
}

// NormalizeEmail is the single place emails are canonicalised, which is what
// makes the unique index case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
