package models

import "time"

// OTP is one issued passcode. A new row is written for every send; rows are
// never reused once verified or expired.
type OTP struct {
	Record
	Email      string     `gorm:"size:255;index;not null" json:"email"`
	CodeHash   string     `gorm:"size:100;not null" json:"-"` // bcrypt
	ExpiresAt  time.Time  `gorm:"index;not null" json:"expiresAt"`
	Verified   bool       `gorm:"default:false;not null" json:"verified"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}
