package models

import "time"

type Session struct {
	Record
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"` // sha256 hex of the cookie value
	UserID    uint      `gorm:"index;not null" json:"userId"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expiresAt"`
	IPAddress string    `gorm:"size:64" json:"ipAddress,omitempty"`
	Device    string    `gorm:"size:255" json:"device,omitempty"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
