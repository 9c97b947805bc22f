package models

import (
	"time"

	"gorm.io/gorm"
)

// Base replaces gorm.Model so ids and timestamps serialise in camelCase.
// Rows embedding it are soft deleted.
type Base struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Record is Base without soft delete, for rows guarded by a unique key that
// must be reusable once removed (users, sessions, grants, progress, passcodes).
type Record struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
