package course

import (
	"time"

	"coursedelivery/models"
)

// UserProgress is unique per (user, class). IsCompleted only ever moves from
// false to true and CompletedAt is written once, on that transition.
type UserProgress struct {
	models.Record
	UserID          uint       `gorm:"uniqueIndex:idx_progress_user_class;not null" json:"userId"`
	ClassID         uint       `gorm:"uniqueIndex:idx_progress_user_class;index;not null" json:"classId"`
	WatchedDuration int        `gorm:"default:0;not null" json:"watchedDuration"` // seconds
	LastPosition    int        `gorm:"default:0;not null" json:"lastPosition"`    // seconds
	IsCompleted     bool       `gorm:"default:false;not null" json:"isCompleted"`
	LastWatchedAt   time.Time  `json:"lastWatchedAt"`
	CompletedAt     *time.Time `json:"completedAt"`
	Class           *Class     `gorm:"foreignKey:ClassID" json:"class,omitempty"`
}

func (UserProgress) TableName() string { return "user_progress" }
