package models

import "time"

// CourseAccess is the only gate for viewing a course's content.
type CourseAccess struct {
	Record
	UserID    uint      `gorm:"uniqueIndex:idx_course_access_user_course;not null" json:"userId"`
	CourseID  uint      `gorm:"uniqueIndex:idx_course_access_user_course;index;not null" json:"courseId"`
	GrantedAt time.Time `gorm:"not null" json:"grantedAt"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
