package course

import "coursedelivery/models"

type Topic struct {
	models.Base
	CourseID uint    `gorm:"index;not null" json:"courseId"`
	ModuleID *uint   `gorm:"index" json:"moduleId"` // nil when the topic hangs off the course
	Title    string  `gorm:"size:255;not null" json:"title"`
	Order    int     `gorm:"column:display_order;default:0" json:"order"`
	Classes  []Class `gorm:"foreignKey:TopicID" json:"classes"`
}
