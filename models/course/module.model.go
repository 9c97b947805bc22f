package course

import (
	"coursedelivery/models"

	"gorm.io/datatypes"
)

// Module represents a section within a course
type Module struct {
	models.Base
	CourseID         uint                        `gorm:"index;not null" json:"courseId"`
	Title            string                      `gorm:"size:255;not null" json:"title"`
	Description      string                      `gorm:"type:text" json:"description"`
	Order            int                         `gorm:"column:display_order;default:0" json:"order"`
	LearningOutcomes datatypes.JSONSlice[string] `json:"learningOutcomes"`
	Topics           []Topic                     `gorm:"foreignKey:ModuleID" json:"topics"`
}
