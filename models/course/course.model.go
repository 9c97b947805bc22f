package course

import "coursedelivery/models"

const (
	TypeRoleSpecific    = "role-specific"
	TypeSkillBased      = "skill-based"
	TypeCompanySpecific = "company-specific"
)

// Course is the root of the content tree. It owns modules, and topics that
// hang directly off the course when it has no modules.
type Course struct {
	models.Base
	Title        string   `gorm:"size:255;not null" json:"title"`
	Description  string   `gorm:"type:text" json:"description"`
	Type         string   `gorm:"size:32;not null" json:"type"`
	Tag          string   `gorm:"size:255" json:"tag,omitempty"` // role, skill or company name
	ThumbnailURL string   `gorm:"size:512" json:"thumbnailUrl,omitempty"`
	Modules      []Module `gorm:"foreignKey:CourseID" json:"modules"`
	Topics       []Topic  `gorm:"foreignKey:CourseID" json:"topics"` // module-less only, see LoadCourseTree
}

func ValidCourseType(t string) bool {
	switch t {
	case TypeRoleSpecific, TypeSkillBased, TypeCompanySpecific:
		return true
	}
	return false
}
