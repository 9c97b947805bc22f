package course

import "coursedelivery/models"

const (
	ContentVideo   = "video"
	ContentText    = "text"
	ContentContest = "contest"
)

// Class is a single consumable unit. Exactly one of VideoURL, TextContent or
// ContestURL is meaningful, picked by ContentType.
type Class struct {
	models.Base
	TopicID     uint   `gorm:"index;not null" json:"topicId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	ContentType string `gorm:"size:16;not null" json:"contentType"`
	VideoURL    string `gorm:"size:512" json:"videoUrl,omitempty"`
	TextContent string `gorm:"type:text" json:"textContent,omitempty"`
	ContestURL  string `gorm:"size:512" json:"contestUrl,omitempty"`
	Duration    int    `gorm:"default:0" json:"duration"` // seconds
	Order       int    `gorm:"column:display_order;default:0" json:"order"`
}

func ValidContentType(t string) bool {
	switch t {
	case ContentVideo, ContentText, ContentContest:
		return true
	}
	return false
}

// ContentField names the payload field required by a content type.
func ContentField(t string) string {
	switch t {
	case ContentVideo:
		return "videoUrl"
	case ContentText:
		return "textContent"
	case ContentContest:
		return "contestUrl"
	}
	return ""
}
