package courseValidator

import (
	"coursedelivery/validators"

	"github.com/gofiber/fiber/v2"
)

// ============ Route parameters ============

func CourseParam() fiber.Handler {
	return validators.ParamID("courseId", "courseId", "Course ID")
}

func ClassParam() fiber.Handler {
	return validators.ParamID("classId", "classId", "Class ID")
}

func UserParam() fiber.Handler {
	return validators.ParamID("userId", "targetUserId", "User ID")
}

// ============ Progress ============

type ProgressQuery struct {
	UserID  uint `query:"userId" json:"userId" validate:"required"`
	ClassID uint `query:"classId" json:"classId" validate:"required"`
}

type RecordProgressRequest struct {
	UserID          uint  `json:"userId" validate:"required"`
	ClassID         uint  `json:"classId" validate:"required"`
	WatchedDuration *int  `json:"watchedDuration" validate:"required,gte=0"`
	LastPosition    *int  `json:"lastPosition" validate:"omitempty,gte=0"`
	IsCompleted     *bool `json:"isCompleted"`
}

func GetProgress() fiber.Handler {
	return validators.Query[ProgressQuery]("validatedProgressQuery")
}

func RecordProgress() fiber.Handler {
	return validators.Body[RecordProgressRequest]("validatedProgress")
}
