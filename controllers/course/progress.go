package courseController

import (
	"coursedelivery/apperr"
	"coursedelivery/middleware"
	"coursedelivery/models"
	"coursedelivery/services/progress"
	courseValidator "coursedelivery/validators/course"

	"github.com/gofiber/fiber/v2"
)

// GetProgress returns the caller's row for one class, or null when the class
// has not been started.
func (ctl *Controller) GetProgress(c *fiber.Ctx) error {
	reqData := c.Locals("validatedProgressQuery").(*courseValidator.ProgressQuery)
	if _, err := requireSelf(c, reqData.UserID); err != nil {
		return err
	}

	row, err := ctl.Progress.GetProgress(c.UserContext(), reqData.UserID, reqData.ClassID)
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", row)
}

// RecordProgress stores a progress ping for a class the caller can open.
func (ctl *Controller) RecordProgress(c *fiber.Ctx) error {
	reqData := c.Locals("validatedProgress").(*courseValidator.RecordProgressRequest)
	user, err := requireSelf(c, reqData.UserID)
	if err != nil {
		return err
	}
	if user.ID != reqData.UserID {
		return apperr.Forbidden("You can only record your own progress!")
	}

	courseID, err := ctl.Progress.CourseIDForClass(c.UserContext(), reqData.ClassID)
	if err != nil {
		return err
	}
	if user.Role != models.RoleAdmin {
		ok, err := ctl.Access.HasAccess(c.UserContext(), user.ID, courseID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Forbidden("You do not have access to this course!")
		}
	}

	row, err := ctl.Progress.RecordProgress(c.UserContext(), progress.RecordInput{
		UserID:          reqData.UserID,
		ClassID:         reqData.ClassID,
		WatchedDuration: reqData.WatchedDuration,
		LastPosition:    reqData.LastPosition,
		IsCompleted:     reqData.IsCompleted,
	})
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress saved successfully!", row)
}

// GetAllProgress lists the caller's rows with their classes.
func (ctl *Controller) GetAllProgress(c *fiber.Ctx) error {
	userID := idLocal(c, "targetUserId")
	if _, err := requireSelf(c, userID); err != nil {
		return err
	}

	rows, err := ctl.Progress.GetAllProgress(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", rows)
}
