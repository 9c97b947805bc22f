package middleware

import (
	"context"

	"coursedelivery/apperr"
	"coursedelivery/models"

	"github.com/gofiber/fiber/v2"
)

type AccessChecker interface {
	HasAccess(ctx context.Context, userID, courseID uint) (bool, error)
}

// RequireCourseAccess runs after RequireSession. courseOf resolves the
// course the request targets; it is stored under "courseId". Admins pass
// without a grant.
func RequireCourseAccess(checker AccessChecker, courseOf func(c *fiber.Ctx) (uint, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := CurrentUser(c)
		if err != nil {
			return err
		}
		courseID, err := courseOf(c)
		if err != nil {
			return err
		}
		c.Locals("courseId", courseID)

		if user.Role == models.RoleAdmin {
			return c.Next()
		}
		ok, err := checker.HasAccess(c.UserContext(), user.ID, courseID)
		if err != nil {
			return err
		}
		// Unknown course ids also land here, so learners cannot probe for ids.
		if !ok {
			return apperr.Forbidden("You do not have access to this course!")
		}
		return c.Next()
	}
}
