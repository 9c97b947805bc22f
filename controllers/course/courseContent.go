package courseController

import (
	"coursedelivery/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetClass returns a class with its parents and neighbours.
func (ctl *Controller) GetClass(c *fiber.Ctx) error {
	view, err := ctl.Progress.LoadClassContext(c.UserContext(), idLocal(c, "classId"))
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Class fetched successfully!", view)
}
