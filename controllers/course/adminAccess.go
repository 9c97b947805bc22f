package courseController

import (
	"coursedelivery/middleware"
	"coursedelivery/services/access"
	adminValidator "coursedelivery/validators/admin"

	"github.com/gofiber/fiber/v2"
)

func (ctl *Controller) AdminGrantAccess(c *fiber.Ctx) error {
	req := c.Locals("validatedGrant").(access.GrantRequest)
	outcomes, err := ctl.Access.Grant(c.UserContext(), req)
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Access updated successfully!", outcomes)
}

func (ctl *Controller) AdminRevokeAccess(c *fiber.Ctx) error {
	reqData := c.Locals("validatedRevoke").(*adminValidator.RevokeRequest)
	if err := ctl.Access.Revoke(c.UserContext(), reqData.UserID, reqData.CourseID); err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Access revoked successfully!", nil)
}
