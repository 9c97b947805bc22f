package adminValidator

import (
	"coursedelivery/apperr"
	"coursedelivery/services/access"
	"coursedelivery/services/catalog"
	"coursedelivery/validators"

	"github.com/gofiber/fiber/v2"
)

// ID validates the :id parameter of admin routes.
func ID() fiber.Handler {
	return validators.ParamID("id", "id", "ID")
}

func Course() fiber.Handler {
	return validators.Body[catalog.CourseInput]("validatedCourse")
}

// Module, Topic and Class bodies carry a parent id that updates may omit, so
// they are only decoded here. The catalog service fills the parent from the
// stored row and validates.

func Module() fiber.Handler {
	return decoded[catalog.ModuleInput]("validatedModule")
}

func Topic() fiber.Handler {
	return decoded[catalog.TopicInput]("validatedTopic")
}

func Class() fiber.Handler {
	return decoded[catalog.ClassInput]("validatedClass")
}

func decoded[T any](key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(T)
		if err := c.BodyParser(reqData); err != nil {
			return apperr.Validation("Invalid request body!", nil)
		}
		c.Locals(key, reqData)
		return c.Next()
	}
}

// Grant decodes a tagged single or bulk grant.
func Grant() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := access.DecodeGrant(c.Body())
		if err != nil {
			return err
		}
		c.Locals("validatedGrant", req)
		return c.Next()
	}
}

type RevokeRequest struct {
	UserID   uint `json:"userId" validate:"required"`
	CourseID uint `json:"courseId" validate:"required"`
}

func Revoke() fiber.Handler {
	return validators.Body[RevokeRequest]("validatedRevoke")
}
