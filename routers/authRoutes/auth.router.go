package authRoutes

import (
	authController "coursedelivery/controllers/auth"
	authValidator "coursedelivery/validators/auth"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes mounts the passcode login flow. limit guards the
// unauthenticated endpoints.
func SetupAuthRoutes(app *fiber.App, ctl *authController.Controller, session, limit fiber.Handler) {
	authGroup := app.Group("/auth")

	authGroup.Post("/send-otp", limit, authValidator.SendOTP(), ctl.SendOTP)
	authGroup.Post("/verify-otp", limit, authValidator.VerifyOTP(), ctl.VerifyOTP)
	authGroup.Get("/session", session, ctl.Session)
	authGroup.Post("/logout", ctl.Logout)
}
