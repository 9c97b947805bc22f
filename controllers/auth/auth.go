package authController

import (
	"coursedelivery/middleware"
	"coursedelivery/services/auth"
	authValidator "coursedelivery/validators/auth"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Auth   *auth.Service
	Cookie middleware.CookieOptions
}

func (ctl *Controller) SendOTP(c *fiber.Ctx) error {
	reqData := c.Locals("validatedSendOTP").(*authValidator.SendOTPRequest)

	res, err := ctl.Auth.SendOTP(c.UserContext(), reqData.Email)
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP sent successfully!", res)
}

func (ctl *Controller) VerifyOTP(c *fiber.Ctx) error {
	reqData := c.Locals("validatedVerifyOTP").(*authValidator.VerifyOTPRequest)

	res, err := ctl.Auth.VerifyOTP(c.UserContext(), reqData.Email, reqData.Code, auth.Meta{
		IPAddress: c.IP(),
		Device:    c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return err
	}

	middleware.SetSessionCookie(c, ctl.Cookie, res.Token, res.ExpiresAt)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful!", fiber.Map{
		"user":      res.User,
		"expiresAt": res.ExpiresAt,
	})
}

// Session returns the signed-in user.
func (ctl *Controller) Session(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Session is active!", fiber.Map{"user": user})
}

// Logout ends the session named by the request, if any, and clears the cookie.
func (ctl *Controller) Logout(c *fiber.Ctx) error {
	if err := ctl.Auth.EndSession(c.UserContext(), middleware.SessionToken(c)); err != nil {
		return err
	}
	middleware.ClearSessionCookie(c, ctl.Cookie)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Logged out successfully!", nil)
}
