package authValidator

import (
	"coursedelivery/validators"

	"github.com/gofiber/fiber/v2"
)

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,max=255"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,max=255"`
	Code  string `json:"code" validate:"required,max=16"`
}

// SendOTP validates the send-otp body
func SendOTP() fiber.Handler {
	return validators.Body[SendOTPRequest]("validatedSendOTP")
}

// VerifyOTP validates the verify-otp body. The code itself is only checked
// by the auth service so every wrong code gets the same answer.
func VerifyOTP() fiber.Handler {
	return validators.Body[VerifyOTPRequest]("validatedVerifyOTP")
}
