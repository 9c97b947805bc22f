package middleware

import (
	"errors"
	"fmt"

	"coursedelivery/apperr"
	"coursedelivery/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every error returned by a handler in the response
// envelope. Internal errors are logged with their stack and answered with a
// fixed message.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return JsonResponse(c, fe.Code, false, fe.Message, nil)
		}

		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			switch appErr.Kind {
			case apperr.KindInternal:
			case apperr.KindValidation:
				if len(appErr.Fields) == 0 {
					return JsonResponse(c, fiber.StatusBadRequest, false, appErr.Message, nil)
				}
				return JsonResponse(c, fiber.StatusBadRequest, false, appErr.Message, appErr.Fields)
			default:
				return JsonResponse(c, appErr.Kind.HTTPStatus(), false, appErr.Message, nil)
			}
		}

		log.Error("Request failed",
			"request_id", c.Locals(RequestIDKey),
			"method", c.Method(),
			"path", c.Path(),
			"error", fmt.Sprintf("%+v", err),
		)
		return JsonResponse(c, fiber.StatusInternalServerError, false, apperr.InternalMessage, nil)
	}
}
