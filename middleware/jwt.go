package middleware

import (
	"fmt"
	"strings"
	"time"

	"coursedelivery/apperr"
	"coursedelivery/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const AdminTokenTTL = 24 * time.Hour

// GenerateAdminJWT signs a token for an admin user.
func GenerateAdminJWT(secret string, userID uint, email string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID,
		"email":  email,
		"role":   models.RoleAdmin,
		"iat":    now.Unix(),
		"exp":    now.Add(AdminTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// AdminJWTMiddleware accepts only HS256 bearer tokens carrying role ADMIN and
// stores the admin's id under "adminId".
func AdminJWTMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid Authorization header", nil)
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid Authorization header format", nil)
		}
		tokenString := authHeader[len("Bearer "):]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired token", nil)
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["userId"] == nil {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token payload", nil)
		}
		if role, _ := claims["role"].(string); role != models.RoleAdmin {
			return apperr.Forbidden("Admin access required!")
		}

		// numeric claims decode as float64
		userID, ok := claims["userId"].(float64)
		if !ok || userID <= 0 {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token payload", nil)
		}
		c.Locals("adminId", uint(userID))
		return c.Next()
	}
}
