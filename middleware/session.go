package middleware

import (
	"context"
	"strings"
	"time"

	"coursedelivery/apperr"
	"coursedelivery/models"

	"github.com/gofiber/fiber/v2"
)

const (
	SessionCookie = "session_token"
	RequestIDKey  = "requestid"
)

// SessionResolver turns a session token into its user.
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*models.User, error)
}

// CookieOptions are the deployment-specific cookie attributes.
type CookieOptions struct {
	Secure bool
	Domain string
}

// SessionToken reads the session cookie, or a bearer token for clients that
// cannot hold cookies.
func SessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(SessionCookie); token != "" {
		return token
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}

// RequireSession rejects requests without a live session and stores the
// user under "user" and its id under "userId".
func RequireSession(sessions SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := sessions.GetSession(c.UserContext(), SessionToken(c))
		if err != nil {
			return err
		}
		c.Locals("user", user)
		c.Locals("userId", user.ID)
		return c.Next()
	}
}

// CurrentUser is the user stored by RequireSession.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals("user").(*models.User)
	if !ok || user == nil {
		return nil, apperr.Unauthenticated()
	}
	return user, nil
}

func SetSessionCookie(c *fiber.Ctx, opts CookieOptions, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Domain:   opts.Domain,
		Expires:  expires,
		Secure:   opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func ClearSessionCookie(c *fiber.Ctx, opts CookieOptions) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Domain:   opts.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
