// Package routers assembles the fiber application: services, middleware and
// every route group.
package routers

import (
	"io"
	"os"
	"strings"
	"time"

	"coursedelivery/cache"
	"coursedelivery/config"
	authController "coursedelivery/controllers/auth"
	courseController "coursedelivery/controllers/course"
	"coursedelivery/logger"
	"coursedelivery/middleware"
	authRoutes "coursedelivery/routers/authRoutes"
	courseRoutes "coursedelivery/routers/courseRoutes"
	"coursedelivery/services/access"
	"coursedelivery/services/auth"
	"coursedelivery/services/catalog"
	"coursedelivery/services/progress"
	"coursedelivery/utils/email"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Log    *logger.Logger
	Mailer email.Mailer
	Cache  cache.Cache
	// AccessLog receives one line per request. nil means stdout.
	AccessLog io.Writer
}

// Server is the assembled app plus the services behind it, so callers can
// run jobs or adjust clocks against the same instances.
type Server struct {
	App      *fiber.App
	Auth     *auth.Service
	Access   *access.Service
	Catalog  *catalog.Service
	Progress *progress.Service
}

func New(deps Deps) *Server {
	cfg := deps.Config
	srv := &Server{
		Auth:     auth.New(deps.DB, deps.Mailer, deps.Log, cfg),
		Access:   access.New(deps.DB, deps.Mailer, deps.Log),
		Catalog:  catalog.New(deps.DB, deps.Log),
		Progress: progress.New(deps.DB),
	}

	app := fiber.New(fiber.Config{
		AppName:      "coursedelivery",
		ErrorHandler: middleware.ErrorHandler(deps.Log),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: middleware.RequestIDKey,
	}))

	out := deps.AccessLog
	if out == nil {
		out = os.Stdout
	}
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${locals:requestid} ${ip} ${method} ${path} ${status} ${latency}\n",
		Output: out,
	}))

	app.Use(cors.New(corsConfig(cfg.CorsOrigins)))

	app.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "OK", nil)
	})

	session := middleware.RequireSession(srv.Auth)

	authCtl := &authController.Controller{
		Auth:   srv.Auth,
		Cookie: middleware.CookieOptions{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain},
	}
	authRoutes.SetupAuthRoutes(app, authCtl, session, authLimiter(cfg.AuthRateLimit))

	courseCtl := &courseController.Controller{
		Progress: srv.Progress,
		Catalog:  srv.Catalog,
		Access:   srv.Access,
		Cache:    deps.Cache,
		CacheTTL: cfg.CacheTTL,
		Log:      deps.Log,
	}
	courseRoutes.SetupCourseRoutes(app, courseCtl, session)
	courseRoutes.SetupAdminCourseRoutes(app, courseCtl, middleware.AdminJWTMiddleware(cfg.JWTKey))

	srv.App = app
	return srv
}

// corsConfig allows credentials only for an explicit origin list; browsers
// reject credentialed responses to a wildcard origin.
func corsConfig(origins string) cors.Config {
	origins = strings.TrimSpace(origins)
	if origins == "" {
		origins = "*"
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE",
		AllowHeaders:     "Content-Type,Authorization",
		AllowCredentials: origins != "*",
	}
}

// authLimiter caps passcode requests per client IP per minute. max <= 0
// turns it off.
func authLimiter(max int) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return middleware.JsonResponse(c, fiber.StatusTooManyRequests, false, "Too many requests, try again later!", nil)
		},
	})
}
