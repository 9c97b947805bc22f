package courseRoutes

import (
	courseController "coursedelivery/controllers/course"
	adminValidator "coursedelivery/validators/admin"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes mounts catalog authoring and access management
// behind the admin JWT.
func SetupAdminCourseRoutes(app *fiber.App, ctl *courseController.Controller, adminJWT fiber.Handler) {
	adminGroup := app.Group("/admin", adminJWT)

	// Course CRUD
	adminGroup.Get("/courses", ctl.AdminListCourses)
	adminGroup.Post("/courses", adminValidator.Course(), ctl.AdminCreateCourse)
	adminGroup.Put("/courses/:id", adminValidator.ID(), adminValidator.Course(), ctl.AdminUpdateCourse)
	adminGroup.Delete("/courses/:id", adminValidator.ID(), ctl.AdminDeleteCourse)

	// Module Management
	adminGroup.Post("/modules", adminValidator.Module(), ctl.AdminCreateModule)
	adminGroup.Put("/modules/:id", adminValidator.ID(), adminValidator.Module(), ctl.AdminUpdateModule)
	adminGroup.Delete("/modules/:id", adminValidator.ID(), ctl.AdminDeleteModule)

	// Topic Management
	adminGroup.Post("/topics", adminValidator.Topic(), ctl.AdminCreateTopic)
	adminGroup.Put("/topics/:id", adminValidator.ID(), adminValidator.Topic(), ctl.AdminUpdateTopic)
	adminGroup.Delete("/topics/:id", adminValidator.ID(), ctl.AdminDeleteTopic)

	// Class Management
	adminGroup.Post("/classes", adminValidator.Class(), ctl.AdminCreateClass)
	adminGroup.Put("/classes/:id", adminValidator.ID(), adminValidator.Class(), ctl.AdminUpdateClass)
	adminGroup.Delete("/classes/:id", adminValidator.ID(), ctl.AdminDeleteClass)

	// Bulk import
	adminGroup.Post("/import", ctl.AdminImportCourses)

	// Access
	adminGroup.Post("/access", adminValidator.Grant(), ctl.AdminGrantAccess)
	adminGroup.Delete("/access", adminValidator.Revoke(), ctl.AdminRevokeAccess)
}
