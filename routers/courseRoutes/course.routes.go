package courseRoutes

import (
	courseController "coursedelivery/controllers/course"
	"coursedelivery/middleware"
	courseValidator "coursedelivery/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes mounts the learner routes. Every route needs a session;
// course and class reads also need a grant for the course.
func SetupCourseRoutes(app *fiber.App, ctl *courseController.Controller, session fiber.Handler) {
	courseAccess := middleware.RequireCourseAccess(ctl.Access, ctl.CourseOfParam)
	classAccess := middleware.RequireCourseAccess(ctl.Access, ctl.CourseOfClass)

	courseGroup := app.Group("/courses", session)
	courseGroup.Get("/:courseId", courseValidator.CourseParam(), courseAccess, ctl.GetCourse)
	courseGroup.Get("/:courseId/progress", courseValidator.CourseParam(), courseAccess, ctl.GetCourseProgress)

	classGroup := app.Group("/classes", session)
	classGroup.Get("/:classId", courseValidator.ClassParam(), classAccess, ctl.GetClass)

	progressGroup := app.Group("/progress", session)
	progressGroup.Get("/", courseValidator.GetProgress(), ctl.GetProgress)
	progressGroup.Post("/", courseValidator.RecordProgress(), ctl.RecordProgress)
	progressGroup.Get("/user/:userId", courseValidator.UserParam(), ctl.GetAllProgress)
}
