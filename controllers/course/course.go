package courseController

import (
	"context"
	"time"

	"coursedelivery/apperr"
	"coursedelivery/cache"
	"coursedelivery/logger"
	"coursedelivery/middleware"
	"coursedelivery/models"
	"coursedelivery/models/course"
	"coursedelivery/services/access"
	"coursedelivery/services/catalog"
	"coursedelivery/services/progress"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Progress *progress.Service
	Catalog  *catalog.Service
	Access   *access.Service
	Cache    cache.Cache
	CacheTTL time.Duration
	Log      *logger.Logger
}

func idLocal(c *fiber.Ctx, key string) uint {
	id, _ := c.Locals(key).(uint)
	return id
}

// CourseOfParam resolves the course of a /courses/:courseId route.
func (ctl *Controller) CourseOfParam(c *fiber.Ctx) (uint, error) {
	id := idLocal(c, "courseId")
	if id == 0 {
		return 0, apperr.Field("courseId", "Course ID is required!")
	}
	return id, nil
}

// CourseOfClass resolves the course of a /classes/:classId route.
func (ctl *Controller) CourseOfClass(c *fiber.Ctx) (uint, error) {
	return ctl.Progress.CourseIDForClass(c.UserContext(), idLocal(c, "classId"))
}

func (ctl *Controller) courseTree(ctx context.Context, courseID uint) (*course.Course, error) {
	return cache.Fetch(ctx, ctl.Cache, cache.CourseTreeKey(courseID), ctl.CacheTTL,
		func(ctx context.Context) (*course.Course, error) {
			return ctl.Progress.LoadCourseTree(ctx, courseID)
		})
}

// invalidate drops the cached tree after a catalog write. Failures leave a
// stale tree until the TTL runs out, so they are only logged.
func (ctl *Controller) invalidate(ctx context.Context, courseIDs ...uint) {
	keys := make([]string, 0, len(courseIDs))
	for _, id := range courseIDs {
		keys = append(keys, cache.CourseTreeKey(id))
	}
	if err := ctl.Cache.Invalidate(ctx, keys...); err != nil {
		ctl.Log.Warn("Cache invalidation failed", "keys", keys, "error", err)
	}
}

// GetCourse returns the ordered course tree.
func (ctl *Controller) GetCourse(c *fiber.Ctx) error {
	tree, err := ctl.courseTree(c.UserContext(), idLocal(c, "courseId"))
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", tree)
}

// GetCourseProgress returns the caller's summary and unlock states.
func (ctl *Controller) GetCourseProgress(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	view, err := ctl.Progress.CourseProgress(c.UserContext(), user.ID, idLocal(c, "courseId"))
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course progress fetched successfully!", view)
}

// requireSelf allows a learner to act only on their own rows. Admins may read
// anyone's.
func requireSelf(c *fiber.Ctx, userID uint) (*models.User, error) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return nil, err
	}
	if user.ID != userID && user.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("You can only access your own progress!")
	}
	return user, nil
}
