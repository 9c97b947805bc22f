package courseController

import (
	"coursedelivery/middleware"
	"coursedelivery/services/catalog"

	"github.com/gofiber/fiber/v2"
)

// ============ Courses ============

func (ctl *Controller) AdminListCourses(c *fiber.Ctx) error {
	courses, err := ctl.Catalog.ListCourses(c.UserContext())
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", courses)
}

func (ctl *Controller) AdminCreateCourse(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCourse").(*catalog.CourseInput)
	created, err := ctl.Catalog.CreateCourse(c.UserContext(), *reqData)
	if err != nil {
		return err
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", created)
}

func (ctl *Controller) AdminUpdateCourse(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCourse").(*catalog.CourseInput)
	id := idLocal(c, "id")
	updated, err := ctl.Catalog.UpdateCourse(c.UserContext(), id, *reqData)
	if err != nil {
		return err
	}
	ctl.invalidate(c.UserContext(), id)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", updated)
}

func (ctl *Controller) AdminDeleteCourse(c *fiber.Ctx) error {
	id := idLocal(c, "id")
	if err := ctl.Catalog.DeleteCourse(c.UserContext(), id); err != nil {
		return err
	}
	ctl.invalidate(c.UserContext(), id)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

// ============ Modules ============

func (ctl *Controller) AdminCreateModule(c *fiber.Ctx) error {
	reqData := c.Locals("validatedModule").(*catalog.ModuleInput)
	created, err := ctl.Catalog.CreateModule(c.UserContext(), *reqData)
	if err != nil {
		return err
	}
	ctl.invalidate(c.UserContext(), created.CourseID)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully!", created)
}

func (ctl *Controller) AdminUpdateModule(c *fiber.Ctx) error {
	reqData := c.Locals("validatedModule").(*catalog.ModuleInput)
	updated, err := ctl.Catalog.UpdateModule(c.UserContext(), idLocal(c, "id"), *reqData)
	if err != nil {
		return err
	}
	ctl.invalidate(c.UserContext(), updated.CourseID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module updated successfully!", updated)
}

func (ctl *Controller) AdminDeleteModule(c *fiber.Ctx) error {
	courseID, err := ctl.Catalog.DeleteModule(c.UserContext(), idLocal(c, "id"))
	if err != nil {
		return err
	}
	ctl.invalidate(c.UserContext(), courseID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module deleted successfully!", nil)
}

// ============ Topics ============

func (ctl *Controller) AdminCreateTopic(c *fiber.Ctx) error {
	reqData := c.Locals("validatedTopic").(*catalog.TopicInput)
	created, err := ctl.Catalog.CreateTopic(c.UserContext(), *reqData)
	if err != nil {
		return err
	}
	ctl.invalidate(c.UserContext(), created.CourseID)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Topic created successfully!", created)
}

func (ctl *Controller) AdminUpdateTopic(c *fiber.Ctx) error {
	reqData := c.Locals("validatedTopic").(*catalog.TopicInput)
	updated, err := ctl.Catalog.UpdateTopic(c.UserContext(), idLocal(c, "id"), *reqData)
	if err != nil {
		return err
	}
	ctl.invalidate(c.UserContext(), updated.CourseID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Topic updated successfully!", updated)
}

func (ctl *Controller) AdminDeleteTopic(c *fiber.Ctx) error {
	courseID, err := ctl.Catalog.DeleteTopic(c.UserContext(), idLocal(c, "id"))
	if err != nil {
		return err
	}
	ctl.invalidate(c.UserContext(), courseID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Topic deleted successfully!", nil)
}

// ============ Classes ============

func (ctl *Controller) AdminCreateClass(c *fiber.Ctx) error {
	reqData := c.Locals("validatedClass").(*catalog.ClassInput)
	created, courseID, err := ctl.Catalog.CreateClass(c.UserContext(), *reqData)
	if err != nil {
		return err
	}
	ctl.invalidate(c.UserContext(), courseID)
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Class created successfully!", created)
}

func (ctl *Controller) AdminUpdateClass(c *fiber.Ctx) error {
	reqData := c.Locals("validatedClass").(*catalog.ClassInput)
	updated, courseID, err := ctl.Catalog.UpdateClass(c.UserContext(), idLocal(c, "id"), *reqData)
	if err != nil {
		return err
	}
	ctl.invalidate(c.UserContext(), courseID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Class updated successfully!", updated)
}

func (ctl *Controller) AdminDeleteClass(c *fiber.Ctx) error {
	courseID, err := ctl.Catalog.DeleteClass(c.UserContext(), idLocal(c, "id"))
	if err != nil {
		return err
	}
	ctl.invalidate(c.UserContext(), courseID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Class deleted successfully!", nil)
}
