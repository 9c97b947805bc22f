package courseController

import (
	"coursedelivery/apperr"
	"coursedelivery/middleware"
	"coursedelivery/utils"

	"github.com/gofiber/fiber/v2"
)

// AdminImportCourses loads an uploaded course sheet (multipart field "file").
func (ctl *Controller) AdminImportCourses(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperr.Field("file", "File is required!")
	}
	f, err := utils.OpenUploadedCSV(header)
	if err != nil {
		return apperr.Field("file", err.Error())
	}
	defer f.Close()

	report, err := ctl.Catalog.ImportCSV(c.UserContext(), f)
	if err != nil {
		return err
	}
	ctl.invalidate(c.UserContext(), report.CourseIDs...)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses imported successfully!", report)
}
