package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"coursedelivery/apperr"
	"coursedelivery/models/course"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var requiredColumns = []string{"course_title", "topic_title", "class_title", "content_type"}

type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportReport counts the rows an import created. Existing rows matched by
// title are reused and classes are updated in place.
type ImportReport struct {
	BatchID   string     `json:"batchId"`
	Courses   int        `json:"courses"`
	Modules   int        `json:"modules"`
	Topics    int        `json:"topics"`
	Classes   int        `json:"classes"`
	Updated   int        `json:"updated"`
	Skipped   int        `json:"skipped"`
	Errors    []RowError `json:"errors"`
	CourseIDs []uint     `json:"courseIds"`
}

// ImportCSV loads a header-indexed course sheet in one transaction. Invalid
// rows are skipped and reported; database failures abort the whole import.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperr.Validation("CSV file is empty!", nil)
	}
	if err != nil {
		return nil, apperr.Validation("Invalid CSV: "+err.Error(), nil)
	}
	headerIndex := make(map[string]int, len(header))
	for i, h := range header {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}
	missing := map[string]string{}
	for _, col := range requiredColumns {
		if _, ok := headerIndex[col]; !ok {
			missing[col] = "Column is required!"
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("CSV header is incomplete!", missing)
	}

	report := &ImportReport{BatchID: uuid.NewString(), Errors: []RowError{}, CourseIDs: []uint{}}
	log := s.Log.With("batch_id", report.BatchID)

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		im := importer{tx: tx, report: report, courses: map[string]uint{}, modules: map[string]uint{}, topics: map[string]uint{}}
		for line := 2; ; line++ {
			row, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				report.skip(line, err.Error())
				continue
			}
			get := func(col string) string { return getField(row, headerIndex, col) }
			if err := im.row(get); err != nil {
				if apperr.KindOf(err) == apperr.KindInternal {
					return err
				}
				report.skip(line, reason(err))
			}
		}
	})
	if err != nil {
		return nil, apperr.Internal(err, "importing courses")
	}

	log.Info("Course import complete",
		"courses", report.Courses, "modules", report.Modules, "topics", report.Topics,
		"classes", report.Classes, "updated", report.Updated, "skipped", report.Skipped)
	return report, nil
}

func (r *ImportReport) skip(line int, why string) {
	r.Skipped++
	r.Errors = append(r.Errors, RowError{Row: line, Reason: why})
}

func rowError(msg string) error {
	return apperr.Validation(msg, nil)
}

func reason(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
		parts := make([]string, 0, len(appErr.Fields))
		for field, msg := range appErr.Fields {
			parts = append(parts, field+": "+msg)
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}

// importer caches ids resolved earlier in the same file.
type importer struct {
	tx      *gorm.DB
	report  *ImportReport
	courses map[string]uint
	modules map[string]uint
	topics  map[string]uint
}

func (im *importer) row(get func(string) string) error {
	courseTitle := get("course_title")
	topicTitle := get("topic_title")
	classTitle := get("class_title")
	if courseTitle == "" || topicTitle == "" || classTitle == "" {
		return rowError("course_title, topic_title and class_title are required")
	}

	order := func(col string) (*int, error) {
		raw := get(col)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return nil, rowError(col + " must be a non-negative number")
		}
		return &v, nil
	}
	moduleOrder, err := order("module_order")
	if err != nil {
		return err
	}
	topicOrder, err := order("topic_order")
	if err != nil {
		return err
	}
	classOrder, err := order("class_order")
	if err != nil {
		return err
	}
	duration := 0
	if raw := get("duration"); raw != "" {
		if duration, err = strconv.Atoi(raw); err != nil {
			return rowError("duration must be a number of seconds")
		}
	}

	cls := ClassInput{
		Title:       classTitle,
		ContentType: get("content_type"),
		Duration:    duration,
		Order:       classOrder,
	}
	cls.normalize()
	switch cls.ContentType {
	case course.ContentVideo:
		cls.VideoURL = get("content")
	case course.ContentText:
		cls.TextContent = get("content")
	case course.ContentContest:
		cls.ContestURL = get("content")
	}
	// TopicID is filled in below; validate the rest first so a bad row
	// creates nothing.
	cls.TopicID = 1
	if err := cls.validate(); err != nil {
		return err
	}

	courseID, err := im.course(courseTitle, get("course_type"), get("course_tag"))
	if err != nil {
		return err
	}

	var moduleID *uint
	if title := get("module_title"); title != "" {
		id, err := im.module(courseID, title, moduleOrder)
		if err != nil {
			return err
		}
		moduleID = &id
	}

	topicID, err := im.topic(courseID, moduleID, topicTitle, topicOrder)
	if err != nil {
		return err
	}
	cls.TopicID = topicID
	return im.class(cls)
}

func (im *importer) course(title, kind, tag string) (uint, error) {
	key := strings.ToLower(title)
	if id, ok := im.courses[key]; ok {
		return id, nil
	}

	var c course.Course
	err := im.tx.Where("LOWER(title) = ?", key).Order("id ASC").Take(&c).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		in := CourseInput{Title: title, Type: kind, Tag: tag}
		if in.Type == "" {
			in.Type = course.TypeSkillBased
		}
		in.normalize()
		if !course.ValidCourseType(in.Type) {
			return 0, apperr.Field("course_type", "Unknown course type "+kind)
		}
		applyCourse(&c, in)
		if err := im.tx.Create(&c).Error; err != nil {
			return 0, err
		}
		im.report.Courses++
	default:
		return 0, err
	}

	im.courses[key] = c.ID
	im.report.CourseIDs = append(im.report.CourseIDs, c.ID)
	return c.ID, nil
}

func (im *importer) module(courseID uint, title string, order *int) (uint, error) {
	key := fmt.Sprintf("%d/%s", courseID, strings.ToLower(title))
	if id, ok := im.modules[key]; ok {
		return id, nil
	}

	var m course.Module
	err := im.tx.Where("course_id = ? AND LOWER(title) = ?", courseID, strings.ToLower(title)).Order("id ASC").Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		m, err = createModule(im.tx, ModuleInput{CourseID: courseID, Title: title, Order: order})
		if err == nil {
			im.report.Modules++
		}
	}
	if err != nil {
		return 0, err
	}
	im.modules[key] = m.ID
	return m.ID, nil
}

func (im *importer) topic(courseID uint, moduleID *uint, title string, order *int) (uint, error) {
	scope := "-"
	q := im.tx.Where("course_id = ? AND LOWER(title) = ?", courseID, strings.ToLower(title))
	if moduleID != nil {
		scope = strconv.FormatUint(uint64(*moduleID), 10)
		q = q.Where("module_id = ?", *moduleID)
	} else {
		q = q.Where("module_id IS NULL")
	}
	key := fmt.Sprintf("%d/%s/%s", courseID, scope, strings.ToLower(title))
	if id, ok := im.topics[key]; ok {
		return id, nil
	}

	var t course.Topic
	err := q.Order("id ASC").Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		t, err = createTopic(im.tx, TopicInput{CourseID: courseID, ModuleID: moduleID, Title: title, Order: order})
		if err == nil {
			im.report.Topics++
		}
	}
	if err != nil {
		return 0, err
	}
	im.topics[key] = t.ID
	return t.ID, nil
}

func (im *importer) class(in ClassInput) error {
	var existing course.Class
	err := im.tx.Where("topic_id = ? AND LOWER(title) = ?", in.TopicID, strings.ToLower(in.Title)).Order("id ASC").Take(&existing).Error
	switch {
	case err == nil:
		applyClass(&existing, in)
		if err := im.tx.Save(&existing).Error; err != nil {
			return err
		}
		im.report.Updated++
	case errors.Is(err, gorm.ErrRecordNotFound):
		if _, _, err := createClass(im.tx, in); err != nil {
			return err
		}
		im.report.Classes++
	default:
		return err
	}
	return nil
}

// getField safely gets a field from the row by header name
func getField(row []string, headerIndex map[string]int, field string) string {
	if idx, ok := headerIndex[field]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
