// Package catalog is the authoring side of the course tree: admin CRUD with
// cascading deletes, and CSV imports.
package catalog

import (
	"context"
	"errors"
	"strings"

	"coursedelivery/apperr"
	"coursedelivery/logger"
	"coursedelivery/models"
	"coursedelivery/models/course"
	"coursedelivery/validators"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	DB  *gorm.DB
	Log *logger.Logger
}

func New(db *gorm.DB, log *logger.Logger) *Service {
	return &Service{DB: db, Log: log.With("component", "catalog")}
}

type CourseInput struct {
	Title        string `json:"title" validate:"required,min=3,max=255"`
	Description  string `json:"description"`
	Type         string `json:"type" validate:"required,oneof=role-specific skill-based company-specific"`
	Tag          string `json:"tag" validate:"max=255"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,url"`
}

// Parent ids are fixed once a row exists; updates ignore them.

type ModuleInput struct {
	CourseID         uint     `json:"courseId" validate:"required"`
	Title            string   `json:"title" validate:"required,max=255"`
	Description      string   `json:"description"`
	Order            *int     `json:"order" validate:"omitempty,gte=0"`
	LearningOutcomes []string `json:"learningOutcomes" validate:"dive,required"`
}

type TopicInput struct {
	CourseID uint   `json:"courseId" validate:"required"`
	ModuleID *uint  `json:"moduleId"`
	Title    string `json:"title" validate:"required,max=255"`
	Order    *int   `json:"order" validate:"omitempty,gte=0"`
}

type ClassInput struct {
	TopicID     uint   `json:"topicId" validate:"required"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	ContentType string `json:"contentType" validate:"required,oneof=video text contest"`
	VideoURL    string `json:"videoUrl" validate:"omitempty,url"`
	TextContent string `json:"textContent"`
	ContestURL  string `json:"contestUrl" validate:"omitempty,url"`
	Duration    int    `json:"duration" validate:"gte=0"`
	Order       *int   `json:"order" validate:"omitempty,gte=0"`
}

func (in *CourseInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	in.Tag = strings.TrimSpace(in.Tag)
	in.ThumbnailURL = strings.TrimSpace(in.ThumbnailURL)
}

func (in *ClassInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.ContentType = strings.ToLower(strings.TrimSpace(in.ContentType))
	in.VideoURL = strings.TrimSpace(in.VideoURL)
	in.ContestURL = strings.TrimSpace(in.ContestURL)
}

// validate adds the payload rule on top of the struct tags: the field that
// matches the content type must be set.
func (in *ClassInput) validate() error {
	if err := validators.Struct(in); err != nil {
		return err
	}
	payload := map[string]string{
		course.ContentVideo:   in.VideoURL,
		course.ContentText:    strings.TrimSpace(in.TextContent),
		course.ContentContest: in.ContestURL,
	}
	if payload[in.ContentType] == "" {
		field := course.ContentField(in.ContentType)
		return apperr.Field(field, "A "+in.ContentType+" class needs "+field+"!")
	}
	return nil
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}

// wrap keeps typed errors and wraps everything else as internal.
func wrap(err error, op string) error {
	if err == nil || apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	return apperr.Internal(err, op)
}

// nextOrder is one past the largest display order among the siblings.
func nextOrder(tx *gorm.DB, model interface{}, query string, args ...interface{}) (int, error) {
	var max int
	err := tx.Model(model).Where(query, args...).Select("COALESCE(MAX(display_order), 0)").Scan(&max).Error
	return max + 1, err
}

func (s *Service) ListCourses(ctx context.Context) ([]course.Course, error) {
	courses := []course.Course{}
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&courses).Error; err != nil {
		return nil, apperr.Internal(err, "listing courses")
	}
	return courses, nil
}

func (s *Service) CreateCourse(ctx context.Context, in CourseInput) (*course.Course, error) {
	in.normalize()
	if err := validators.Struct(in); err != nil {
		return nil, err
	}
	c := course.Course{}
	applyCourse(&c, in)
	if err := s.DB.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, apperr.Internal(err, "creating course")
	}
	s.Log.Info("Course created", "course_id", c.ID)
	return &c, nil
}

func (s *Service) UpdateCourse(ctx context.Context, id uint, in CourseInput) (*course.Course, error) {
	in.normalize()
	if err := validators.Struct(in); err != nil {
		return nil, err
	}
	var c course.Course
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, wrap(notFound(err, "Course not found!"), "loading course")
	}
	applyCourse(&c, in)
	if err := s.DB.WithContext(ctx).Save(&c).Error; err != nil {
		return nil, apperr.Internal(err, "updating course")
	}
	return &c, nil
}

func applyCourse(c *course.Course, in CourseInput) {
	c.Title = in.Title
	c.Description = in.Description
	c.Type = in.Type
	c.Tag = in.Tag
	c.ThumbnailURL = in.ThumbnailURL
}

// DeleteCourse removes the course, its whole tree and every access grant.
func (s *Service) DeleteCourse(ctx context.Context, id uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c course.Course
		if err := tx.Select("id").First(&c, id).Error; err != nil {
			return notFound(err, "Course not found!")
		}
		topicIDs := tx.Model(&course.Topic{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("topic_id IN (?)", topicIDs).Delete(&course.Class{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&course.Topic{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&course.Module{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.CourseAccess{}).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
	if err != nil {
		return wrap(err, "deleting course")
	}
	s.Log.Info("Course deleted", "course_id", id)
	return nil
}

func (s *Service) CreateModule(ctx context.Context, in ModuleInput) (*course.Module, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validators.Struct(in); err != nil {
		return nil, err
	}
	var m course.Module
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		m, err = createModule(tx, in)
		return err
	})
	if err != nil {
		return nil, wrap(err, "creating module")
	}
	return &m, nil
}

func createModule(tx *gorm.DB, in ModuleInput) (course.Module, error) {
	if err := tx.Select("id").First(&course.Course{}, in.CourseID).Error; err != nil {
		return course.Module{}, notFound(err, "Course not found!")
	}
	m := course.Module{CourseID: in.CourseID}
	applyModule(&m, in)
	if in.Order == nil {
		order, err := nextOrder(tx, &course.Module{}, "course_id = ?", in.CourseID)
		if err != nil {
			return m, err
		}
		m.Order = order
	}
	err := tx.Create(&m).Error
	return m, err
}

func (s *Service) UpdateModule(ctx context.Context, id uint, in ModuleInput) (*course.Module, error) {
	var m course.Module
	if err := s.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, wrap(notFound(err, "Module not found!"), "loading module")
	}
	in.CourseID = m.CourseID
	in.Title = strings.TrimSpace(in.Title)
	if err := validators.Struct(in); err != nil {
		return nil, err
	}
	applyModule(&m, in)
	if err := s.DB.WithContext(ctx).Save(&m).Error; err != nil {
		return nil, apperr.Internal(err, "updating module")
	}
	return &m, nil
}

func applyModule(m *course.Module, in ModuleInput) {
	m.Title = in.Title
	m.Description = strings.TrimSpace(in.Description)
	if in.Order != nil {
		m.Order = *in.Order
	}
	m.LearningOutcomes = datatypes.JSONSlice[string](in.LearningOutcomes)
}

// DeleteModule removes the module with its topics and their classes and
// returns the owning course id.
func (s *Service) DeleteModule(ctx context.Context, id uint) (uint, error) {
	var m course.Module
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "course_id").First(&m, id).Error; err != nil {
			return notFound(err, "Module not found!")
		}
		topicIDs := tx.Model(&course.Topic{}).Select("id").Where("module_id = ?", id)
		if err := tx.Where("topic_id IN (?)", topicIDs).Delete(&course.Class{}).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id = ?", id).Delete(&course.Topic{}).Error; err != nil {
			return err
		}
		return tx.Delete(&m).Error
	})
	if err != nil {
		return 0, wrap(err, "deleting module")
	}
	return m.CourseID, nil
}

func (s *Service) CreateTopic(ctx context.Context, in TopicInput) (*course.Topic, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validators.Struct(in); err != nil {
		return nil, err
	}
	var t course.Topic
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		t, err = createTopic(tx, in)
		return err
	})
	if err != nil {
		return nil, wrap(err, "creating topic")
	}
	return &t, nil
}

func createTopic(tx *gorm.DB, in TopicInput) (course.Topic, error) {
	if err := tx.Select("id").First(&course.Course{}, in.CourseID).Error; err != nil {
		return course.Topic{}, notFound(err, "Course not found!")
	}
	if in.ModuleID != nil {
		var m course.Module
		if err := tx.Select("id", "course_id").First(&m, *in.ModuleID).Error; err != nil {
			return course.Topic{}, notFound(err, "Module not found!")
		}
		if m.CourseID != in.CourseID {
			return course.Topic{}, apperr.Field("moduleId", "Module belongs to another course!")
		}
	}

	t := course.Topic{CourseID: in.CourseID, ModuleID: in.ModuleID, Title: in.Title}
	if in.Order != nil {
		t.Order = *in.Order
	} else {
		var (
			order int
			err   error
		)
		if in.ModuleID != nil {
			order, err = nextOrder(tx, &course.Topic{}, "module_id = ?", *in.ModuleID)
		} else {
			order, err = nextOrder(tx, &course.Topic{}, "course_id = ? AND module_id IS NULL", in.CourseID)
		}
		if err != nil {
			return t, err
		}
		t.Order = order
	}
	err := tx.Create(&t).Error
	return t, err
}

func (s *Service) UpdateTopic(ctx context.Context, id uint, in TopicInput) (*course.Topic, error) {
	var t course.Topic
	if err := s.DB.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, wrap(notFound(err, "Topic not found!"), "loading topic")
	}
	in.CourseID = t.CourseID
	in.Title = strings.TrimSpace(in.Title)
	if err := validators.Struct(in); err != nil {
		return nil, err
	}
	t.Title = in.Title
	if in.Order != nil {
		t.Order = *in.Order
	}
	if err := s.DB.WithContext(ctx).Save(&t).Error; err != nil {
		return nil, apperr.Internal(err, "updating topic")
	}
	return &t, nil
}

// DeleteTopic removes the topic and its classes and returns the course id.
func (s *Service) DeleteTopic(ctx context.Context, id uint) (uint, error) {
	var t course.Topic
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "course_id").First(&t, id).Error; err != nil {
			return notFound(err, "Topic not found!")
		}
		if err := tx.Where("topic_id = ?", id).Delete(&course.Class{}).Error; err != nil {
			return err
		}
		return tx.Delete(&t).Error
	})
	if err != nil {
		return 0, wrap(err, "deleting topic")
	}
	return t.CourseID, nil
}

// CreateClass returns the class and the id of the course it now belongs to.
func (s *Service) CreateClass(ctx context.Context, in ClassInput) (*course.Class, uint, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, 0, err
	}
	var (
		cl       course.Class
		courseID uint
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cl, courseID, err = createClass(tx, in)
		return err
	})
	if err != nil {
		return nil, 0, wrap(err, "creating class")
	}
	return &cl, courseID, nil
}

func createClass(tx *gorm.DB, in ClassInput) (course.Class, uint, error) {
	var t course.Topic
	if err := tx.Select("id", "course_id").First(&t, in.TopicID).Error; err != nil {
		return course.Class{}, 0, notFound(err, "Topic not found!")
	}
	cl := course.Class{TopicID: in.TopicID}
	applyClass(&cl, in)
	if in.Order == nil {
		order, err := nextOrder(tx, &course.Class{}, "topic_id = ?", in.TopicID)
		if err != nil {
			return cl, 0, err
		}
		cl.Order = order
	}
	err := tx.Create(&cl).Error
	return cl, t.CourseID, err
}

func (s *Service) UpdateClass(ctx context.Context, id uint, in ClassInput) (*course.Class, uint, error) {
	var cl course.Class
	if err := s.DB.WithContext(ctx).First(&cl, id).Error; err != nil {
		return nil, 0, wrap(notFound(err, "Class not found!"), "loading class")
	}
	in.TopicID = cl.TopicID
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, 0, err
	}

	var t course.Topic
	if err := s.DB.WithContext(ctx).Select("id", "course_id").First(&t, cl.TopicID).Error; err != nil {
		return nil, 0, wrap(notFound(err, "Topic not found!"), "loading topic")
	}
	applyClass(&cl, in)
	if err := s.DB.WithContext(ctx).Save(&cl).Error; err != nil {
		return nil, 0, apperr.Internal(err, "updating class")
	}
	return &cl, t.CourseID, nil
}

// applyClass keeps only the payload field that matches the content type.
func applyClass(cl *course.Class, in ClassInput) {
	cl.Title = in.Title
	cl.Description = strings.TrimSpace(in.Description)
	cl.ContentType = in.ContentType
	cl.VideoURL, cl.TextContent, cl.ContestURL = "", "", ""
	switch in.ContentType {
	case course.ContentVideo:
		cl.VideoURL = in.VideoURL
	case course.ContentText:
		cl.TextContent = in.TextContent
	case course.ContentContest:
		cl.ContestURL = in.ContestURL
	}
	cl.Duration = in.Duration
	if in.Order != nil {
		cl.Order = *in.Order
	}
}

// DeleteClass returns the course id the class belonged to.
func (s *Service) DeleteClass(ctx context.Context, id uint) (uint, error) {
	var row struct{ CourseID uint }
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("classes").
			Select("topics.course_id").
			Joins("JOIN topics ON topics.id = classes.topic_id").
			Where("classes.id = ? AND classes.deleted_at IS NULL", id).
			Take(&row).Error; err != nil {
			return notFound(err, "Class not found!")
		}
		return tx.Delete(&course.Class{}, id).Error
	})
	if err != nil {
		return 0, wrap(err, "deleting class")
	}
	return row.CourseID, nil
}
