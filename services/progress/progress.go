// Package progress serves the course tree, class navigation and per-class
// learner progress.
package progress

import (
	"context"
	"errors"
	"time"

	"coursedelivery/apperr"
	"coursedelivery/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

func New(db *gorm.DB) *Service {
	return &Service{DB: db, Now: time.Now}
}

// ordered is the one sort used for every level of the tree. id breaks ties
// between equal display orders.
func ordered(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC").Order("id ASC")
}

// LoadCourseTree returns the course with modules, topics and classes in
// display order. Topics without a module are returned in Course.Topics.
func (s *Service) LoadCourseTree(ctx context.Context, courseID uint) (*course.Course, error) {
	if courseID == 0 {
		return nil, apperr.Field("courseId", "Course ID is required!")
	}

	var c course.Course
	err := s.DB.WithContext(ctx).
		Preload("Modules", ordered).
		Preload("Modules.Topics", ordered).
		Preload("Modules.Topics.Classes", ordered).
		Preload("Topics", func(db *gorm.DB) *gorm.DB {
			return ordered(db.Where("module_id IS NULL"))
		}).
		Preload("Topics.Classes", ordered).
		First(&c, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Course not found!")
	}
	if err != nil {
		return nil, apperr.Internal(err, "loading course tree")
	}
	return &c, nil
}

// CourseIDForClass resolves the course a class belongs to.
func (s *Service) CourseIDForClass(ctx context.Context, classID uint) (uint, error) {
	var row struct{ CourseID uint }
	err := s.DB.WithContext(ctx).
		Table("classes").
		Select("topics.course_id").
		Joins("JOIN topics ON topics.id = classes.topic_id AND topics.deleted_at IS NULL").
		Where("classes.id = ? AND classes.deleted_at IS NULL", classID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.NotFound("Class not found!")
	}
	if err != nil {
		return 0, apperr.Internal(err, "resolving class course")
	}
	return row.CourseID, nil
}

// LoadClassContext returns a class with its parents and its neighbours in the
// current module (or the whole course when it has no modules).
func (s *Service) LoadClassContext(ctx context.Context, classID uint) (*ClassContext, error) {
	if classID == 0 {
		return nil, apperr.Field("classId", "Class ID is required!")
	}

	courseID, err := s.CourseIDForClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	tree, err := s.LoadCourseTree(ctx, courseID)
	if err != nil {
		return nil, err
	}

	view, ok := Navigate(tree, classID)
	if !ok {
		// the class hangs off a topic whose module is gone
		return nil, apperr.NotFound("Class not found!")
	}
	return view, nil
}

// CourseProgressView is what the course page renders for one learner.
type CourseProgressView struct {
	Summary Summary     `json:"summary"`
	Classes []UnitState `json:"classes"`
	Modules []UnitState `json:"modules"`
}

// CourseProgress combines the tree, the learner's rows and both gating levels.
// Gating is advisory: nothing here stops a learner opening a locked class.
func (s *Service) CourseProgress(ctx context.Context, userID, courseID uint) (*CourseProgressView, error) {
	tree, err := s.LoadCourseTree(ctx, courseID)
	if err != nil {
		return nil, err
	}

	classes := Flatten(tree)
	ids := make([]uint, len(classes))
	for i, cl := range classes {
		ids[i] = cl.ID
	}

	var rows []course.UserProgress
	if len(ids) > 0 {
		if err := s.DB.WithContext(ctx).
			Where("user_id = ? AND class_id IN ?", userID, ids).
			Find(&rows).Error; err != nil {
			return nil, apperr.Internal(err, "loading course progress")
		}
	}

	completed := completedSet(rows)
	moduleDone := ModuleCompletion(tree, completed, 1)
	moduleIDs := make([]uint, len(tree.Modules))
	for i, m := range tree.Modules {
		moduleIDs[i] = m.ID
	}

	return &CourseProgressView{
		Summary: ComputeProgressSummary(tree, rows),
		Classes: ComputeUnlockState(ids, completed),
		Modules: ComputeUnlockState(moduleIDs, moduleDone),
	}, nil
}

// RecordInput is one progress ping. Pointers distinguish "not sent" from zero.
type RecordInput struct {
	UserID          uint
	ClassID         uint
	WatchedDuration *int
	LastPosition    *int
	IsCompleted     *bool
}

func (in RecordInput) validate() error {
	fields := map[string]string{}
	if in.UserID == 0 {
		fields["userId"] = "User ID is required!"
	}
	if in.ClassID == 0 {
		fields["classId"] = "Class ID is required!"
	}
	if in.WatchedDuration == nil {
		fields["watchedDuration"] = "Watched duration is required!"
	} else if *in.WatchedDuration < 0 {
		fields["watchedDuration"] = "Watched duration cannot be negative!"
	}
	if in.LastPosition != nil && *in.LastPosition < 0 {
		fields["lastPosition"] = "Last position cannot be negative!"
	}
	if len(fields) > 0 {
		return apperr.Validation("Validation failed!", fields)
	}
	return nil
}

// RecordProgress upserts the (user, class) row as one read-modify-write
// under a row lock, so concurrent pings cannot undo a completion.
func (s *Service) RecordProgress(ctx context.Context, in RecordInput) (*course.UserProgress, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.Now()

	var result course.UserProgress
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cls course.Class
		if err := tx.Select("id").First(&cls, in.ClassID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Class not found!")
			}
			return err
		}

		seed := course.UserProgress{UserID: in.UserID, ClassID: in.ClassID, LastWatchedAt: now}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "class_id"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		var row course.UserProgress
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND class_id = ?", in.UserID, in.ClassID).
			Take(&row).Error; err != nil {
			return err
		}

		result = mergeProgress(row, in, now)
		return tx.Save(&result).Error
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Internal(err, "recording progress")
	}
	return &result, nil
}

// GetProgress returns the row, or nil when the learner has not started the class.
func (s *Service) GetProgress(ctx context.Context, userID, classID uint) (*course.UserProgress, error) {
	fields := map[string]string{}
	if userID == 0 {
		fields["userId"] = "User ID is required!"
	}
	if classID == 0 {
		fields["classId"] = "Class ID is required!"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("Validation failed!", fields)
	}

	var row course.UserProgress
	err := s.DB.WithContext(ctx).Where("user_id = ? AND class_id = ?", userID, classID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "loading progress")
	}
	return &row, nil
}

// GetAllProgress lists a learner's rows, most recently watched first, each
// with its class.
func (s *Service) GetAllProgress(ctx context.Context, userID uint) ([]course.UserProgress, error) {
	if userID == 0 {
		return nil, apperr.Field("userId", "User ID is required!")
	}

	rows := []course.UserProgress{}
	if err := s.DB.WithContext(ctx).
		Preload("Class").
		Where("user_id = ?", userID).
		Order("last_watched_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, apperr.Internal(err, "loading progress")
	}
	return rows, nil
}
