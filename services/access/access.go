// Package access grants and revokes learners' rights to open a course.
package access

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"coursedelivery/apperr"
	"coursedelivery/logger"
	"coursedelivery/models"
	"coursedelivery/models/course"
	"coursedelivery/services/auth"
	"coursedelivery/utils/email"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	StatusGranted        = "granted"
	StatusAlreadyGranted = "already-granted"
)

// Bulk grants above this size are rejected.
const maxBulk = 500

// GrantRequest is a SingleGrant or a BulkGrant.
type GrantRequest interface {
	grant()
}

// SingleGrant names the learner by email or, for existing users, by id.
type SingleGrant struct {
	Email    string `json:"email"`
	UserID   uint   `json:"userId"`
	CourseID uint   `json:"courseId"`
}

type BulkGrant struct {
	Emails   []string `json:"emails"`
	CourseID uint     `json:"courseId"`
}

func (SingleGrant) grant() {}
func (BulkGrant) grant()   {}

// DecodeGrant reads a request body tagged {"type": "single"|"bulk", ...}.
func DecodeGrant(body []byte) (GrantRequest, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &tag); err != nil {
		return nil, apperr.Validation("Invalid request body!", nil)
	}

	switch strings.ToLower(strings.TrimSpace(tag.Type)) {
	case "single":
		var req SingleGrant
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, apperr.Validation("Invalid request body!", nil)
		}
		return req, nil
	case "bulk":
		var req BulkGrant
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, apperr.Validation("Invalid request body!", nil)
		}
		return req, nil
	default:
		return nil, apperr.Field("type", "Type must be single or bulk!")
	}
}

type GrantOutcome struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

type Service struct {
	DB     *gorm.DB
	Mailer email.Mailer
	Log    *logger.Logger
	Now    func() time.Time
}

func New(db *gorm.DB, mailer email.Mailer, log *logger.Logger) *Service {
	return &Service{DB: db, Mailer: mailer, Log: log.With("component", "access"), Now: time.Now}
}

// Grant applies a request and reports one outcome per learner. Newly granted
// learners are emailed; delivery failures are only logged.
func (s *Service) Grant(ctx context.Context, req GrantRequest) ([]GrantOutcome, error) {
	var (
		courseID uint
		targets  []SingleGrant
	)
	switch r := req.(type) {
	case SingleGrant:
		if r.Email == "" && r.UserID == 0 {
			return nil, apperr.Field("email", "Email or user ID is required!")
		}
		courseID, targets = r.CourseID, []SingleGrant{r}
	case BulkGrant:
		if len(r.Emails) == 0 {
			return nil, apperr.Field("emails", "At least one email is required!")
		}
		if len(r.Emails) > maxBulk {
			return nil, apperr.Field("emails", "Too many emails in one request!")
		}
		courseID = r.CourseID
		for _, e := range r.Emails {
			targets = append(targets, SingleGrant{Email: e, CourseID: r.CourseID})
		}
	default:
		return nil, apperr.Validation("Unsupported grant request!", nil)
	}

	c, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]GrantOutcome, 0, len(targets))
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seen := map[string]bool{}
		for _, t := range targets {
			user, err := s.resolveUser(tx, t)
			if err != nil {
				return err
			}
			if seen[user.Email] {
				continue
			}
			seen[user.Email] = true

			row := models.CourseAccess{UserID: user.ID, CourseID: c.ID, GrantedAt: s.Now()}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
				DoNothing: true,
			}).Create(&row)
			if res.Error != nil {
				return res.Error
			}

			status := StatusGranted
			if res.RowsAffected == 0 {
				status = StatusAlreadyGranted
			}
			outcomes = append(outcomes, GrantOutcome{UserID: user.ID, Email: user.Email, Status: status})
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Internal(err, "granting access")
	}

	for _, o := range outcomes {
		if o.Status != StatusGranted {
			continue
		}
		if err := s.Mailer.Send(ctx, email.AccessGrantedMessage(o.Email, c.Title)); err != nil {
			s.Log.Warn("Access email failed", "email", o.Email, "course_id", c.ID, "error", err)
		}
	}
	s.Log.Info("Course access granted", "course_id", c.ID, "requested", len(targets), "outcomes", len(outcomes))
	return outcomes, nil
}

func (s *Service) loadCourse(ctx context.Context, courseID uint) (*course.Course, error) {
	if courseID == 0 {
		return nil, apperr.Field("courseId", "Course ID is required!")
	}
	var c course.Course
	err := s.DB.WithContext(ctx).Select("id", "title").First(&c, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Course not found!")
	}
	if err != nil {
		return nil, apperr.Internal(err, "loading course")
	}
	return &c, nil
}

func (s *Service) resolveUser(tx *gorm.DB, t SingleGrant) (*models.User, error) {
	var user models.User
	if t.Email == "" {
		err := tx.First(&user, t.UserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found!")
		}
		return &user, err
	}

	addr := models.NormalizeEmail(t.Email)
	if !auth.ValidEmail(addr) {
		return nil, apperr.Field("email", "Invalid email: "+t.Email)
	}
	fresh := models.User{Email: addr, Role: models.RoleUser}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&fresh).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("email = ?", addr).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Revoke removes the grant if present.
func (s *Service) Revoke(ctx context.Context, userID, courseID uint) error {
	fields := map[string]string{}
	if userID == 0 {
		fields["userId"] = "User ID is required!"
	}
	if courseID == 0 {
		fields["courseId"] = "Course ID is required!"
	}
	if len(fields) > 0 {
		return apperr.Validation("Validation failed!", fields)
	}

	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&models.CourseAccess{}).Error; err != nil {
		return apperr.Internal(err, "revoking access")
	}
	return nil
}

func (s *Service) HasAccess(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).
		Model(&models.CourseAccess{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error; err != nil {
		return false, apperr.Internal(err, "checking access")
	}
	return count > 0, nil
}
