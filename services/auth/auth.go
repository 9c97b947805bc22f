// Package auth issues one-time passcodes and manages the single session each
// user may hold.
package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"coursedelivery/apperr"
	"coursedelivery/config"
	"coursedelivery/logger"
	"coursedelivery/models"
	"coursedelivery/utils"
	"coursedelivery/utils/email"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Codes are matched against at most this many live records per email.
const maxCandidates = 20

// Expired passcodes are kept this long before PurgeExpired removes them.
const otpRetention = 24 * time.Hour

type Service struct {
	DB         *gorm.DB
	Mailer     email.Mailer
	Log        *logger.Logger
	Now        func() time.Time
	OTPTTL     time.Duration
	SessionTTL time.Duration
	HashCost   int
	ExposeCode bool // return the code in SendOTP results; never in production
}

func New(db *gorm.DB, mailer email.Mailer, log *logger.Logger, cfg *config.Config) *Service {
	return &Service{
		DB:         db,
		Mailer:     mailer,
		Log:        log.With("component", "auth"),
		Now:        time.Now,
		OTPTTL:     cfg.OTPTTL,
		SessionTTL: cfg.SessionTTL,
		HashCost:   cfg.SaltRound,
		ExposeCode: !cfg.IsProduction(),
	}
}

// ValidEmail reports whether addr looks like local@domain.tld.
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}

type SendResult struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
	Code      string    `json:"code,omitempty"`
}

// SendOTP always stores a fresh passcode. Delivery problems are logged and
// do not fail the call.
func (s *Service) SendOTP(ctx context.Context, rawEmail string) (*SendResult, error) {
	addr := models.NormalizeEmail(rawEmail)
	if addr == "" {
		return nil, apperr.Field("email", "Email is required!")
	}
	if !ValidEmail(addr) {
		return nil, apperr.Field("email", "Invalid email!")
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return nil, apperr.Internal(err, "generating otp")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.HashCost)
	if err != nil {
		return nil, apperr.Internal(err, "hashing otp")
	}

	now := s.Now()
	record := models.OTP{Email: addr, CodeHash: string(hash), ExpiresAt: now.Add(s.OTPTTL)}
	record.CreatedAt = now
	if err := s.DB.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, apperr.Internal(err, "saving otp")
	}

	if err := s.Mailer.Send(ctx, email.OTPMessage(addr, code, s.OTPTTL)); err != nil {
		s.Log.Warn("OTP delivery failed", "email", addr, "otp_id", record.ID, "error", err)
	}

	res := &SendResult{Email: addr, ExpiresAt: record.ExpiresAt}
	if s.ExposeCode {
		res.Code = code
	}
	return res, nil
}

// Meta describes the client a session is issued to.
type Meta struct {
	IPAddress string
	Device    string
}

type LoginResult struct {
	User      models.User `json:"user"`
	Token     string      `json:"-"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// VerifyOTP consumes the newest live passcode matching code and replaces
// every session the user holds with a new one, in one transaction.
func (s *Service) VerifyOTP(ctx context.Context, rawEmail, code string, meta Meta) (*LoginResult, error) {
	addr := models.NormalizeEmail(rawEmail)
	code = strings.TrimSpace(code)

	fields := map[string]string{}
	if addr == "" {
		fields["email"] = "Email is required!"
	}
	if code == "" {
		fields["code"] = "OTP code is required!"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("Validation failed!", fields)
	}

	now := s.Now()
	match, err := s.findLiveOTP(ctx, addr, code, now)
	if err != nil {
		return nil, err
	}

	token, err := utils.GenerateToken()
	if err != nil {
		return nil, apperr.Internal(err, "generating session token")
	}

	var result LoginResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		consumed := tx.Model(&models.OTP{}).
			Where("id = ? AND verified = ?", match.ID, false).
			Updates(map[string]interface{}{"verified": true, "verified_at": now})
		if consumed.Error != nil {
			return consumed.Error
		}
		if consumed.RowsAffected == 0 {
			// another request spent it first
			return apperr.InvalidOrExpired()
		}

		user, err := lockUser(tx, addr, now)
		if err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		session := models.Session{
			TokenHash: utils.HashToken(token),
			UserID:    user.ID,
			ExpiresAt: now.Add(s.SessionTTL),
			IPAddress: meta.IPAddress,
			Device:    meta.Device,
		}
		session.CreatedAt = now
		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		result = LoginResult{User: *user, Token: token, ExpiresAt: session.ExpiresAt}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Internal(err, "verifying otp")
	}

	s.Log.Info("User signed in", "user_id", result.User.ID, "ip", meta.IPAddress)
	return &result, nil
}

func (s *Service) findLiveOTP(ctx context.Context, addr, code string, now time.Time) (*models.OTP, error) {
	var candidates []models.OTP
	if err := s.DB.WithContext(ctx).
		Where("email = ? AND verified = ? AND expires_at > ?", addr, false, now).
		Order("created_at DESC").Order("id DESC").
		Limit(maxCandidates).
		Find(&candidates).Error; err != nil {
		return nil, apperr.Internal(err, "loading otp")
	}
	for i := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(candidates[i].CodeHash), []byte(code)) == nil {
			return &candidates[i], nil
		}
	}
	return nil, apperr.InvalidOrExpired()
}

// lockUser finds or creates the user and holds its row lock for the rest of
// the transaction, which serialises concurrent logins for one user.
func lockUser(tx *gorm.DB, addr string, now time.Time) (*models.User, error) {
	fresh := models.User{Email: addr, Role: models.RoleUser}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&fresh).Error; err != nil {
		return nil, err
	}

	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("email = ?", addr).Take(&user).Error; err != nil {
		return nil, err
	}
	if user.EmailVerifiedAt == nil {
		user.EmailVerifiedAt = &now
	}
	user.LastLogin = &now
	if err := tx.Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetSession resolves a token to its user. Expired tokens are treated as
// unknown and are never extended.
func (s *Service) GetSession(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.Unauthenticated()
	}

	var session models.Session
	err := s.DB.WithContext(ctx).
		Preload("User").
		Where("token_hash = ? AND expires_at > ?", utils.HashToken(token), s.Now()).
		Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated()
	}
	if err != nil {
		return nil, apperr.Internal(err, "loading session")
	}
	if session.User.ID == 0 {
		// user removed after the session was issued
		return nil, apperr.Unauthenticated()
	}
	return &session.User, nil
}

// EndSession deletes the session if it exists.
func (s *Service) EndSession(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if err := s.DB.WithContext(ctx).
		Where("token_hash = ?", utils.HashToken(token)).
		Delete(&models.Session{}).Error; err != nil {
		return apperr.Internal(err, "ending session")
	}
	return nil
}

type PurgeReport struct {
	Sessions int64 `json:"sessions"`
	OTPs     int64 `json:"otps"`
}

// PurgeExpired removes expired sessions and passcodes past their retention.
func (s *Service) PurgeExpired(ctx context.Context) (PurgeReport, error) {
	now := s.Now()
	var report PurgeReport

	res := s.DB.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Session{})
	if res.Error != nil {
		return report, apperr.Internal(res.Error, "purging sessions")
	}
	report.Sessions = res.RowsAffected

	res = s.DB.WithContext(ctx).Where("expires_at <= ?", now.Add(-otpRetention)).Delete(&models.OTP{})
	if res.Error != nil {
		return report, apperr.Internal(res.Error, "purging otps")
	}
	report.OTPs = res.RowsAffected
	return report, nil
}
