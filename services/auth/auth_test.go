package auth

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"coursedelivery/apperr"
	"coursedelivery/logger"
	"coursedelivery/models"
	"coursedelivery/testutil"
	"coursedelivery/utils/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	svc    *Service
	mailer *email.ConsoleMailer
	clock  *testutil.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewNop()
	mailer := email.NewConsoleMailer(log)
	clock := testutil.NewClock()
	svc := &Service{
		DB:         testutil.NewDB(t),
		Mailer:     mailer,
		Log:        log,
		Now:        clock.Now,
		OTPTTL:     10 * time.Minute,
		SessionTTL: 30 * 24 * time.Hour,
		HashCost:   bcrypt.MinCost,
		ExposeCode: true,
	}
	return &fixture{svc: svc, mailer: mailer, clock: clock}
}

var codeInMail = regexp.MustCompile(`\b\d{4}\b`)

// mailedCode reads the passcode from the last email rather than the result.
func (f *fixture) mailedCode(t *testing.T, addr string) string {
	t.Helper()
	msg, ok := f.mailer.Last(addr)
	require.True(t, ok, "no email to %s", addr)
	code := codeInMail.FindString(msg.Text)
	require.NotEmpty(t, code)
	return code
}

func (f *fixture) login(t *testing.T, addr string) *LoginResult {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.SendOTP(ctx, addr)
	require.NoError(t, err)
	res, err := f.svc.VerifyOTP(ctx, addr, f.mailedCode(t, addr), Meta{IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	return res
}

func TestSendOTPValidatesEmail(t *testing.T) {
	f := newFixture(t)

	for _, in := range []string{"", "   ", "nope", "a@b", "a b@example.com"} {
		_, err := f.svc.SendOTP(context.Background(), in)
		require.Error(t, err, in)
		assert.True(t, apperr.Is(err, apperr.KindValidation), in)
	}
	assert.Empty(t, f.mailer.Sent())
}

func TestSendOTPStoresHashedCode(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.SendOTP(context.Background(), "  Ada@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.Email)
	assert.Equal(t, f.clock.Now().Add(10*time.Minute), res.ExpiresAt)
	assert.Len(t, res.Code, 4)
	assert.Equal(t, res.Code, f.mailedCode(t, "ada@example.com"))

	var stored models.OTP
	require.NoError(t, f.svc.DB.Take(&stored).Error)
	assert.NotEqual(t, res.Code, stored.CodeHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.CodeHash), []byte(res.Code)))
}

func TestSendOTPHidesCodeWhenNotExposed(t *testing.T) {
	f := newFixture(t)
	f.svc.ExposeCode = false

	res, err := f.svc.SendOTP(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Empty(t, res.Code)
}

func TestSendOTPSucceedsWhenDeliveryFails(t *testing.T) {
	f := newFixture(t)
	f.mailer.Fail = errors.New("smtp down")

	res, err := f.svc.SendOTP(context.Background(), "ada@example.com")
	require.NoError(t, err)

	var count int64
	f.svc.DB.Model(&models.OTP{}).Count(&count)
	assert.EqualValues(t, 1, count)

	_, err = f.svc.VerifyOTP(context.Background(), "ada@example.com", res.Code, Meta{})
	assert.NoError(t, err)
}

func TestVerifyOTPCreatesUserAndSession(t *testing.T) {
	f := newFixture(t)

	res := f.login(t, "Ada@example.com")
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, models.RoleUser, res.User.Role)
	require.NotNil(t, res.User.EmailVerifiedAt)
	require.NotNil(t, res.User.LastLogin)
	assert.Len(t, res.Token, 64)
	assert.Equal(t, f.clock.Now().Add(30*24*time.Hour), res.ExpiresAt)

	user, err := f.svc.GetSession(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)

	var session models.Session
	require.NoError(t, f.svc.DB.Take(&session).Error)
	assert.NotEqual(t, res.Token, session.TokenHash)
	assert.Equal(t, "127.0.0.1", session.IPAddress)
}

func TestVerifyOTPIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sent, err := f.svc.SendOTP(ctx, "ada@example.com")
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(ctx, "ada@example.com", sent.Code, Meta{})
	require.NoError(t, err)

	_, err = f.svc.VerifyOTP(ctx, "ada@example.com", sent.Code, Meta{})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidOrExpired))
}

func TestVerifyOTPExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sent, err := f.svc.SendOTP(ctx, "ada@example.com")
	require.NoError(t, err)

	f.clock.Advance(10*time.Minute + time.Second)
	_, err = f.svc.VerifyOTP(ctx, "ada@example.com", sent.Code, Meta{})
	assert.True(t, apperr.Is(err, apperr.KindInvalidOrExpired))
}

func TestVerifyOTPRejectsWrongCodeAndEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sent, err := f.svc.SendOTP(ctx, "ada@example.com")
	require.NoError(t, err)

	wrong := "0000"
	if sent.Code == wrong {
		wrong = "1111"
	}
	_, err = f.svc.VerifyOTP(ctx, "ada@example.com", wrong, Meta{})
	assert.True(t, apperr.Is(err, apperr.KindInvalidOrExpired))

	_, err = f.svc.VerifyOTP(ctx, "grace@example.com", sent.Code, Meta{})
	assert.True(t, apperr.Is(err, apperr.KindInvalidOrExpired))

	_, err = f.svc.VerifyOTP(ctx, "", "", Meta{})
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "email")
	assert.Contains(t, appErr.Fields, "code")

	_, err = f.svc.VerifyOTP(ctx, "ada@example.com", sent.Code, Meta{})
	assert.NoError(t, err, "failed attempts do not burn the code")
}

func TestVerifyOTPAcceptsOlderLiveCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.SendOTP(ctx, "ada@example.com")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.svc.SendOTP(ctx, "ada@example.com")
	require.NoError(t, err)
	if first.Code == second.Code {
		t.Skip("random codes collided")
	}

	_, err = f.svc.VerifyOTP(ctx, "ada@example.com", first.Code, Meta{})
	require.NoError(t, err)
	_, err = f.svc.VerifyOTP(ctx, "ada@example.com", second.Code, Meta{})
	require.NoError(t, err)
}

func TestVerifyOTPConcurrentUseSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sent, err := f.svc.SendOTP(ctx, "ada@example.com")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.VerifyOTP(ctx, "ada@example.com", sent.Code, Meta{}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestLoginReplacesPreviousSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.login(t, "ada@example.com")
	f.clock.Advance(time.Minute)
	second := f.login(t, "ada@example.com")
	assert.Equal(t, first.User.ID, second.User.ID)

	_, err := f.svc.GetSession(ctx, first.Token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	_, err = f.svc.GetSession(ctx, second.Token)
	assert.NoError(t, err)

	var count int64
	f.svc.DB.Model(&models.Session{}).Where("user_id = ?", second.User.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	var users int64
	f.svc.DB.Model(&models.User{}).Count(&users)
	assert.EqualValues(t, 1, users)
}

func TestVerifyOTPKeepsFirstVerification(t *testing.T) {
	f := newFixture(t)

	first := f.login(t, "ada@example.com")
	verifiedAt := *first.User.EmailVerifiedAt
	f.clock.Advance(time.Hour)
	second := f.login(t, "ada@example.com")

	assert.Equal(t, verifiedAt.Unix(), second.User.EmailVerifiedAt.Unix())
	assert.Equal(t, f.clock.Now().Unix(), second.User.LastLogin.Unix())
}

func TestGetSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.login(t, "ada@example.com")

	for _, token := range []string{"", "  ", "deadbeef"} {
		_, err := f.svc.GetSession(ctx, token)
		assert.True(t, apperr.Is(err, apperr.KindUnauthenticated), token)
	}

	f.clock.Advance(30*24*time.Hour - time.Second)
	_, err := f.svc.GetSession(ctx, res.Token)
	assert.NoError(t, err)

	f.clock.Advance(time.Second)
	_, err = f.svc.GetSession(ctx, res.Token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestLoginAfterUserRemoved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.login(t, "ada@example.com")

	require.NoError(t, f.svc.DB.Delete(&models.User{}, first.User.ID).Error)
	_, err := f.svc.GetSession(ctx, first.Token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated), "session of a removed user is dead")

	again := f.login(t, "ada@example.com")
	assert.NotEqual(t, first.User.ID, again.User.ID)
	user, err := f.svc.GetSession(ctx, again.Token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestEndSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.login(t, "ada@example.com")

	require.NoError(t, f.svc.EndSession(ctx, res.Token))
	_, err := f.svc.GetSession(ctx, res.Token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	assert.NoError(t, f.svc.EndSession(ctx, res.Token))
	assert.NoError(t, f.svc.EndSession(ctx, ""))
}

func TestPurgeExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.login(t, "ada@example.com")
	_, err := f.svc.SendOTP(ctx, "grace@example.com")
	require.NoError(t, err)

	report, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, PurgeReport{}, report)

	f.clock.Advance(31 * 24 * time.Hour)
	report, err = f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, report.Sessions)
	assert.EqualValues(t, 2, report.OTPs)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("first.last+tag@sub.example.org"))
	assert.False(t, ValidEmail("first@example"))
	assert.False(t, ValidEmail("@example.com"))
}
