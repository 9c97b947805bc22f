package access

import (
	"context"
	"errors"
	"testing"

	"coursedelivery/apperr"
	"coursedelivery/logger"
	"coursedelivery/models"
	"coursedelivery/testutil"
	"coursedelivery/utils/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *email.ConsoleMailer) {
	t.Helper()
	log := logger.NewNop()
	mailer := email.NewConsoleMailer(log)
	clock := testutil.NewClock()
	svc := New(testutil.NewDB(t), mailer, log)
	svc.Now = clock.Now
	return svc, mailer
}

func TestDecodeGrant(t *testing.T) {
	req, err := DecodeGrant([]byte(`{"type":"single","email":"ada@example.com","courseId":3}`))
	require.NoError(t, err)
	assert.Equal(t, SingleGrant{Email: "ada@example.com", CourseID: 3}, req)

	req, err = DecodeGrant([]byte(`{"type":"BULK","emails":["a@example.com","b@example.com"],"courseId":4}`))
	require.NoError(t, err)
	assert.Equal(t, BulkGrant{Emails: []string{"a@example.com", "b@example.com"}, CourseID: 4}, req)

	for _, body := range []string{`{"type":"group"}`, `{}`, `not json`, `{"type":"bulk","emails":"x"}`} {
		_, err := DecodeGrant([]byte(body))
		assert.True(t, apperr.Is(err, apperr.KindValidation), body)
	}
}

func TestGrantSingleIsIdempotent(t *testing.T) {
	svc, mailer := newService(t)
	ctx := context.Background()
	tree := testutil.SeedCourse(t, svc.DB, "Go", 1, 1, 1)

	out, err := svc.Grant(ctx, SingleGrant{Email: " Ada@Example.com", CourseID: tree.Course.ID})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, StatusGranted, out[0].Status)
	assert.Equal(t, "ada@example.com", out[0].Email)

	ok, err := svc.HasAccess(ctx, out[0].UserID, tree.Course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	again, err := svc.Grant(ctx, SingleGrant{UserID: out[0].UserID, CourseID: tree.Course.ID})
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyGranted, again[0].Status)

	assert.Len(t, mailer.Sent(), 1, "only new grants are emailed")
	msg, _ := mailer.Last("ada@example.com")
	assert.Contains(t, msg.Subject, "Go")
}

func TestGrantBulk(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	tree := testutil.SeedCourse(t, svc.DB, "Go", 1, 1, 1)
	existing := testutil.SeedUser(t, svc.DB, "grace@example.com")
	testutil.SeedAccess(t, svc.DB, existing.ID, tree.Course.ID)

	out, err := svc.Grant(ctx, BulkGrant{
		Emails:   []string{"ada@example.com", "GRACE@example.com", "ada@example.com", "alan@example.com"},
		CourseID: tree.Course.ID,
	})
	require.NoError(t, err)
	require.Len(t, out, 3, "duplicates collapse")
	assert.Equal(t, StatusGranted, out[0].Status)
	assert.Equal(t, StatusAlreadyGranted, out[1].Status)
	assert.Equal(t, existing.ID, out[1].UserID)
	assert.Equal(t, StatusGranted, out[2].Status)

	var users int64
	svc.DB.Model(&models.User{}).Count(&users)
	assert.EqualValues(t, 3, users)
}

func TestGrantErrors(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	tree := testutil.SeedCourse(t, svc.DB, "Go", 1, 1, 1)

	_, err := svc.Grant(ctx, SingleGrant{Email: "ada@example.com", CourseID: 999})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.Grant(ctx, SingleGrant{UserID: 999, CourseID: tree.Course.ID})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.Grant(ctx, SingleGrant{CourseID: tree.Course.ID})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Grant(ctx, BulkGrant{CourseID: tree.Course.ID})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Grant(ctx, BulkGrant{Emails: []string{"ok@example.com", "broken"}, CourseID: tree.Course.ID})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	var grants int64
	svc.DB.Model(&models.CourseAccess{}).Count(&grants)
	assert.Zero(t, grants, "a bad bulk request grants nothing")
}

func TestGrantSurvivesMailFailure(t *testing.T) {
	svc, mailer := newService(t)
	mailer.Fail = errors.New("quota exceeded")
	tree := testutil.SeedCourse(t, svc.DB, "Go", 1, 1, 1)

	out, err := svc.Grant(context.Background(), SingleGrant{Email: "ada@example.com", CourseID: tree.Course.ID})
	require.NoError(t, err)
	assert.Equal(t, StatusGranted, out[0].Status)
}

func TestRevoke(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	tree := testutil.SeedCourse(t, svc.DB, "Go", 1, 1, 1)
	user := testutil.SeedUser(t, svc.DB, "ada@example.com")
	testutil.SeedAccess(t, svc.DB, user.ID, tree.Course.ID)

	require.NoError(t, svc.Revoke(ctx, user.ID, tree.Course.ID))
	ok, err := svc.HasAccess(ctx, user.ID, tree.Course.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, svc.Revoke(ctx, user.ID, tree.Course.ID))
	assert.True(t, apperr.Is(svc.Revoke(ctx, 0, 0), apperr.KindValidation))

	out, err := svc.Grant(ctx, SingleGrant{UserID: user.ID, CourseID: tree.Course.ID})
	require.NoError(t, err)
	assert.Equal(t, StatusGranted, out[0].Status, "revoked access can be granted again")
}
