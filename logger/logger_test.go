package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"session_token", "abc123",
		"otp_code", "4821",
		"email", "User@Example.com",
		"course_id", 7,
		"dangling",
	})

	assert.Equal(t, "[REDACTED]", out[1])
	assert.Equal(t, "[REDACTED]", out[3])
	assert.Equal(t, 7, out[7])
	assert.Equal(t, "dangling", out[8])

	hashed, ok := out[5].(string)
	assert.True(t, ok)
	assert.Contains(t, hashed, "hash:")
	assert.Equal(t, hashed, hashValue("user@example.com"), "hash is case-insensitive")
}

func TestNopLogger(t *testing.T) {
	l := NewNop().With("component", "test")
	assert.NotPanics(t, func() {
		l.Info("hello", "k", "v")
		l.Error("boom", "err", "x")
	})
}
