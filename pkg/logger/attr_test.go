package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/securekey/authcore/pkg/logger"
)

func TestAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		want    any
	}{
		{"error", logger.Error(errors.New("boom")), "error", "boom"},
		{"user id", logger.UserID("u-1"), "user_id", "u-1"},
		{"email is masked", logger.Email("jane@example.com"), "email", "j***@example.com"},
		{"attempts", logger.Attempts(3), "attempts", int64(3)},
		{"retry count", logger.RetryCount(2), "retry_count", int64(2)},
		{"component", logger.Component("auth"), "component", "auth"},
		{"event", logger.Event("login"), "event", "login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKey, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.Any())
		})
	}
}

func TestEmptyAttrs(t *testing.T) {
	t.Parallel()

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.True(t, logger.UserID("").Equal(slog.Attr{}))
	assert.True(t, logger.Email("").Equal(slog.Attr{}))
}

func TestMaskEmail(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"jane@example.com": "j***@example.com",
		"a@b":              "a***@b",
		"no-at-sign":       "***",
		"@example.com":     "***",
	}
	for in, want := range tests {
		assert.Equal(t, want, logger.MaskEmail(in), in)
	}
}
