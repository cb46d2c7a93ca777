package logger

import (
	"log/slog"
	"strings"
)

// Error returns an empty attribute for a nil error, so it can be passed unconditionally.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// Email logs the address masked by MaskEmail.
func Email(email string) slog.Attr {
	if email == "" {
		return slog.Attr{}
	}
	return slog.String("email", MaskEmail(email))
}

// MaskEmail keeps the first character of the local part and the domain:
// "jane@example.com" becomes "j***@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

func Attempts(n int) slog.Attr {
	return slog.Int("attempts", n)
}

func RetryCount(n int) slog.Attr {
	return slog.Int("retry_count", n)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}
