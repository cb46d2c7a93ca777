package account

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeEmail returns the canonical lookup form of an email address.
// Unicode case folding is used instead of ToLower so that addresses differing only by
// case-equivalent runes map to the same key.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}
