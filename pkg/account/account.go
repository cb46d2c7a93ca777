package account

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// UnlockToken is a single-use credential that lifts a lockout before it expires on its own.
type UnlockToken struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsZero reports whether no token is issued.
func (t UnlockToken) IsZero() bool {
	return t.Value == ""
}

// Expired reports whether the token can no longer be redeemed at the given instant.
// Tokens without an expiry never expire.
func (t UnlockToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Account is the persisted user record.
// Zero time values mean "not set".
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string

	TotpSecret    string
	IsTotpEnabled bool
	BackupCodes   []string // SHA-256 hex digests

	IsEmailVerified          bool
	EmailVerificationToken   string
	EmailVerificationExpires time.Time

	FailedLoginAttempts int
	AccountLocked       bool
	AccountLockedUntil  time.Time
	UnlockToken         UnlockToken

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates an unsaved account with a fresh identifier.
func New(email, passwordHash string) Account {
	return Account{
		ID:           uuid.New(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		BackupCodes:  []string{},
	}
}

// Clone returns a deep copy, so the result shares no backing arrays with the receiver.
func (a Account) Clone() Account {
	c := a
	c.BackupCodes = slices.Clone(a.BackupCodes)
	if c.BackupCodes == nil {
		c.BackupCodes = []string{}
	}
	return c
}

// HasPendingTotpSecret reports whether a secret was generated but not yet confirmed.
func (a Account) HasPendingTotpSecret() bool {
	return a.TotpSecret != "" && !a.IsTotpEnabled
}
