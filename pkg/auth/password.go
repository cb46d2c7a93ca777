package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hasher produces and checks password digests.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) bool
}

// BcryptHasher implements Hasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when cost is out of range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Join(ErrUnexpected, err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// ValidatePassword enforces the registration policy: at least 8 characters with a lowercase
// letter, an uppercase letter, and a digit or one of !@#$%^&*(),.?":{}|<>.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return &PasswordError{Reason: "Password must be at least 8 characters"}
	}
	if len(password) > 72 {
		// bcrypt ignores everything past 72 bytes
		return &PasswordError{Reason: "Password must be at most 72 bytes"}
	}

	var lower, upper, other bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9', strings.ContainsRune(passwordSpecials, r):
			other = true
		}
	}

	switch {
	case !lower:
		return &PasswordError{Reason: "Password must contain a lowercase letter"}
	case !upper:
		return &PasswordError{Reason: "Password must contain an uppercase letter"}
	case !other:
		return &PasswordError{Reason: "Password must contain a number or special character"}
	}
	return nil
}
