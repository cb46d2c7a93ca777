package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountLocked          = errors.New("account locked")
	ErrSetup                  = errors.New("two-factor setup failed")
	ErrTokenInvalidOrExpired  = errors.New("token invalid or expired")
	ErrNoBackupCodesAvailable = errors.New("no backup codes available")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrSecondFactorRequired   = errors.New("second factor required")
	ErrUnexpected             = errors.New("unexpected error")
)

var (
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrInvalidEmail         = errors.New("invalid email")
	ErrWeakPassword         = errors.New("password does not meet security requirements")
	ErrMissingCode          = errors.New("verification code is required")
	ErrMissingToken         = errors.New("token is required")
	ErrAccountNotFound      = errors.New("account not found")
	ErrTotpNotSetUp         = errors.New("totp not set up")
	ErrTotpAlreadyEnabled   = errors.New("totp already enabled")
	ErrTotpAlreadyDisabled  = errors.New("totp already disabled")
	ErrEmailAlreadyVerified = errors.New("email already verified")
	ErrEmailNotSent         = errors.New("failed to send email")
	ErrInvalidConfig        = errors.New("invalid auth config")
)

// LockedError is returned while an account is locked.
// It matches ErrAccountLocked with errors.Is.
type LockedError struct {
	MinutesRemaining int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked for %d more minutes", e.MinutesRemaining)
}

func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// PasswordError describes the first password rule a candidate fails.
type PasswordError struct {
	Reason string
}

func (e *PasswordError) Error() string {
	return e.Reason
}

func (e *PasswordError) Is(target error) bool {
	return target == ErrWeakPassword
}

// UserMessage maps an error returned by Service to text safe to show the user.
// Anything unrecognized becomes the generic unexpected-error message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var locked *LockedError
	if errors.As(err, &locked) {
		if locked.MinutesRemaining > 0 {
			return fmt.Sprintf("Account is locked due to too many failed attempts. Try again in %d minutes.", locked.MinutesRemaining)
		}
		return "Account is locked due to too many failed attempts."
	}
	var weak *PasswordError
	if errors.As(err, &weak) {
		return weak.Reason
	}

	switch {
	case errors.Is(err, ErrUnexpected):
		return "An unexpected error occurred"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, ErrAccountLocked):
		return "Account is locked due to too many failed attempts."
	case errors.Is(err, ErrSetup):
		return "Failed to set up two-factor authentication"
	case errors.Is(err, ErrTokenInvalidOrExpired):
		return "Invalid or expired token"
	case errors.Is(err, ErrNoBackupCodesAvailable):
		return "No backup codes available for this user"
	case errors.Is(err, ErrAuthenticationRequired):
		return "Authentication required"
	case errors.Is(err, ErrSecondFactorRequired):
		return "Two-factor verification required"
	case errors.Is(err, ErrEmailAlreadyExists):
		return "User already exists"
	case errors.Is(err, ErrInvalidEmail):
		return "A valid email address is required"
	case errors.Is(err, ErrWeakPassword):
		return "Password does not meet security requirements"
	case errors.Is(err, ErrMissingCode):
		return "Verification code is required"
	case errors.Is(err, ErrMissingToken):
		return "Token is required"
	case errors.Is(err, ErrAccountNotFound):
		return "User not found"
	case errors.Is(err, ErrTotpNotSetUp):
		return "TOTP not set up for this user"
	case errors.Is(err, ErrTotpAlreadyEnabled):
		return "Two-factor authentication is already enabled"
	case errors.Is(err, ErrTotpAlreadyDisabled):
		return "Two-factor authentication is already disabled"
	case errors.Is(err, ErrEmailAlreadyVerified):
		return "Email is already verified"
	case errors.Is(err, ErrEmailNotSent):
		return "Failed to send verification email"
	default:
		return "An unexpected error occurred"
	}
}
