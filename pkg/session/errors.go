package session

import "errors"

var (
	ErrSecretMissing    = errors.New("session.secret_missing")
	ErrSecretTooShort   = errors.New("session.secret_too_short")
	ErrInvalidMaxAge    = errors.New("session.invalid_max_age")
	ErrInvalidName      = errors.New("session.invalid_cookie_name")
	ErrSessionNotFound  = errors.New("session.not_found")
	ErrSessionExpired   = errors.New("session.expired")
	ErrMalformedPayload = errors.New("session.malformed_payload")
	ErrSealFailed       = errors.New("session.seal_failed")
)
