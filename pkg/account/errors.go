package account

import "errors"

var (
	ErrNotFound        = errors.New("account not found")
	ErrEmailTaken      = errors.New("account email already exists")
	ErrVersionConflict = errors.New("account was modified concurrently")
	ErrEmptyToken      = errors.New("empty lookup token")
)
