package backupcode

import "errors"

var (
	ErrInvalidCount         = errors.New("backup code count must be at least 1")
	ErrFailedToGenerateCode = errors.New("failed to generate backup code")
	ErrNoCodesAvailable     = errors.New("no backup codes available")
	ErrIndexOutOfRange      = errors.New("backup code index out of range")
)
