package email

import "errors"

var (
	// ErrInvalidConfig is returned by Config.Validate and the sender constructors.
	ErrInvalidConfig = errors.New("email: invalid sender configuration")
	// ErrInvalidParams means the message was rejected before reaching a provider.
	ErrInvalidParams = errors.New("email: invalid message")
	// ErrFailedToSendEmail wraps provider and filesystem failures.
	ErrFailedToSendEmail = errors.New("email: delivery failed")
	ErrRenderFailed      = errors.New("email: template rendering failed")
)
