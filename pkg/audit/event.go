package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/securekey/authcore/pkg/logger"
)

// Action names a recorded event.
type Action string

const (
	ActionRegistered          Action = "account.registered"
	ActionLoginSucceeded      Action = "login.succeeded"
	ActionLoginFailed         Action = "login.failed"
	ActionAccountLocked       Action = "account.locked"
	ActionAccountUnlocked     Action = "account.unlocked"
	ActionTotpEnabled         Action = "totp.enabled"
	ActionTotpDisabled        Action = "totp.disabled"
	ActionTotpVerified        Action = "totp.verified"
	ActionTotpFailed          Action = "totp.failed"
	ActionBackupCodeUsed      Action = "backup_code.used"
	ActionBackupCodeFailed    Action = "backup_code.failed"
	ActionBackupCodesReissued Action = "backup_codes.regenerated"
	ActionEmailVerified       Action = "email.verified"
	ActionAccountDeleted      Action = "account.deleted"
)

// Result is the outcome of an audited action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Event is a single audit entry.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	AccountID uuid.UUID      `json:"account_id"`
	Email     string         `json:"email,omitempty"`
	Action    Action         `json:"action"`
	Result    Result         `json:"result"`
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Validate checks the fields every store relies on.
func (e Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	if e.ID == uuid.Nil {
		return fmt.Errorf("%w: id is required", ErrEventValidation)
	}
	return nil
}

// EventOption fills in an Event during Record.
type EventOption func(*Event)

// WithAccount attributes the event to an account. The email is masked.
func WithAccount(id uuid.UUID, email string) EventOption {
	return func(e *Event) {
		e.AccountID = id
		if email != "" {
			e.Email = logger.MaskEmail(email)
		}
	}
}

func WithResult(r Result) EventOption {
	return func(e *Event) {
		e.Result = r
	}
}

// WithReason records why an attempt failed. Only sentinel error texts belong here.
func WithReason(err error) EventOption {
	return func(e *Event) {
		if err != nil {
			e.Reason = err.Error()
			e.Result = ResultFailure
		}
	}
}

func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}
