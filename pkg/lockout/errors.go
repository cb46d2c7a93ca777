package lockout

import (
	"errors"
	"fmt"
)

var (
	ErrTokenInvalidOrExpired = errors.New("invalid or expired unlock token")
	ErrFailedToGenerateToken = errors.New("failed to generate unlock token")
	ErrInvalidConfig         = errors.New("invalid lockout configuration")
)

// TransitionError reports an event that no transition accepted in the given state.
type TransitionError struct {
	State State
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("lockout: no transition from state %q for event %q", e.State, e.Event)
}

// IsTransitionError reports whether err is a rejected transition.
func IsTransitionError(err error) bool {
	var e *TransitionError
	return errors.As(err, &e)
}
