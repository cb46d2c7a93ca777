package lockout

import (
	"errors"
	"fmt"
	"time"
)

// Config controls thresholds and durations of the guard.
type Config struct {
	MaxFailedAttempts int           `env:"LOCKOUT_MAX_FAILED_ATTEMPTS" envDefault:"5"`
	LockoutDuration   time.Duration `env:"LOCKOUT_DURATION" envDefault:"30m"`
	UnlockTokenTTL    time.Duration `env:"LOCKOUT_UNLOCK_TOKEN_TTL" envDefault:"24h"`
	EnableEmailUnlock bool          `env:"LOCKOUT_ENABLE_EMAIL_UNLOCK" envDefault:"true"`
}

// DefaultConfig returns the same values as the env defaults.
func DefaultConfig() Config {
	return Config{
		MaxFailedAttempts: 5,
		LockoutDuration:   30 * time.Minute,
		UnlockTokenTTL:    24 * time.Hour,
		EnableEmailUnlock: true,
	}
}

// Validate checks that every threshold is positive.
func (c Config) Validate() error {
	var errs []error
	if c.MaxFailedAttempts < 1 {
		errs = append(errs, fmt.Errorf("max failed attempts must be at least 1, got %d", c.MaxFailedAttempts))
	}
	if c.LockoutDuration <= 0 {
		errs = append(errs, fmt.Errorf("lockout duration must be positive, got %s", c.LockoutDuration))
	}
	if c.UnlockTokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("unlock token ttl must be positive, got %s", c.UnlockTokenTTL))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}
