package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/securekey/authcore/pkg/cookie"
)

const (
	DefaultCookieName = "2fa_app_session"
	DefaultMaxAge     = 24 * time.Hour
	MinSecretLength   = 32
)

// Config holds session sealing settings.
type Config struct {
	Secret     string        `env:"SESSION_SECRET"`
	CookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"2fa_app_session"`
	MaxAge     time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
	Secure     bool          `env:"SESSION_SECURE" envDefault:"false"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		CookieName: DefaultCookieName,
		MaxAge:     DefaultMaxAge,
	}
}

// Secrets returns the configured secrets, newest first.
func (c Config) Secrets() []string {
	return cookie.ParseSecrets(c.Secret)
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error

	secrets := c.Secrets()
	if len(secrets) == 0 {
		errs = append(errs, ErrSecretMissing)
	}
	for i, s := range secrets {
		if len(s) < MinSecretLength {
			errs = append(errs, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), MinSecretLength))
		}
	}
	if c.MaxAge < time.Second {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidMaxAge, c.MaxAge))
	}
	if c.CookieName == "" {
		errs = append(errs, ErrInvalidName)
	}

	return errors.Join(errs...)
}

// NewFromConfig validates cfg and builds a Sealer with its own cookie manager.
func NewFromConfig(cfg Config, opts ...Option) (*Sealer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mgr, err := cookie.NewFromConfig(cookie.Config{
		Secrets: cfg.Secrets(),
		Attributes: cookie.Attributes{
			Path:   "/",
			MaxAge: int(cfg.MaxAge / time.Second),
			Secure: cfg.Secure,
		},
	})
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithCookieName(cfg.CookieName),
		WithMaxAge(cfg.MaxAge),
	}
	return New(mgr, append(base, opts...)...), nil
}
