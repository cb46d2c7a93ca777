package auth

import (
	"errors"
	"net/url"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds orchestrator settings.
type Config struct {
	BaseURL          string        `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	UnlockPath       string        `env:"AUTH_UNLOCK_PATH" envDefault:"/account/unlock"`
	VerifyEmailPath  string        `env:"AUTH_VERIFY_EMAIL_PATH" envDefault:"/verify-email"`
	BackupCodeCount  int           `env:"AUTH_BACKUP_CODE_COUNT" envDefault:"10"`
	VerificationTTL  time.Duration `env:"AUTH_VERIFICATION_TTL" envDefault:"24h"`
	BcryptCost       int           `env:"AUTH_BCRYPT_COST" envDefault:"10"`
	ConflictRetries  int           `env:"AUTH_CONFLICT_RETRIES" envDefault:"3"`
	EmailSendTimeout time.Duration `env:"AUTH_EMAIL_SEND_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig returns the values used when no environment is provided.
func DefaultConfig() Config {
	return Config{
		BaseURL:          "http://localhost:3000",
		UnlockPath:       "/account/unlock",
		VerifyEmailPath:  "/verify-email",
		BackupCodeCount:  10,
		VerificationTTL:  24 * time.Hour,
		BcryptCost:       10,
		ConflictRetries:  3,
		EmailSendTimeout: 10 * time.Second,
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, errors.New("APP_BASE_URL must be an absolute URL"))
	}
	if c.BackupCodeCount < 1 {
		errs = append(errs, errors.New("AUTH_BACKUP_CODE_COUNT must be positive"))
	}
	if c.VerificationTTL <= 0 {
		errs = append(errs, errors.New("AUTH_VERIFICATION_TTL must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, errors.New("AUTH_BCRYPT_COST is out of range"))
	}
	if c.ConflictRetries < 0 {
		errs = append(errs, errors.New("AUTH_CONFLICT_RETRIES must not be negative"))
	}
	if len(errs) > 0 {
		return errors.Join(ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (c Config) link(path, token string) string {
	return c.BaseURL + path + "?token=" + url.QueryEscape(token)
}
