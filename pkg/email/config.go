package email

import (
	"fmt"
	"time"
)

// Provider selects the EmailSender built by NewFromConfig.
type Provider string

const (
	ProviderDev      Provider = "dev"
	ProviderPostmark Provider = "postmark"
	ProviderSMTP     Provider = "smtp"
)

// Config holds email service configuration.
// Provider-specific fields are only checked for the selected provider.
type Config struct {
	Provider     Provider `env:"EMAIL_PROVIDER" envDefault:"dev"`
	SenderEmail  string   `env:"SENDER_EMAIL" envDefault:"noreply@securekey.local"`
	SupportEmail string   `env:"SUPPORT_EMAIL" envDefault:"support@securekey.local"`

	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`

	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string        `env:"SMTP_USERNAME"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	SMTPTLS      bool          `env:"SMTP_TLS" envDefault:"true"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`

	DevOutputDir string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// Validate checks the fields required by the selected provider.
func (c Config) Validate() error {
	if !emailRegex.MatchString(c.SenderEmail) {
		return fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if c.SupportEmail != "" && !emailRegex.MatchString(c.SupportEmail) {
		return fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}

	switch c.Provider {
	case ProviderDev:
		if c.DevOutputDir == "" {
			return fmt.Errorf("%w: DevOutputDir is required", ErrInvalidConfig)
		}
	case ProviderPostmark:
		if c.PostmarkServerToken == "" {
			return fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
		}
	case ProviderSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("%w: SMTPHost is required", ErrInvalidConfig)
		}
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			return fmt.Errorf("%w: SMTPPort %d out of range", ErrInvalidConfig, c.SMTPPort)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}
	return nil
}

// NewFromConfig builds the sender for cfg.Provider.
func NewFromConfig(cfg Config) (EmailSender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ProviderPostmark:
		pm, err := NewPostmarkClient(cfg)
		if err != nil {
			return nil, err
		}
		return pm, nil
	case ProviderSMTP:
		return NewSMTPClient(cfg)
	default:
		return NewDevSender(cfg.DevOutputDir), nil
	}
}
