package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
)

type smtpClient struct {
	client *mail.Client
	config Config
}

// NewSMTPClient creates an EmailSender that delivers through an SMTP relay.
// Authentication is used only when SMTPUsername is set.
func NewSMTPClient(cfg Config) (EmailSender, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("%w: SMTPHost is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}

	opts := []mail.Option{mail.WithPort(cfg.SMTPPort)}
	if cfg.SMTPTimeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.SMTPTimeout))
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	if cfg.SMTPTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	return &smtpClient{client: client, config: cfg}, nil
}

func (c *smtpClient) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	msg, err := c.message(params)
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}

	if err := c.client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	return nil
}

func (c *smtpClient) message(params SendEmailParams) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(c.config.SenderEmail); err != nil {
		return nil, err
	}
	if err := msg.To(params.SendTo); err != nil {
		return nil, err
	}
	if c.config.SupportEmail != "" {
		if err := msg.ReplyTo(c.config.SupportEmail); err != nil {
			return nil, err
		}
	}
	msg.Subject(params.Subject)
	msg.SetBodyString(mail.TypeTextHTML, params.BodyHTML)
	if params.Tag != "" {
		msg.SetGenHeader(mail.Header("X-Email-Tag"), params.Tag)
	}
	return msg, nil
}
