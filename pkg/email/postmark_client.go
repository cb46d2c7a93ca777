package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkOption adjusts the underlying Postmark client.
type PostmarkOption func(*postmark.Client)

// WithPostmarkBaseURL points the client at another API endpoint.
func WithPostmarkBaseURL(url string) PostmarkOption {
	return func(c *postmark.Client) {
		if url != "" {
			c.BaseURL = url
		}
	}
}

// PostmarkSender delivers messages through the Postmark transactional API.
type PostmarkSender struct {
	api     *postmark.Client
	from    string
	replyTo string
}

// NewPostmarkClient validates the Postmark fields of cfg and builds a sender.
// The account token is only needed for administrative calls and may be empty.
func NewPostmarkClient(cfg Config, opts ...PostmarkOption) (*PostmarkSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}

	api := postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken)
	for _, opt := range opts {
		opt(api)
	}
	return &PostmarkSender{api: api, from: cfg.SenderEmail, replyTo: cfg.SupportEmail}, nil
}

// SendEmail implements EmailSender.
func (s *PostmarkSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := s.api.SendEmail(ctx, s.message(params))
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode != 0 {
		return fmt.Errorf("%w: postmark code %d: %s", ErrFailedToSendEmail, resp.ErrorCode, resp.Message)
	}
	return nil
}

// message never enables tracking: links carry single-use tokens.
func (s *PostmarkSender) message(p SendEmailParams) postmark.Email {
	return postmark.Email{
		From:       s.from,
		ReplyTo:    s.replyTo,
		To:         p.SendTo,
		Subject:    p.Subject,
		Tag:        p.Tag,
		HTMLBody:   p.BodyHTML,
		TrackOpens: false,
	}
}
