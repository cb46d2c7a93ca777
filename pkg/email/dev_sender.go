package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
	"unicode"
)

// DevSender writes messages to a local outbox directory instead of delivering them.
// Each message produces <stem>.html with the body and <stem>.json with the envelope.
type DevSender struct {
	dir  string
	seq  atomic.Uint64
	now  func() time.Time
	perm os.FileMode
}

// NewDevSender returns a sender for dir. The directory is created on first send.
func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir, now: time.Now, perm: 0o644}
}

// Dir returns the outbox directory.
func (d *DevSender) Dir() string { return d.dir }

type outboxEnvelope struct {
	SentAt   time.Time `json:"sent_at"`
	SendTo   string    `json:"send_to"`
	Subject  string    `json:"subject"`
	Tag      string    `json:"tag,omitempty"`
	BodyFile string    `json:"body_file"`
}

// SendEmail stores params in the outbox.
func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}

	sentAt := d.now().UTC()
	stem := d.stem(sentAt, params)

	env := outboxEnvelope{
		SentAt:   sentAt,
		SendTo:   params.SendTo,
		Subject:  params.Subject,
		Tag:      params.Tag,
		BodyFile: stem + ".html",
	}
	raw, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}

	// body first so an envelope never points at a missing file
	if err := d.write(env.BodyFile, []byte(params.BodyHTML)); err != nil {
		return err
	}
	return d.write(stem+".json", raw)
}

func (d *DevSender) write(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(d.dir, name), data, d.perm); err != nil {
		return errors.Join(ErrFailedToSendEmail, fmt.Errorf("write %s: %w", name, err))
	}
	return nil
}

func (d *DevSender) stem(at time.Time, p SendEmailParams) string {
	label := p.Tag
	if label == "" {
		label = p.Subject
	}
	return fmt.Sprintf("%s-%06d-%s", at.Format("20060102T150405"), d.seq.Add(1), slug(label))
}

// slug lowercases s and keeps letters, digits, dashes and underscores.
func slug(s string) string {
	const maxLen = 64

	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "message"
	}
	return b.String()
}
