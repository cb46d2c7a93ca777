package session

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/securekey/authcore/pkg/cookie"
	"github.com/securekey/authcore/pkg/logger"
)

// envelope is the sealed payload.
type envelope struct {
	Data      Data  `json:"d"`
	IssuedAt  int64 `json:"iat"`
	ExpiresAt int64 `json:"exp"`
}

// Sealer turns Data into cookie values and back.
type Sealer struct {
	cookies *cookie.Manager
	name    string
	maxAge  time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Sealer.
type Option func(*Sealer)

func WithCookieName(name string) Option {
	return func(s *Sealer) {
		if name != "" {
			s.name = name
		}
	}
}

func WithMaxAge(d time.Duration) Option {
	return func(s *Sealer) {
		if d >= time.Second {
			s.maxAge = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Sealer) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sealer) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Sealer over an existing cookie manager.
func New(cookies *cookie.Manager, opts ...Option) *Sealer {
	s := &Sealer{
		cookies: cookies,
		name:    DefaultCookieName,
		maxAge:  DefaultMaxAge,
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CookieName returns the name of the session cookie.
func (s *Sealer) CookieName() string {
	return s.name
}

// MaxAge returns the session lifetime.
func (s *Sealer) MaxAge() time.Duration {
	return s.maxAge
}

// Seal encrypts d into an opaque cookie value valid for MaxAge.
func (s *Sealer) Seal(d Data) (string, error) {
	now := s.now()
	payload, err := json.Marshal(envelope{
		Data:      d,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.maxAge).Unix(),
	})
	if err != nil {
		return "", errors.Join(ErrSealFailed, err)
	}

	token, err := s.cookies.Seal(payload)
	if err != nil {
		return "", errors.Join(ErrSealFailed, err)
	}
	return token, nil
}

// UnsealStrict decrypts token and returns why it could not when it fails.
func (s *Sealer) UnsealStrict(token string) (Data, error) {
	if token == "" {
		return Data{}, ErrSessionNotFound
	}

	payload, err := s.cookies.Open(token)
	if err != nil {
		return Data{}, err
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Data{}, errors.Join(ErrMalformedPayload, err)
	}
	if env.ExpiresAt == 0 || !s.now().Before(time.Unix(env.ExpiresAt, 0)) {
		return Data{}, ErrSessionExpired
	}

	return env.Data, nil
}

// Unseal is UnsealStrict that treats every failure as a logged-out session.
func (s *Sealer) Unseal(token string) Data {
	d, err := s.UnsealStrict(token)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			s.logger.Debug("session rejected",
				logger.Component("session"),
				logger.Error(err),
			)
		}
		return Data{}
	}
	return d
}

// FromRequest unseals the session cookie of r.
func (s *Sealer) FromRequest(r *http.Request) Data {
	token, err := s.cookies.Get(r, s.name)
	if err != nil {
		return Data{}
	}
	return s.Unseal(token)
}

// SetCookieHeader renders the Set-Cookie value carrying token.
func (s *Sealer) SetCookieHeader(token string) (string, error) {
	return s.cookies.SetCookieHeader(s.name, token, cookie.WithMaxAge(int(s.maxAge/time.Second)))
}

// ClearCookieHeader renders the Set-Cookie value that ends the session.
func (s *Sealer) ClearCookieHeader() string {
	return s.cookies.ClearCookieHeader(s.name)
}

// Write seals d and sets it on w.
func (s *Sealer) Write(w http.ResponseWriter, d Data) error {
	token, err := s.Seal(d)
	if err != nil {
		return err
	}
	s.cookies.Set(w, s.name, token, cookie.WithMaxAge(int(s.maxAge/time.Second)))
	return nil
}

// Clear removes the session cookie from the client.
func (s *Sealer) Clear(w http.ResponseWriter) {
	s.cookies.Delete(w, s.name)
}
