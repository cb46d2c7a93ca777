package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	Digits       = 6  // RFC 6238 default, fixed
	Period       = 30 // seconds per time step, fixed
	Window       = 1  // accepted steps on either side of the current one
	SecretLength = 20 // 160-bit secret (RFC 4226 recommendation)

	DefaultIssuer = "SecureKey"
)

var (
	// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
	ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

	b32 = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// Secret is a freshly generated shared secret ready for enrollment.
// The caller persists Base32 on the account and shows URI (usually as a QR code).
type Secret struct {
	Bytes  []byte
	Base32 string
	URI    string
}

// TOTPParams contains the parameters for TOTP URI generation
type TOTPParams struct {
	Secret      string // Base32-encoded TOTP secret key (required)
	AccountName string // User identifier like email (required)
	Issuer      string // Service name displayed in authenticator apps (required)
}

// Validate ensures all required TOTP parameters are present and valid
func (p TOTPParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// Engine generates and verifies time-based codes.
type Engine struct {
	issuer string
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithIssuer sets the issuer shown by authenticator apps.
func WithIssuer(issuer string) Option {
	return func(e *Engine) {
		if issuer != "" {
			e.issuer = issuer
		}
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an Engine with the default issuer and the system clock.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromConfig creates an Engine using the issuer from cfg.
func NewFromConfig(cfg Config, opts ...Option) *Engine {
	return NewEngine(append([]Option{WithIssuer(cfg.Issuer)}, opts...)...)
}

// Issuer returns the configured issuer.
func (e *Engine) Issuer() string {
	return e.issuer
}

// GenerateSecret draws a new 160-bit secret and builds its provisioning URI for label.
func (e *Engine) GenerateSecret(label string) (Secret, error) {
	raw := make([]byte, SecretLength)
	if _, err := rand.Read(raw); err != nil {
		return Secret{}, errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	encoded := b32.EncodeToString(raw)

	uri, err := GetTOTPURI(TOTPParams{
		Secret:      encoded,
		AccountName: label,
		Issuer:      e.issuer,
	})
	if err != nil {
		return Secret{}, err
	}

	return Secret{Bytes: raw, Base32: encoded, URI: uri}, nil
}

// Counter returns the current time-step counter.
func (e *Engine) Counter() int64 {
	return CounterAt(e.now())
}

// Verify reports whether code matches the secret in the current step or one step either side.
// A malformed secret yields ErrInvalidSecret; a malformed code simply does not match.
func (e *Engine) Verify(code, secret string) (bool, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return false, err
	}

	counter := e.Counter()
	for i := -Window; i <= Window; i++ {
		if formatCode(GenerateHOTP(key, counter+int64(i), Digits)) == code {
			return true, nil
		}
	}
	return false, nil
}

// GetTOTPURI creates the otpauth key URI understood by authenticator apps:
// otpauth://totp/<issuer>:<account>?secret=<base32>&issuer=<issuer>
func GetTOTPURI(params TOTPParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	label := fmt.Sprintf("%s:%s",
		url.PathEscape(params.Issuer),
		url.PathEscape(params.AccountName),
	)

	return fmt.Sprintf("otpauth://totp/%s?secret=%s&issuer=%s",
		label, params.Secret, url.QueryEscape(params.Issuer)), nil
}

// CounterAt returns the time-step counter containing t.
func CounterAt(t time.Time) int64 {
	return t.Unix() / Period
}

// DecodeSecret normalizes and decodes a Base32 secret.
func DecodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimRight(strings.TrimSpace(strings.ToUpper(secret)), "=")
	if secret == "" || !ValidateSecretKeyRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	key, err := b32.DecodeString(secret)
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

// ComputeCode returns the zero-padded code of the given time-step counter.
func ComputeCode(secret string, counter int64) (string, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return "", err
	}
	return formatCode(GenerateHOTP(key, counter, Digits)), nil
}

// GenerateTOTPWithTime returns the code of the 30-second window containing t.
func GenerateTOTPWithTime(secret string, t time.Time) (string, error) {
	return ComputeCode(secret, CounterAt(t))
}

// GenerateHOTP implements RFC 4226 HMAC-based One-Time Password algorithm.
func GenerateHOTP(key []byte, counter int64, digits int) int {
	// big-endian 8-byte counter
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter = counter >> 8
	}

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes)
	hash := mac.Sum(nil)

	// Dynamic truncation: low nibble of the last byte selects 4 bytes, MSB cleared
	offset := hash[len(hash)-1] & 0x0f
	code := (int(hash[offset]&0x7f) << 24) |
		(int(hash[offset+1]) << 16) |
		(int(hash[offset+2]) << 8) |
		int(hash[offset+3])

	return code % int(math.Pow10(digits))
}

func formatCode(code int) string {
	return fmt.Sprintf("%0*d", Digits, code)
}
