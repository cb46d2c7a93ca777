package cookie

import "strings"

// Attributes are the per-cookie settings a Manager writes.
// HttpOnly and SameSite=Lax are always set.
type Attributes struct {
	Path   string
	Domain string
	MaxAge int // seconds; zero makes a browser-session cookie
	Secure bool
}

type Option func(*Attributes)

func WithPath(path string) Option {
	return func(a *Attributes) { a.Path = path }
}

func WithDomain(domain string) Option {
	return func(a *Attributes) { a.Domain = domain }
}

func WithMaxAge(seconds int) Option {
	return func(a *Attributes) { a.MaxAge = seconds }
}

func WithSecure(secure bool) Option {
	return func(a *Attributes) { a.Secure = secure }
}

func (a Attributes) with(opts []Option) Attributes {
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

// Config builds a Manager from settings loaded elsewhere. Zero attributes keep the defaults.
type Config struct {
	Secrets []string
	Attributes
}

func NewFromConfig(cfg Config) (*Manager, error) {
	return New(cfg.Secrets, func(a *Attributes) {
		if cfg.Path != "" {
			a.Path = cfg.Path
		}
		if cfg.Domain != "" {
			a.Domain = cfg.Domain
		}
		if cfg.MaxAge != 0 {
			a.MaxAge = cfg.MaxAge
		}
		a.Secure = a.Secure || cfg.Secure
	})
}

// ParseSecrets splits a comma separated secret list, dropping blanks.
func ParseSecrets(raw string) []string {
	var secrets []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}
