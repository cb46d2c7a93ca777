package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/securekey/authcore/pkg/environment"
)

// Format selects the slog handler.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config overrides the environment preset. Empty fields keep the preset.
type Config struct {
	Level  string `env:"LOG_LEVEL"`
	Format Format `env:"LOG_FORMAT"`
}

type settings struct {
	level  slog.Leveler
	format Format
	output io.Writer
	attrs  []slog.Attr
}

type Option func(*settings)

func WithLevel(l slog.Leveler) Option {
	return func(s *settings) {
		if l != nil {
			s.level = l
		}
	}
}

// WithFormat ignores formats other than FormatJSON and FormatText.
func WithFormat(f Format) Option {
	return func(s *settings) {
		if f == FormatJSON || f == FormatText {
			s.format = f
		}
	}
}

func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// WithAttr adds attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(s *settings) {
		s.attrs = append(s.attrs, attrs...)
	}
}

// preset is the level and format used for an environment unless Config overrides it.
type preset struct {
	level  slog.Level
	format Format
}

var presets = map[environment.Environment]preset{
	environment.Development: {slog.LevelDebug, FormatText},
	environment.Staging:     {slog.LevelInfo, FormatJSON},
	environment.Production:  {slog.LevelInfo, FormatJSON},
}

// New builds a JSON logger at info level on stdout unless options say otherwise.
// Records logged with a context carrying attributes from ContextWith include them.
func New(opts ...Option) *slog.Logger {
	s := settings{level: slog.LevelInfo, format: FormatJSON, output: os.Stdout}
	for _, opt := range opts {
		opt(&s)
	}

	ho := &slog.HandlerOptions{Level: s.level}
	var h slog.Handler
	if s.format == FormatText {
		h = slog.NewTextHandler(s.output, ho)
	} else {
		h = slog.NewJSONHandler(s.output, ho)
	}
	if len(s.attrs) > 0 {
		h = h.WithAttrs(s.attrs)
	}
	return slog.New(contextHandler{h})
}

// NewFromConfig applies the preset for env, tags records with service and env,
// then applies cfg and opts in that order.
func NewFromConfig(cfg Config, env, service string, opts ...Option) *slog.Logger {
	e := environment.Parse(env)
	p, ok := presets[e]
	if !ok {
		p = presets[environment.Development]
	}

	base := []Option{
		WithLevel(p.level),
		WithFormat(p.format),
		WithAttr(slog.String("service", service), slog.String("env", string(e))),
	}
	if lvl, ok := parseLevel(cfg.Level); ok {
		base = append(base, WithLevel(lvl))
	}
	base = append(base, WithFormat(cfg.Format))

	return New(append(base, opts...)...)
}

func parseLevel(s string) (slog.Level, bool) {
	var lvl slog.Level
	if strings.TrimSpace(s) == "" {
		return lvl, false
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, false
	}
	return lvl, true
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}
