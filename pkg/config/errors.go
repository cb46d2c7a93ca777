package config

import (
	"errors"
	"strings"
)

var (
	ErrParsingConfig   = errors.New("failed to parse environment variables into config")
	ErrLoadingEnvFiles = errors.New("failed to load env files")
	ErrUnknownDriver   = errors.New("unknown driver")
	ErrMissingSetting  = errors.New("missing required setting")
)

// ConfigError lists every problem found while initializing.
type ConfigError struct {
	Problems []error
}

func (e *ConfigError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Error())
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

func (e *ConfigError) Unwrap() []error {
	return e.Problems
}
