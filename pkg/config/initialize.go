package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/securekey/authcore/pkg/totp"
)

type options struct {
	files   []string
	environ map[string]string
}

// Option configures Initialize.
type Option func(*options)

// WithEnvFiles loads the given .env files instead of the default one. Missing files are an error.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) {
		o.files = paths
	}
}

// WithEnviron parses vars instead of the process environment. No .env file is read.
func WithEnviron(vars map[string]string) Option {
	return func(o *options) {
		o.environ = vars
	}
}

// Initialize reads and validates the configuration once at process start.
// Any problem, a missing or short session secret included, is returned in a *ConfigError
// and the process must not serve requests.
func Initialize(opts ...Option) (Config, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	envOpts := env.Options{}
	if o.environ != nil {
		envOpts.Environment = o.environ
	} else if err := loadEnvFiles(o.files); err != nil {
		return Config{}, &ConfigError{Problems: []error{err}}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, envOpts); err != nil {
		return Config{}, &ConfigError{Problems: []error{errors.Join(ErrParsingConfig, err)}}
	}

	if cfg.Environment().IsProduction() {
		cfg.Session.Secure = true
	}

	if problems := validate(cfg); len(problems) > 0 {
		return Config{}, &ConfigError{Problems: problems}
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		// the default .env is optional
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrLoadingEnvFiles, err)
	}
	return nil
}

func validate(cfg Config) []error {
	var problems []error
	add := func(err error) {
		if err != nil {
			problems = append(problems, err)
		}
	}

	add(cfg.Session.Validate())
	add(cfg.Lockout.Validate())
	add(cfg.Email.Validate())
	add(cfg.Auth.Validate())

	if cfg.TOTP.EncryptionKey != "" {
		if _, err := totp.GetEncryptionKey(cfg.TOTP); err != nil {
			add(fmt.Errorf("TOTP_ENCRYPTION_KEY: %w", err))
		}
	}

	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.Postgres.ConnectionString == "" {
			add(fmt.Errorf("%w: PG_CONN_URL for STORE_DRIVER=postgres", ErrMissingSetting))
		}
	case StoreMongo:
		if cfg.Mongo.ConnectionURL == "" {
			add(fmt.Errorf("%w: MONGODB_URL for STORE_DRIVER=mongo", ErrMissingSetting))
		}
	default:
		add(fmt.Errorf("%w: STORE_DRIVER=%q", ErrUnknownDriver, cfg.Store))
	}

	switch cfg.Locker {
	case LockerMemory:
	case LockerRedis:
		if cfg.Redis.ConnectionURL == "" {
			add(fmt.Errorf("%w: REDIS_URL for LOCKER_DRIVER=redis", ErrMissingSetting))
		}
	default:
		add(fmt.Errorf("%w: LOCKER_DRIVER=%q", ErrUnknownDriver, cfg.Locker))
	}

	return problems
}
