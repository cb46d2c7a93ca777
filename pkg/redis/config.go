package redis

import "time"

// Config holds Redis connection and lock settings.
// ConnectionURL has the form "redis://:password@localhost:6379/0".
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	LockPrefix       string        `env:"REDIS_LOCK_PREFIX" envDefault:"authcore:lock:"`
	LockTTL          time.Duration `env:"REDIS_LOCK_TTL" envDefault:"10s"`
	LockPollInterval time.Duration `env:"REDIS_LOCK_POLL_INTERVAL" envDefault:"25ms"`
}
