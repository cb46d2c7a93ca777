package config

import (
	"github.com/securekey/authcore/pkg/audit"
	"github.com/securekey/authcore/pkg/auth"
	"github.com/securekey/authcore/pkg/email"
	"github.com/securekey/authcore/pkg/environment"
	"github.com/securekey/authcore/pkg/lockout"
	"github.com/securekey/authcore/pkg/logger"
	"github.com/securekey/authcore/pkg/mongo"
	"github.com/securekey/authcore/pkg/pg"
	"github.com/securekey/authcore/pkg/redis"
	"github.com/securekey/authcore/pkg/session"
	"github.com/securekey/authcore/pkg/totp"
)

// StoreDriver selects the account store.
type StoreDriver string

const (
	StoreMemory   StoreDriver = "memory"
	StorePostgres StoreDriver = "postgres"
	StoreMongo    StoreDriver = "mongo"
)

// LockerDriver selects how account updates are serialized.
type LockerDriver string

const (
	LockerMemory LockerDriver = "memory"
	LockerRedis  LockerDriver = "redis"
)

// Config is the complete process configuration.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"authcore"`

	Store  StoreDriver  `env:"STORE_DRIVER" envDefault:"memory"`
	Locker LockerDriver `env:"LOCKER_DRIVER" envDefault:"memory"`

	Log      logger.Config
	Session  session.Config
	TOTP     totp.Config
	Lockout  lockout.Config
	Email    email.Config
	Auth     auth.Config
	Audit    audit.Config
	Postgres pg.Config
	Mongo    mongo.Config
	Redis    redis.Config
}

// Environment returns the parsed APP_ENV.
func (c Config) Environment() environment.Environment {
	return environment.Parse(c.AppEnv)
}
