package redis

import "errors"

// Connection errors.
var (
	ErrEmptyConnectionURL           = errors.New("redis: connection URL is empty, set REDIS_URL")
	ErrFailedToParseRedisConnString = errors.New("redis: cannot parse connection URL")
	ErrRedisNotReady                = errors.New("redis: server not ready")
	ErrHealthcheckFailed            = errors.New("redis: healthcheck failed")
)

// Locker errors.
var (
	ErrEmptyLockKey = errors.New("redis: lock key is empty")
	ErrLockFailed   = errors.New("redis: lock not acquired")
)
