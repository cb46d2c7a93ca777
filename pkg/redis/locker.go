package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/securekey/authcore/pkg/logger"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a mutual exclusion lock keyed by string, shared across processes through Redis.
type Locker struct {
	db           redis.UniversalClient
	prefix       string
	ttl          time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
}

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithLogger sets the logger used to report failed releases.
func WithLogger(l *slog.Logger) LockerOption {
	return func(lk *Locker) {
		if l != nil {
			lk.logger = l
		}
	}
}

// NewLocker creates a Locker using the lock settings of cfg.
func NewLocker(client redis.UniversalClient, cfg Config, opts ...LockerOption) *Locker {
	l := &Locker{
		db:           client,
		prefix:       cfg.LockPrefix,
		ttl:          cfg.LockTTL,
		pollInterval: cfg.LockPollInterval,
		logger:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.ttl <= 0 {
		l.ttl = 10 * time.Second
	}
	if l.pollInterval <= 0 {
		l.pollInterval = 25 * time.Millisecond
	}
	return l
}

// Key returns the Redis key used for name.
func (l *Locker) Key(name string) string {
	return l.prefix + name
}

// Lock blocks until the lock for key is held or ctx is done.
// The returned func releases the lock; the lock also expires after the configured TTL.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, ErrEmptyLockKey
	}

	token, err := lockToken()
	if err != nil {
		return nil, err
	}
	redisKey := l.Key(key)

	for {
		ok, err := l.db.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, errors.Join(ErrLockFailed, err)
		}
		if ok {
			return func() {
				// the caller's context may already be cancelled
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := releaseScript.Run(ctx, l.db, []string{redisKey}, token).Err(); err != nil {
					// the key still expires after the TTL
					l.logger.WarnContext(ctx, "failed to release lock",
						logger.Component("redis_locker"),
						slog.String("key", redisKey),
						logger.Error(err),
					)
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrLockFailed, ctx.Err())
		case <-time.After(l.pollInterval):
		}
	}
}

func lockToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrLockFailed, err)
	}
	return hex.EncodeToString(b), nil
}
