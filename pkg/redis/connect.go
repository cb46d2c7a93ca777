package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// HealthcheckTimeout bounds a check whose context carries no deadline.
const HealthcheckTimeout = time.Second

// Connect parses cfg.ConnectionURL and waits until the server answers PING.
// Attempts are spaced by cfg.RetryInterval and the whole wait is bounded by cfg.ConnectTimeout.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToParseRedisConnString, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	// one client is reused across attempts; go-redis redials lazily
	client := redis.NewClient(opts)
	attempts := max(cfg.RetryAttempts, 1)

	var lastErr error
	for n := 1; n <= attempts; n++ {
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		if n == attempts {
			break
		}
		timer := time.NewTimer(cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = client.Close()
			return nil, fmt.Errorf("%w: %w", ErrRedisNotReady, ctx.Err())
		case <-timer.C:
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRedisNotReady, attempts, lastErr)
}

// Healthcheck returns a check that pings client.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, HealthcheckTimeout)
			defer cancel()
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, err)
		}
		return nil
	}
}
