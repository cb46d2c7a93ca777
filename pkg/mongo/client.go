package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// HealthcheckTimeout bounds a check whose context carries no deadline.
const HealthcheckTimeout = 2 * time.Second

func clientOptions(cfg Config) *options.ClientOptions {
	return options.Client().
		ApplyURI(cfg.ConnectionURL).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetRetryWrites(cfg.RetryWrites).
		SetRetryReads(cfg.RetryReads)
}

// New connects to MongoDB and waits for the primary to answer a ping.
func New(ctx context.Context, cfg Config) (*mongo.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	client, err := mongo.Connect(clientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToConnectToMongo, err)
	}

	attempts := max(cfg.RetryAttempts, 1)
	for n := 1; n <= attempts; n++ {
		if err = client.Ping(ctx, readpref.Primary()); err == nil {
			return client, nil
		}
		if n == attempts {
			break
		}
		if waitErr := wait(ctx, cfg.RetryInterval); waitErr != nil {
			err = waitErr
			break
		}
	}

	_ = client.Disconnect(context.WithoutCancel(ctx))
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrFailedToConnectToMongo, attempts, err)
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewWithDatabase connects and returns the configured database handle.
func NewWithDatabase(ctx context.Context, cfg Config) (*mongo.Database, error) {
	client, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client.Database(cfg.Database), nil
}

// Healthcheck returns a check that pings the primary.
func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, HealthcheckTimeout)
			defer cancel()
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, err)
		}
		return nil
	}
}
