package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthcheckTimeout bounds a check whose context carries no deadline.
const HealthcheckTimeout = 2 * time.Second

// Connect opens a pool and pings it.
// Failed attempts are retried with a delay of n*RetryInterval before attempt n+1.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.ConnectionString == "" {
		return nil, ErrEmptyConnectionString
	}

	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	attempts := max(cfg.RetryAttempts, 1)
	var lastErr error
	for n := 1; n <= attempts; n++ {
		pool, err := open(ctx, poolCfg)
		if err == nil {
			return pool, nil
		}
		lastErr = err

		if n == attempts {
			break
		}
		timer := time.NewTimer(time.Duration(n) * cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w after %d attempts: %w", ErrFailedToOpenDBConnection, n, ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrFailedToOpenDBConnection, attempts, lastErr)
}

func poolConfig(cfg Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToParseDBConfig, err)
	}
	pc.MinConns = cfg.MaxIdleConns
	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = cfg.MaxOpenConns
	}
	if cfg.HealthCheckPeriod > 0 {
		pc.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	return pc, nil
}

func open(ctx context.Context, pc *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Pinger is satisfied by *pgxpool.Pool and *pgx.Conn.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthcheck returns a check that pings db.
func Healthcheck(db Pinger) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, HealthcheckTimeout)
			defer cancel()
		}
		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, err)
		}
		return nil
	}
}
