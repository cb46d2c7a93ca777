package pg

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/securekey/authcore/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DefaultMigrationsTable records applied versions when Config.MigrationsTable is empty.
const DefaultMigrationsTable = "schema_migrations"

// Migrate applies pending embedded migrations and logs each applied version.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log *slog.Logger) error {
	provider, err := newMigrationProvider(pool, cfg)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	defer func() {
		if err := provider.Close(); err != nil {
			log.WarnContext(ctx, "failed to close migration provider", logger.Error(err))
		}
	}()

	results, err := provider.Up(ctx)
	for _, r := range results {
		log.InfoContext(ctx, "migration applied",
			slog.Int64("version", r.Source.Version),
			slog.String("file", r.Source.Path),
			slog.Duration("took", r.Duration),
		)
	}
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	if len(results) == 0 {
		log.DebugContext(ctx, "schema up to date")
	}
	return nil
}

func newMigrationProvider(pool *pgxpool.Pool, cfg Config) (*goose.Provider, error) {
	table := cfg.MigrationsTable
	if table == "" {
		table = DefaultMigrationsTable
	}
	store, err := database.NewStore(database.DialectPostgres, table)
	if err != nil {
		return nil, err
	}
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	// database/sql handle sharing the pool's connections
	db := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider("", db, sub, goose.WithStore(store))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return provider, nil
}
