// Package pg stores accounts in PostgreSQL through pgx/v5.
//
// Connect opens a pgxpool.Pool with retries, Migrate applies the embedded goose migrations,
// and AccountStore implements account.Store. Updates are guarded by the version column:
// a stale write affects no row and returns account.ErrVersionConflict.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//	store := pg.NewAccountStore(pool)
//
// Nullable columns map to zero values on account.Account (empty string, zero time).
package pg
