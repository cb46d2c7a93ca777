// Package mongo stores accounts in MongoDB.
//
// New connects with retries and ping verification. AccountStore implements account.Store
// on a single collection with a unique index on email and sparse indexes on the unlock
// and verification tokens. Writes use ReplaceOne filtered by _id and version, so a stale
// copy matches nothing and surfaces as account.ErrVersionConflict.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	store, err := mongo.NewAccountStore(ctx, db.Collection(cfg.Collection))
//
// Configuration is read from MONGODB_* variables.
package mongo
