// Package redis connects to Redis and provides a cross-process Locker.
//
// The Locker serializes work on one key across every process sharing the server.
// Acquisition is SET NX PX with a random token; release runs a script that deletes
// the key only if the token still matches, so an expired holder cannot free a lock
// taken over by someone else.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	locker := redis.NewLocker(client, cfg)
//	unlock, err := locker.Lock(ctx, "account:"+id)
//	if err != nil {
//	    return err
//	}
//	defer unlock()
//
// Settings come from REDIS_* variables through github.com/caarlos0/env.
package redis
