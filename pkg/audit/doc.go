// Package audit records security-relevant account events such as failed logins,
// lockouts, unlocks and second-factor changes.
//
// A Recorder builds events and hands them to a Storage. MemoryStorage keeps a bounded
// in-process trail; pkg/pg and pkg/mongo provide durable stores. AsyncWriter batches
// events for stores that implement BatchWriter so recording does not add a round trip
// to every authentication request.
//
// Usage:
//
//	store := audit.NewMemoryStorage(1000)
//	rec := audit.NewRecorder(store)
//	_ = rec.Record(ctx, audit.ActionLoginFailed,
//		audit.WithAccount(acc.ID, acc.Email),
//		audit.WithResult(audit.ResultFailure),
//	)
//
//	events, _ := store.Query(ctx, audit.Criteria{AccountID: acc.ID})
//
// Email addresses are masked before they are stored.
package audit
