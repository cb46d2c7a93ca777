// Package account defines the account record shared by every authentication component
// and the storage contract used to persist it.
//
// Accounts are handled as values. Components receive a snapshot, return a modified copy and
// leave persistence to the caller, so no two collaborators ever mutate the same record in place.
//
// # Storage
//
// Store implementations perform full-document writes guarded by the Version field: Save
// succeeds only when the stored version equals the version of the snapshot being written and
// increments it on success. A stale snapshot yields ErrVersionConflict. Records with a zero
// Version are inserted.
//
// MemoryStore is a process-local implementation used by tests and single-instance deployments.
// MongoDB and PostgreSQL implementations live in the mongo and pg packages.
//
// # Email addresses
//
// Lookups by email are case-insensitive. NormalizeEmail produces the canonical form used as the
// lookup key by every store.
package account
