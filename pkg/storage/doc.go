// Package storage persists named diagram snapshots.
//
// A [Store] maps a diagram name to a [nodel.Snapshot]. Names are validated
// with [errors.ValidateName] before they reach a backend, so they are safe
// to use as file names, Redis keys and Mongo document ids.
//
// # Backends
//
//	memory  → [MemoryStore]   process-local, used by tests and "serve --ephemeral"
//	file    → [FileStore]     one JSON file per diagram
//	sqlite  → [SQLiteStore]   a single table in a SQLite database
//	redis   → [RedisStore]    one hash per diagram plus a sorted-set index
//	mongo   → [MongoStore]    one document per diagram
//
// [Open] selects a backend from a [config.StorageConfig] and wraps it so that
// every Save and Load is reported to the observability storage hooks.
//
// # Errors
//
// Loading a name that was never saved returns an error matching both
// [ErrNotFound] (via errors.Is) and the SNAPSHOT_NOT_FOUND code. Deleting a
// missing name is not an error.
//
// Every backend stores the canonical JSON encoding produced by
// [snapshot.Marshal] and validates on load, so a snapshot returned by any
// Store can be passed straight to [nodel.Store.Load].
package storage
