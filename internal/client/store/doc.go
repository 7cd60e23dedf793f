// Package store is the durable side of the workspace: a small key/value
// abstraction (KV) with SQLite, Redis, S3 and in-memory backends, and the
// workspace snapshot store built on top of it.
//
// # Contract
//
// The whole work-item collection is written under one fixed key on every
// save (last write wins for the whole collection). Load returns (nil, nil)
// when nothing has been saved yet, so callers can tell a first run apart
// from a failure. Binary fields are encoded with a versioned, length-prefixed
// wire format (see codec.go); unknown fields are skipped on decode.
//
// # Backends
//
//	kv, _ := store.NewSQLiteKV(db)          // default, goose-migrated kv table
//	kv := store.NewRedisKV(client, "cc:")   // shared local redis
//	kv := store.NewS3KV(client, bucket, p)  // local S3-compatible bucket
//	ws := store.NewWorkspaceStore(kv)
package store
