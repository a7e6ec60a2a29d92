// Package kvstore provides the small key-value persistence layer the archive
// is built on.
//
// Three backends share the Store interface:
//
//   - Memory: process-local map, used by tests and ephemeral runs.
//   - File: one JSON document on disk, written atomically and guarded by an
//     OS file lock so concurrent CLI processes do not interleave writes.
//     Values must be valid JSON.
//   - SQLite: a kv table in a WAL-mode database with embedded migrations.
//
// Open selects a backend from configuration.
package kvstore
