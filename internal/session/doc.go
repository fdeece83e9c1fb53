// Package session persists capture sessions in SQLite and exposes helpers
// for driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, guarded state transitions, and recovery of sessions interrupted
// by a daemon restart. Sessions capture the staged artifact, its validation
// outcome, the last surfaced error, and the recording identifier returned by
// the processing pipeline.
//
// The database is treated as a local registry of capture attempts rather
// than a long-term archive; the remote services hold the authoritative
// records. Schema changes bump the version in schema.go; users clear the
// database to adopt the new schema.
//
// Treat this package as the single source of truth for session semantics;
// when you add new states or artifact fields, update schema.sql and bump
// schemaVersion.
package session
