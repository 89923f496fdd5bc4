// Package queue persists episode pipeline items in SQLite and exposes helpers
// for driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, stuck-item recovery, and status transitions
// that mirror the public workflow enum. Queue items capture progress, stage
// outputs, and review flags so the manager and CLI can coordinate without
// additional state.
//
// The database is treated as transient storage for in-flight jobs rather than
// a long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package queue
