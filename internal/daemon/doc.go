// Package daemon runs the long-lived podmilld process: the queue-driven
// workflow manager, an inbox watcher that enqueues new recordings, and a
// small HTTP API for status and enqueueing. A file lock enforces a single
// daemon instance per configuration.
package daemon
