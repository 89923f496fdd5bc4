// Package workflow drives an episode through the production pipeline:
// audio conditioning, transcription, content generation, publishing.
//
// The Coordinator runs the four stages sequentially against injected
// collaborators and never returns an error; the Result it produces carries
// the outcome, the per-stage payloads, and the failure when one occurred.
// Stages fail fast: once a stage fails no later collaborator is called.
//
// The Manager wraps the Coordinator for daemon use. It polls the queue,
// claims pending items, persists status transitions and progress as the run
// advances, keeps a heartbeat alive while stages execute, and stores the
// final result snapshot on the item.
package workflow
