// Package workflow coordinates background media analysis.
//
// The Manager polls the library for pending media items and runs each one
// through the analysis pipeline with bounded concurrency. Items are
// independent units of work; the only shared state is each item's own
// database row, so no cross-item locking exists. On startup the manager
// fails any items orphaned in processing by a previous run, keeping the
// persisted state machine honest across restarts.
package workflow
