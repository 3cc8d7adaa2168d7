// Package analysis runs the per-item identification pipeline: fetch media
// bytes, extract capture metadata, sample frames, query the vision model,
// score concert candidates, and persist the outcome.
//
// The pipeline is a persisted state machine over the media item's analysis
// status (pending, processing, completed, failed). Each stage's failure is
// contained: metadata extraction, thumbnails, and vision analysis degrade to
// "nothing found" while the pipeline continues, and only an error that
// escapes the orchestrator itself marks the item failed. Completed means the
// pipeline ran to the end, not that identification succeeded.
package analysis
