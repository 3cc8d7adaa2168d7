// Package matching scores candidate concerts against the signals extracted
// from one media item and decides between auto-assignment and ranked
// suggestions.
//
// The capture timestamp is mandatory evidence; without it nothing matches.
// GPS plus date is near-certain proof of attendance and short-circuits to the
// top confidence tier. Everything else accumulates additively and is
// modulated, never zeroed, by the vision model's own confidence. The engine
// is a greedy per-item scorer; it does not solve a joint assignment across
// items.
package matching
