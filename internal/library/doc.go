// Package library persists the relational state the identification pipeline
// works against: uploaded media items with their analysis lifecycle, and each
// user's concert history with venue and artist associations.
//
// Media item analysis status moves strictly forward
// (pending -> processing -> completed|failed); the only way back is an
// explicit re-analysis request, which restarts the machine from processing.
// Concerts are read-only as far as matching is concerned.
package library
