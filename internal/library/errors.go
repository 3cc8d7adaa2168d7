package library

import "errors"

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("library: not found")

// ErrInvalidTransition indicates a status change the analysis state machine
// does not allow.
var ErrInvalidTransition = errors.New("library: invalid status transition")
