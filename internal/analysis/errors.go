package analysis

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure by what the user can do about it.
type Kind int

const (
	// KindUpstream covers transient dependency failures: storage outages,
	// database errors, timeouts. Worth retrying later.
	KindUpstream Kind = iota
	// KindInput covers unusable uploads. Retrying the same bytes cannot
	// succeed; the user must re-upload.
	KindInput
	// KindConfiguration covers missing or invalid deployment settings.
	// Permanent until an operator fixes the config.
	KindConfiguration
)

// PipelineError is a classified orchestration failure. The wrapped error
// keeps diagnostic detail for logs; UserMessage is what gets persisted on
// the media item.
type PipelineError struct {
	Kind Kind
	Err  error
}

func (e *PipelineError) Error() string {
	return e.Err.Error()
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// UserMessage returns the short presentable message for the failure class.
func (e *PipelineError) UserMessage() string {
	switch e.Kind {
	case KindInput:
		return "This file could not be analyzed. Try uploading it again in a standard photo or video format."
	case KindConfiguration:
		return "Analysis is not available right now due to a service configuration problem."
	default:
		return "A service needed for analysis was temporarily unavailable. Try again in a few minutes."
	}
}

func inputErrorf(format string, args ...any) error {
	return &PipelineError{Kind: KindInput, Err: fmt.Errorf(format, args...)}
}

func upstreamErrorf(format string, args ...any) error {
	return &PipelineError{Kind: KindUpstream, Err: fmt.Errorf(format, args...)}
}

func configErrorf(format string, args ...any) error {
	return &PipelineError{Kind: KindConfiguration, Err: fmt.Errorf(format, args...)}
}

// failureMessage maps any orchestration error to its persisted user-facing
// message. Unclassified errors read as upstream, the only honest default.
func failureMessage(err error) string {
	var classified *PipelineError
	if errors.As(err, &classified) {
		return classified.UserMessage()
	}
	return (&PipelineError{Kind: KindUpstream, Err: err}).UserMessage()
}
