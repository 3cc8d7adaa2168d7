package analysis

import (
	"time"

	"gigsnap/internal/library"
)

// RetryAfter returns the poll-interval hint, in milliseconds, for a client
// waiting on an item that is still processing. Polling starts tight and
// backs off as elapsed time grows; video pipelines run longer than photo
// ones, so their hints are doubled.
func RetryAfter(elapsed time.Duration, mediaType library.MediaType) int64 {
	var hint time.Duration
	switch {
	case elapsed < 10*time.Second:
		hint = 1 * time.Second
	case elapsed < 30*time.Second:
		hint = 2 * time.Second
	case elapsed < 2*time.Minute:
		hint = 5 * time.Second
	default:
		hint = 10 * time.Second
	}
	if mediaType == library.MediaTypeVideo {
		hint *= 2
	}
	return hint.Milliseconds()
}
