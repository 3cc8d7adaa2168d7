package matching

import (
	"math"
	"time"

	"gigsnap/internal/library"
)

const day = 24 * time.Hour

// eventDays returns the inclusive length of a concert in days; a single-day
// show is 1.
func eventDays(concert library.Concert) int {
	span := concert.EffectiveEnd().Sub(concert.Date)
	return int(math.Round(span.Hours()/24)) + 1
}

// dateBufferDays widens automatically for longer festivals: half the event
// length, never less than the minimum slop buffer.
func dateBufferDays(concert library.Concert, minBufferDays int) int {
	half := int(math.Ceil(float64(eventDays(concert)) / 2))
	if half < minBufferDays {
		return minBufferDays
	}
	return half
}

// withinEventWindow reports whether a capture timestamp falls inside the
// buffered concert window [start-buffer, end+buffer], bounds inclusive.
func withinEventWindow(takenAt time.Time, concert library.Concert, minBufferDays int) bool {
	buffer := time.Duration(dateBufferDays(concert, minBufferDays)) * day
	windowStart := concert.Date.Add(-buffer)
	windowEnd := concert.EffectiveEnd().Add(buffer)
	return !takenAt.Before(windowStart) && !takenAt.After(windowEnd)
}
