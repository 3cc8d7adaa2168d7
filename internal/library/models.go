package library

import (
	"strings"
	"time"
)

// MediaType distinguishes uploaded photos from videos.
type MediaType string

const (
	MediaTypePhoto MediaType = "photo"
	MediaTypeVideo MediaType = "video"
)

// ParseMediaType converts a string into a known MediaType.
func ParseMediaType(value string) (MediaType, bool) {
	normalized := MediaType(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case MediaTypePhoto, MediaTypeVideo:
		return normalized, true
	}
	return "", false
}

// Status represents the analysis lifecycle of a media item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// CanTransition reports whether the analysis state machine allows moving from
// one status to another. Terminal states can only be left by starting a fresh
// analysis, which re-enters processing.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	case StatusCompleted, StatusFailed:
		return to == StatusProcessing
	}
	return false
}

// RestartReason is the error message set on processing items orphaned by a
// daemon restart.
const RestartReason = "Analysis interrupted by service restart"

// MediaItem is one uploaded photo or video and its analysis state.
type MediaItem struct {
	ID               string
	UserID           string
	MediaType        MediaType
	StorageKey       string
	OriginalFilename string
	TakenAt          *time.Time
	LocationLat      *float64
	LocationLng      *float64
	DurationSeconds  *float64
	ThumbnailKey     string
	AnalysisStatus   Status
	AnalysisError    string
	AIAnalysisJSON   string
	ConcertID        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsVideo reports whether the item carries video bytes.
func (m MediaItem) IsVideo() bool {
	return m.MediaType == MediaTypeVideo
}

// Venue is where a concert took place. GPS is optional; many user-entered
// venues carry only a name.
type Venue struct {
	Name string
	City string
	Lat  *float64
	Lng  *float64
}

// ConcertArtist is one performer on a concert's bill, in billing order.
type ConcertArtist struct {
	Name      string
	MBID      string
	Headliner bool
	Position  int
}

// Concert is a single entry in a user's concert history. Matching only ever
// reads these.
type Concert struct {
	ID       string
	UserID   string
	Date     time.Time
	EndDate  *time.Time
	TourName string
	Venue    *Venue
	Artists  []ConcertArtist
}

// EffectiveEnd returns the end date for multi-day events, or the start date
// for single-day concerts.
func (c Concert) EffectiveEnd() time.Time {
	if c.EndDate != nil && c.EndDate.After(c.Date) {
		return *c.EndDate
	}
	return c.Date
}

// Headliner returns the first artist flagged as headliner, or the first
// artist on the bill when none is flagged.
func (c Concert) Headliner() *ConcertArtist {
	for i := range c.Artists {
		if c.Artists[i].Headliner {
			return &c.Artists[i]
		}
	}
	if len(c.Artists) > 0 {
		return &c.Artists[0]
	}
	return nil
}
