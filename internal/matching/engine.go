package matching

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"gigsnap/internal/library"
	"gigsnap/internal/logging"
)

// VisualSignals carries what the vision model detected, already reduced to
// the fields matching cares about. All names may be empty; absence of a
// detection is a normal outcome.
type VisualSignals struct {
	ArtistName        string
	ArtistConfidence  float64
	VenueName         string
	VenueCity         string
	VenueConfidence   float64
	TourName          string
	OverallConfidence float64
}

// Signals is everything known about one media item before scoring.
type Signals struct {
	UserID  string
	TakenAt *time.Time
	Lat     *float64
	Lng     *float64
	Visual  *VisualSignals
}

// Match is one scored candidate concert.
type Match struct {
	ConcertID   string  `json:"concertId"`
	Confidence  float64 `json:"confidence"`
	GPSMatch    bool    `json:"gpsMatch"`
	DateMatch   bool    `json:"dateMatch"`
	VenueMatch  bool    `json:"venueMatch"`
	ArtistMatch bool    `json:"artistMatch"`
	MatchedVia  string  `json:"matchedVia"`
}

// Result is the engine's decision for one media item.
type Result struct {
	AutoMatched *Match  `json:"autoMatched,omitempty"`
	Suggestions []Match `json:"suggestions"`
}

// Engine scores candidate concerts for media items.
type Engine struct {
	policy Policy
	logger *slog.Logger
}

// NewEngine constructs an Engine with the supplied policy; zero policy fields
// take the documented defaults.
func NewEngine(policy Policy, logger *slog.Logger) *Engine {
	return &Engine{
		policy: policy.normalized(),
		logger: logging.NewComponentLogger(logger, "matching"),
	}
}

// Evaluate scores every candidate concert against the signals and splits the
// outcome into an auto-match and ranked suggestions. Candidates should come
// pre-filtered to a rough window around the capture date; Evaluate applies
// the precise per-concert date buffer itself.
func (e *Engine) Evaluate(signals Signals, candidates []*library.Concert) Result {
	result := Result{Suggestions: []Match{}}
	if signals.TakenAt == nil {
		// Date is mandatory evidence; nothing else substitutes for it.
		e.logger.Debug("no capture timestamp, skipping match")
		return result
	}

	type scored struct {
		match Match
		date  time.Time
	}
	var kept []scored
	for _, concert := range candidates {
		if concert == nil {
			continue
		}
		match := e.scoreConcert(signals, *concert)
		if match.Confidence < e.policy.SuggestionThreshold {
			continue
		}
		kept = append(kept, scored{match: match, date: concert.Date})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].match.Confidence != kept[j].match.Confidence {
			return kept[i].match.Confidence > kept[j].match.Confidence
		}
		if !kept[i].date.Equal(kept[j].date) {
			return kept[i].date.Before(kept[j].date)
		}
		return kept[i].match.ConcertID < kept[j].match.ConcertID
	})

	for i, entry := range kept {
		if i == 0 && entry.match.Confidence >= e.policy.AutoMatchThreshold {
			match := entry.match
			result.AutoMatched = &match
			continue
		}
		result.Suggestions = append(result.Suggestions, entry.match)
	}

	if result.AutoMatched != nil {
		e.logger.Info("auto-matched concert",
			logging.String("concert_id", result.AutoMatched.ConcertID),
			logging.Float64("confidence", result.AutoMatched.Confidence),
			logging.String("matched_via", result.AutoMatched.MatchedVia))
	} else if len(result.Suggestions) > 0 {
		e.logger.Info("concert suggestions",
			logging.Int("count", len(result.Suggestions)),
			logging.Float64("top_confidence", result.Suggestions[0].Confidence))
	}
	return result
}

func (e *Engine) scoreConcert(signals Signals, concert library.Concert) Match {
	match := Match{ConcertID: concert.ID}

	match.DateMatch = withinEventWindow(*signals.TakenAt, concert, e.policy.MinDateBufferDays)

	if signals.Lat != nil && signals.Lng != nil &&
		concert.Venue != nil && concert.Venue.Lat != nil && concert.Venue.Lng != nil {
		distance := HaversineKM(*signals.Lat, *signals.Lng, *concert.Venue.Lat, *concert.Venue.Lng)
		match.GPSMatch = distance <= e.policy.GPSRadiusKM
	}

	visual := signals.Visual
	if visual != nil {
		match.VenueMatch = venueMatches(*visual, concert)
		match.ArtistMatch = artistMatches(*visual, concert)
	}

	match.MatchedVia = matchedViaLabel(match)

	// Tier 1: physically there on the right day.
	if match.GPSMatch && match.DateMatch {
		match.Confidence = tierOneConfidence
		return match
	}

	score := 0.0
	if match.DateMatch {
		score += dateWeight
	}
	if match.VenueMatch {
		score += venueWeight
	}
	if match.ArtistMatch {
		score += artistWeight
	}
	if visual != nil && (match.VenueMatch || match.ArtistMatch) {
		score *= 0.7 + 0.3*visualConfidence(*visual, match)
	}
	if score > additiveCap {
		score = additiveCap
	}
	match.Confidence = score
	return match
}

// visualConfidence picks the model's confidence in whichever detections
// actually matched, falling back to its overall confidence.
func visualConfidence(visual VisualSignals, match Match) float64 {
	best := 0.0
	if match.VenueMatch && visual.VenueConfidence > best {
		best = visual.VenueConfidence
	}
	if match.ArtistMatch && visual.ArtistConfidence > best {
		best = visual.ArtistConfidence
	}
	if best == 0 {
		best = visual.OverallConfidence
	}
	if best < 0 {
		return 0
	}
	if best > 1 {
		return 1
	}
	return best
}

func venueMatches(visual VisualSignals, concert library.Concert) bool {
	if concert.Venue == nil {
		return false
	}
	if visual.VenueName != "" && namesMatch(visual.VenueName, concert.Venue.Name) {
		return true
	}
	// City corroboration upgrades a borderline venue read: the model named
	// the right city with reasonable confidence even though the venue string
	// itself didn't line up.
	if visual.VenueName != "" && visual.VenueCity != "" && concert.Venue.City != "" &&
		visual.VenueConfidence >= 0.6 && namesMatch(visual.VenueCity, concert.Venue.City) {
		return true
	}
	return false
}

func artistMatches(visual VisualSignals, concert library.Concert) bool {
	if visual.ArtistName == "" {
		return false
	}
	for _, artist := range concert.Artists {
		if namesMatch(visual.ArtistName, artist.Name) {
			return true
		}
	}
	return false
}

func matchedViaLabel(match Match) string {
	parts := make([]string, 0, 4)
	if match.GPSMatch {
		parts = append(parts, "gps")
	}
	if match.DateMatch {
		parts = append(parts, "date")
	}
	if match.VenueMatch {
		parts = append(parts, "venue")
	}
	if match.ArtistMatch {
		parts = append(parts, "artist")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}
