package vision

import (
	"encoding/json"
	"strings"
)

// Analysis is the fixed schema the model is instructed to return. Name
// fields are pointers so "not detected" stays distinct from empty text.
type Analysis struct {
	Artist            *string `json:"artist"`
	ArtistConfidence  float64 `json:"artistConfidence"`
	Venue             *string `json:"venue"`
	VenueCity         *string `json:"venueCity"`
	VenueConfidence   float64 `json:"venueConfidence"`
	TourName          *string `json:"tourName"`
	TourConfidence    float64 `json:"tourConfidence"`
	OverallConfidence float64 `json:"overallConfidence"`
	Reasoning         string  `json:"reasoning"`
}

// zeroAnalysis builds the degraded result used when the model response is
// unusable: every field absent, every confidence zero.
func zeroAnalysis(reason string) Analysis {
	return Analysis{Reasoning: reason}
}

// DecodeAnalysis extracts the first balanced JSON object from model output
// and parses it. Any failure yields a zero-confidence Analysis whose
// Reasoning describes what went wrong; it never returns an error.
func DecodeAnalysis(content string) Analysis {
	payload := firstBalancedJSON(strings.TrimSpace(content))
	if payload == "" {
		return zeroAnalysis("model response contained no JSON object")
	}
	var analysis Analysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return zeroAnalysis("model response JSON did not parse: " + err.Error())
	}
	analysis.normalize()
	return analysis
}

func (a *Analysis) normalize() {
	a.Artist = cleanName(a.Artist)
	a.Venue = cleanName(a.Venue)
	a.VenueCity = cleanName(a.VenueCity)
	a.TourName = cleanName(a.TourName)
	if a.Artist == nil {
		a.ArtistConfidence = 0
	}
	if a.Venue == nil {
		a.VenueConfidence = 0
	}
	if a.TourName == nil {
		a.TourConfidence = 0
	}
	a.ArtistConfidence = clampUnit(a.ArtistConfidence)
	a.VenueConfidence = clampUnit(a.VenueConfidence)
	a.TourConfidence = clampUnit(a.TourConfidence)
	a.OverallConfidence = clampUnit(a.OverallConfidence)
	a.Reasoning = strings.TrimSpace(a.Reasoning)
}

func cleanName(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" || strings.EqualFold(trimmed, "null") || strings.EqualFold(trimmed, "unknown") {
		return nil
	}
	return &trimmed
}

func clampUnit(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// MergeBest reduces multi-frame results to one Analysis by taking, per
// field, the value from whichever frame detected it most confidently.
func MergeBest(analyses []Analysis) Analysis {
	var merged Analysis
	if len(analyses) == 0 {
		return zeroAnalysis("no frames analyzed")
	}
	var reasons []string
	for _, a := range analyses {
		if a.Artist != nil && (merged.Artist == nil || a.ArtistConfidence > merged.ArtistConfidence) {
			merged.Artist = a.Artist
			merged.ArtistConfidence = a.ArtistConfidence
		}
		if a.Venue != nil && (merged.Venue == nil || a.VenueConfidence > merged.VenueConfidence) {
			merged.Venue = a.Venue
			merged.VenueCity = a.VenueCity
			merged.VenueConfidence = a.VenueConfidence
		}
		if a.TourName != nil && (merged.TourName == nil || a.TourConfidence > merged.TourConfidence) {
			merged.TourName = a.TourName
			merged.TourConfidence = a.TourConfidence
		}
		if a.OverallConfidence > merged.OverallConfidence {
			merged.OverallConfidence = a.OverallConfidence
		}
		if a.Reasoning != "" {
			reasons = append(reasons, a.Reasoning)
		}
	}
	merged.Reasoning = strings.Join(reasons, " | ")
	return merged
}

// firstBalancedJSON returns the first top-level {...} object in the text,
// tracking string literals and escapes so braces inside values do not
// unbalance the scan. Code fences and surrounding prose fall away for free.
func firstBalancedJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
