package matching

// Policy carries the tunable constants of the scoring engine. Zero values are
// replaced with the documented defaults, so an empty Policy is usable.
type Policy struct {
	// GPSRadiusKM is the haversine distance within which media GPS counts as
	// being at the venue. Deployed values have ranged 2-5 km.
	GPSRadiusKM float64
	// MinDateBufferDays pads event windows against timezone slop on
	// single-day concerts.
	MinDateBufferDays int
	// SuggestionThreshold is the minimum confidence to keep a concert as a
	// candidate result at all.
	SuggestionThreshold float64
	// AutoMatchThreshold is the minimum confidence to assign without user
	// confirmation.
	AutoMatchThreshold float64
}

const (
	defaultGPSRadiusKM         = 3.0
	defaultMinDateBufferDays   = 1
	defaultSuggestionThreshold = 0.40
	defaultAutoMatchThreshold  = 0.80

	// tierOneConfidence is the gps+date short-circuit score.
	tierOneConfidence = 0.95
	// additiveCap keeps any purely additive combination strictly below the
	// gps+date tier.
	additiveCap = 0.90

	dateWeight   = 0.35
	venueWeight  = 0.30
	artistWeight = 0.25
)

func (p Policy) normalized() Policy {
	if p.GPSRadiusKM <= 0 {
		p.GPSRadiusKM = defaultGPSRadiusKM
	}
	if p.MinDateBufferDays <= 0 {
		p.MinDateBufferDays = defaultMinDateBufferDays
	}
	if p.SuggestionThreshold <= 0 {
		p.SuggestionThreshold = defaultSuggestionThreshold
	}
	if p.AutoMatchThreshold <= 0 {
		p.AutoMatchThreshold = defaultAutoMatchThreshold
	}
	return p
}
