package ffmpeg

import (
	"strconv"
	"strings"
)

// ParseISO6709 decodes a coordinate string like "+35.6895+139.6917/" or
// "-33.8688+151.2093+021.000/" into a latitude/longitude pair. Segments vary
// in width, so the string is split at its sign characters rather than at
// fixed offsets. An optional trailing altitude segment is ignored.
func ParseISO6709(value string) (lat, lng float64, ok bool) {
	cleaned := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "/"))
	if cleaned == "" || (cleaned[0] != '+' && cleaned[0] != '-') {
		return 0, 0, false
	}

	var segments []string
	start := -1
	for i, r := range cleaned {
		if r == '+' || r == '-' {
			if start >= 0 {
				segments = append(segments, cleaned[start:i])
			}
			start = i
		}
	}
	if start < 0 {
		// No sign characters at all; not ISO 6709.
		return 0, 0, false
	}
	segments = append(segments, cleaned[start:])
	if len(segments) < 2 {
		return 0, 0, false
	}

	lat, err := strconv.ParseFloat(segments[0], 64)
	if err != nil {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(segments[1], 64)
	if err != nil {
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}
