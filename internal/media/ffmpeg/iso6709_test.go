package ffmpeg

import (
	"math"
	"testing"
)

func TestParseISO6709(t *testing.T) {
	cases := []struct {
		name  string
		input string
		lat   float64
		lng   float64
		ok    bool
	}{
		{"tokyo", "+35.6895+139.6917/", 35.6895, 139.6917, true},
		{"southern hemisphere", "-33.8688+151.2093/", -33.8688, 151.2093, true},
		{"with altitude", "+40.7505-073.9934+010.000/", 40.7505, -73.9934, true},
		{"no trailing slash", "+35.6895+139.6917", 35.6895, 139.6917, true},
		{"whitespace padded", "  +35.6895+139.6917/  ", 35.6895, 139.6917, true},
		{"latitude out of range", "+91.0000+139.6917/", 0, 0, false},
		{"longitude out of range", "+35.6895+181.0000/", 0, 0, false},
		{"single segment", "+35.6895/", 0, 0, false},
		{"no signs", "35.6895 139.6917", 0, 0, false},
		{"empty", "", 0, 0, false},
		{"bare slash", "/", 0, 0, false},
		{"garbage segment", "+abc+139.6917/", 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lat, lng, ok := ParseISO6709(tc.input)
			if ok != tc.ok {
				t.Fatalf("ParseISO6709(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if !ok {
				return
			}
			if math.Abs(lat-tc.lat) > 1e-9 || math.Abs(lng-tc.lng) > 1e-9 {
				t.Fatalf("ParseISO6709(%q) = (%v, %v), want (%v, %v)", tc.input, lat, lng, tc.lat, tc.lng)
			}
		})
	}
}
