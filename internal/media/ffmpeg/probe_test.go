package ffmpeg

import (
	"testing"
	"time"
)

func TestDurationSecondsFallsBackToStreams(t *testing.T) {
	result := ProbeResult{
		Streams: []ProbeStream{
			{CodecType: "video", Duration: "42.5"},
			{CodecType: "audio", Duration: "41.9"},
		},
	}
	if got := result.DurationSeconds(); got != 42.5 {
		t.Fatalf("duration = %v, want 42.5", got)
	}

	result.Format.Duration = "43.0"
	if got := result.DurationSeconds(); got != 43.0 {
		t.Fatalf("duration = %v, want format value 43.0", got)
	}
}

func TestCreationTimeFallbackChain(t *testing.T) {
	// The QuickTime vendor tag wins over the generic creation_time.
	result := ProbeResult{
		Format: ProbeFormat{Tags: map[string]string{
			"creation_time":                    "2025-06-11T02:00:00.000000Z",
			"com.apple.quicktime.creationdate": "2025-06-10T21:00:00-0500",
		}},
	}
	got, ok := result.CreationTime()
	if !ok {
		t.Fatal("expected a creation time")
	}
	want := time.Date(2025, 6, 11, 2, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("creation time = %s, want %s", got, want)
	}

	// Without the vendor tag the generic field is used.
	delete(result.Format.Tags, "com.apple.quicktime.creationdate")
	got, ok = result.CreationTime()
	if !ok {
		t.Fatal("expected creation_time fallback")
	}
	if !got.Equal(want) {
		t.Fatalf("creation time = %s, want %s", got, want)
	}

	// Unparseable values fall through the chain.
	result.Format.Tags = map[string]string{
		"creation_time": "sometime in june",
		"date":          "2025-06-10",
	}
	got, ok = result.CreationTime()
	if !ok {
		t.Fatal("expected date fallback")
	}
	if got.Year() != 2025 || got.Month() != time.June || got.Day() != 10 {
		t.Fatalf("unexpected fallback date: %s", got)
	}
}

func TestCreationTimeMissing(t *testing.T) {
	if _, ok := (ProbeResult{}).CreationTime(); ok {
		t.Fatal("expected no creation time from empty result")
	}
}

func TestLocationFromStreamTags(t *testing.T) {
	result := ProbeResult{
		Streams: []ProbeStream{
			{CodecType: "video", Tags: map[string]string{
				"com.apple.quicktime.location.ISO6709": "+40.7505-073.9934/",
			}},
		},
	}
	lat, lng, ok := result.Location()
	if !ok {
		t.Fatal("expected a location")
	}
	if lat != 40.7505 || lng != -73.9934 {
		t.Fatalf("location = (%v, %v)", lat, lng)
	}
}

func TestLocationSkipsInvalidTag(t *testing.T) {
	result := ProbeResult{
		Format: ProbeFormat{Tags: map[string]string{
			"com.apple.quicktime.location.ISO6709": "+95.0000+139.6917/",
			"location":                             "+35.6895+139.6917/",
		}},
	}
	lat, lng, ok := result.Location()
	if !ok {
		t.Fatal("expected the fallback location tag to be used")
	}
	if lat != 35.6895 || lng != 139.6917 {
		t.Fatalf("location = (%v, %v)", lat, lng)
	}
}

func TestTagLookupCaseInsensitive(t *testing.T) {
	result := ProbeResult{
		Format: ProbeFormat{Tags: map[string]string{
			"Creation_Time": "2025-06-10T21:00:00Z",
		}},
	}
	if _, ok := result.CreationTime(); !ok {
		t.Fatal("expected case-insensitive tag lookup")
	}
}
