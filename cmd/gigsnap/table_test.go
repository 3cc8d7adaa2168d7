package main

import (
	"strings"
	"testing"
	"time"

	"gigsnap/internal/library"
)

func TestRenderMediaTable(t *testing.T) {
	colorizeStatus = false
	taken := time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC)
	items := []*library.MediaItem{
		{
			ID:             "media-1",
			MediaType:      library.MediaTypePhoto,
			AnalysisStatus: library.StatusCompleted,
			TakenAt:        &taken,
			ConcertID:      "concert-1",
		},
		{
			ID:             "media-2",
			MediaType:      library.MediaTypeVideo,
			AnalysisStatus: library.StatusFailed,
		},
	}

	out := renderMediaTable(items)
	for _, want := range []string{"media-1", "completed", "2025-06-10 21:00", "concert-1", "media-2", "failed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected plain output without ANSI codes:\n%s", out)
	}
}

func TestRenderConcertTable(t *testing.T) {
	concerts := []*library.Concert{
		{
			ID:   "concert-1",
			Date: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
			Venue: &library.Venue{
				Name: "Madison Square Garden",
				City: "New York",
			},
			Artists: []library.ConcertArtist{
				{Name: "The National", Headliner: true, Position: 0},
				{Name: "Lucy Dacus", Position: 1},
			},
			TourName: "First Two Pages Tour",
		},
	}

	out := renderConcertTable(concerts)
	for _, want := range []string{"2025-06-10", "The National", "Madison Square Garden, New York", "First Two Pages Tour"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestStatusCellColorsOnlyOnTerminals(t *testing.T) {
	colorizeStatus = true
	if got := statusCell(library.StatusFailed); !strings.Contains(got, "failed") || !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected colored failed cell, got %q", got)
	}
	colorizeStatus = false
	if got := statusCell(library.StatusFailed); got != "failed" {
		t.Fatalf("expected plain failed cell, got %q", got)
	}
}
