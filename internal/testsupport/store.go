package testsupport

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gigsnap/internal/library"
)

// MustOpenStore opens a library.Store on a temp database and registers cleanup.
func MustOpenStore(t testing.TB) *library.Store {
	t.Helper()

	store, err := library.Open(filepath.Join(t.TempDir(), "gigsnap.db"))
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewMediaItem inserts a pending media item for tests.
func NewMediaItem(t testing.TB, store *library.Store, userID string, mediaType library.MediaType) *library.MediaItem {
	t.Helper()

	item, err := store.CreateMediaItem(context.Background(), &library.MediaItem{
		UserID:     userID,
		MediaType:  mediaType,
		StorageKey: "uploads/" + userID + "/item.bin",
	})
	if err != nil {
		t.Fatalf("store.CreateMediaItem: %v", err)
	}
	return item
}

// NewConcert inserts a single-day concert with one headliner for tests.
func NewConcert(t testing.TB, store *library.Store, userID string, date time.Time, artist string, venue *library.Venue) *library.Concert {
	t.Helper()

	concert, err := store.SaveConcert(context.Background(), &library.Concert{
		UserID: userID,
		Date:   date,
		Venue:  venue,
		Artists: []library.ConcertArtist{
			{Name: artist, Headliner: true, Position: 1},
		},
	})
	if err != nil {
		t.Fatalf("store.SaveConcert: %v", err)
	}
	return concert
}

// FloatPtr returns a pointer to the given float. Convenience for optional
// GPS fields.
func FloatPtr(value float64) *float64 {
	return &value
}

// TimePtr returns a pointer to the given time.
func TimePtr(value time.Time) *time.Time {
	return &value
}
