package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gigsnap/internal/library"
	"gigsnap/internal/logging"
	"gigsnap/internal/matching"
	"gigsnap/internal/media/ffmpeg"
	"gigsnap/internal/vision"
)

type fakeStore struct {
	item     *library.MediaItem
	concerts []*library.Concert

	startErr      error
	finishStatus  library.Status
	finishMessage string
	savedMetadata bool
	savedTakenAt  *time.Time
	thumbnailKey  string
	payloadJSON   string
	assignedID    string
	mbidUpdates   map[int]string
}

func (s *fakeStore) StartAnalysis(ctx context.Context, id string) (*library.MediaItem, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	s.item.AnalysisStatus = library.StatusProcessing
	copied := *s.item
	return &copied, nil
}

func (s *fakeStore) FinishAnalysis(ctx context.Context, id string, status library.Status, errorMessage string) error {
	s.finishStatus = status
	s.finishMessage = errorMessage
	return nil
}

func (s *fakeStore) SaveExtractedMetadata(ctx context.Context, id string, takenAt *time.Time, lat, lng, durationSeconds *float64) error {
	s.savedMetadata = true
	s.savedTakenAt = takenAt
	return nil
}

func (s *fakeStore) SetThumbnail(ctx context.Context, id, thumbnailKey string) error {
	s.thumbnailKey = thumbnailKey
	return nil
}

func (s *fakeStore) SaveAnalysisPayload(ctx context.Context, id, payloadJSON string) error {
	s.payloadJSON = payloadJSON
	return nil
}

func (s *fakeStore) AssignConcert(ctx context.Context, id, concertID string) error {
	s.assignedID = concertID
	return nil
}

func (s *fakeStore) ConcertsInWindow(ctx context.Context, userID string, from, to time.Time) ([]*library.Concert, error) {
	return s.concerts, nil
}

func (s *fakeStore) GetConcert(ctx context.Context, id string) (*library.Concert, error) {
	for _, concert := range s.concerts {
		if concert.ID == id {
			return concert, nil
		}
	}
	return nil, library.ErrNotFound
}

func (s *fakeStore) UpdateArtistMBID(ctx context.Context, concertID string, position int, mbid string) error {
	if s.mbidUpdates == nil {
		s.mbidUpdates = map[int]string{}
	}
	s.mbidUpdates[position] = mbid
	return nil
}

type fakeObjects struct {
	data       []byte
	fetchErr   error
	blockFetch bool
	puts       map[string][]byte
}

func (o *fakeObjects) FetchBytes(ctx context.Context, key string) ([]byte, error) {
	if o.blockFetch {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return o.data, o.fetchErr
}

func (o *fakeObjects) PutBytes(ctx context.Context, key string, data []byte, contentType string) error {
	if o.puts == nil {
		o.puts = map[string][]byte{}
	}
	o.puts[key] = data
	return nil
}

func (o *fakeObjects) PresignedDownloadURL(ctx context.Context, key string) (string, error) {
	return "https://storage.example/" + key, nil
}

type fakeSampler struct {
	probe     ffmpeg.ProbeResult
	probeErr  error
	thumbnail []byte
	frames    [][]byte
}

func (s *fakeSampler) Probe(ctx context.Context, data []byte) (ffmpeg.ProbeResult, error) {
	return s.probe, s.probeErr
}

func (s *fakeSampler) ExtractThumbnail(ctx context.Context, data []byte) ([]byte, error) {
	return s.thumbnail, nil
}

func (s *fakeSampler) ExtractFrames(ctx context.Context, data []byte, durationSeconds float64) ([][]byte, error) {
	return s.frames, nil
}

type fakeVision struct {
	analysis  vision.Analysis
	err       error
	urlCalls  int
	frameCall int
}

func (v *fakeVision) AnalyzeImageURL(ctx context.Context, imageURL string, meta vision.Context) (vision.Analysis, error) {
	v.urlCalls++
	return v.analysis, v.err
}

func (v *fakeVision) AnalyzeFrames(ctx context.Context, frames [][]byte, meta vision.Context) (vision.Analysis, error) {
	v.frameCall++
	return v.analysis, v.err
}

type fakeCatalog struct {
	hits map[string]string
}

func (c *fakeCatalog) SearchArtist(ctx context.Context, name string) (CatalogArtist, error) {
	return CatalogArtist{MBID: c.hits[name], Name: name}, nil
}

func photoItem() *library.MediaItem {
	taken := time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC)
	lat, lng := 40.7505, -73.9934
	return &library.MediaItem{
		ID:               "media-1",
		UserID:           "user-1",
		MediaType:        library.MediaTypePhoto,
		StorageKey:       "media/2025/06/media-1",
		OriginalFilename: "IMG_4231.jpg",
		TakenAt:          &taken,
		LocationLat:      &lat,
		LocationLng:      &lng,
		AnalysisStatus:   library.StatusPending,
	}
}

func msgConcert() *library.Concert {
	lat, lng := 40.7505, -73.9934
	return &library.Concert{
		ID:     "concert-1",
		UserID: "user-1",
		Date:   time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Venue: &library.Venue{
			Name: "Madison Square Garden",
			City: "New York",
			Lat:  &lat,
			Lng:  &lng,
		},
		Artists: []library.ConcertArtist{
			{Name: "The National", Headliner: true, Position: 0},
		},
	}
}

func newTestOrchestrator(store *fakeStore, objects *fakeObjects, sampler *fakeSampler, visionClient *fakeVision, cat ArtistCatalog) *Orchestrator {
	return NewOrchestrator(Options{
		Store:   store,
		Objects: objects,
		Sampler: sampler,
		Vision:  visionClient,
		Matcher: matching.NewEngine(matching.Policy{}, logging.NewNop()),
		Catalog: cat,
		Logger:  logging.NewNop(),
	})
}

func TestAnalyzePhotoAutoMatches(t *testing.T) {
	store := &fakeStore{item: photoItem(), concerts: []*library.Concert{msgConcert()}}
	objects := &fakeObjects{data: []byte("jpeg-bytes")}
	visionClient := &fakeVision{analysis: vision.Analysis{OverallConfidence: 0.3, Reasoning: "crowd only"}}
	orch := newTestOrchestrator(store, objects, &fakeSampler{}, visionClient, nil)

	if err := orch.Analyze(context.Background(), "media-1"); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if store.finishStatus != library.StatusCompleted {
		t.Fatalf("status = %s, want completed", store.finishStatus)
	}
	if store.assignedID != "concert-1" {
		t.Fatalf("assigned concert = %q, want concert-1", store.assignedID)
	}
	if visionClient.urlCalls != 1 {
		t.Fatalf("vision url calls = %d, want 1", visionClient.urlCalls)
	}

	var payload Payload
	if err := json.Unmarshal([]byte(store.payloadJSON), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.MatchMetadata == nil {
		t.Fatal("expected matchMetadata in payload")
	}
	if payload.MatchMetadata.MatchedVia != "gps+date" {
		t.Fatalf("matchedVia = %q", payload.MatchMetadata.MatchedVia)
	}
	if payload.MatchMetadata.Confidence < 0.80 {
		t.Fatalf("confidence = %v, want >= 0.80", payload.MatchMetadata.Confidence)
	}
	if !payload.Metadata.HasTakenAt || !payload.Metadata.HasLocation {
		t.Fatalf("metadata summary = %+v", payload.Metadata)
	}
	if payload.Metadata.TakenAtSource != "stored" {
		t.Fatalf("takenAtSource = %q, want stored", payload.Metadata.TakenAtSource)
	}
}

func TestAnalyzeVisionFailureStillCompletes(t *testing.T) {
	item := photoItem()
	item.TakenAt = nil
	item.LocationLat = nil
	item.LocationLng = nil
	store := &fakeStore{item: item}
	objects := &fakeObjects{data: []byte("jpeg-bytes")}
	visionClient := &fakeVision{err: errors.New("vision api down")}
	orch := newTestOrchestrator(store, objects, &fakeSampler{}, visionClient, nil)

	if err := orch.Analyze(context.Background(), "media-1"); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if store.finishStatus != library.StatusCompleted {
		t.Fatalf("status = %s, want completed despite vision failure", store.finishStatus)
	}
	var payload Payload
	if err := json.Unmarshal([]byte(store.payloadJSON), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.VisualAnalysis != nil {
		t.Fatal("expected null visualAnalysis after vision failure")
	}
	if payload.MatchMetadata != nil || len(payload.MatchSuggestions) != 0 {
		t.Fatal("expected no matches without any timestamp")
	}
}

func TestAnalyzeFetchFailureMarksFailed(t *testing.T) {
	store := &fakeStore{item: photoItem()}
	objects := &fakeObjects{fetchErr: errors.New("bucket unreachable")}
	orch := newTestOrchestrator(store, objects, &fakeSampler{}, &fakeVision{}, nil)

	err := orch.Analyze(context.Background(), "media-1")
	if err == nil {
		t.Fatal("expected an error")
	}
	if store.finishStatus != library.StatusFailed {
		t.Fatalf("status = %s, want failed", store.finishStatus)
	}
	if store.finishMessage == "" || strings.Contains(store.finishMessage, "bucket unreachable") {
		t.Fatalf("failure message should be user-presentable, got %q", store.finishMessage)
	}
}

func TestAnalyzeEmptyObjectIsInputFailure(t *testing.T) {
	store := &fakeStore{item: photoItem()}
	objects := &fakeObjects{data: nil}
	orch := newTestOrchestrator(store, objects, &fakeSampler{}, &fakeVision{}, nil)

	err := orch.Analyze(context.Background(), "media-1")
	if err == nil {
		t.Fatal("expected an error")
	}
	var classified *PipelineError
	if !errors.As(err, &classified) || classified.Kind != KindInput {
		t.Fatalf("expected input classification, got %v", err)
	}
	if store.finishStatus != library.StatusFailed {
		t.Fatalf("status = %s, want failed", store.finishStatus)
	}
	if !strings.Contains(store.finishMessage, "uploading it again") {
		t.Fatalf("unexpected user message %q", store.finishMessage)
	}
}

func TestAnalyzeVideoPersistsProbeMetadataAndThumbnail(t *testing.T) {
	item := photoItem()
	item.MediaType = library.MediaTypeVideo
	item.OriginalFilename = "clip.mov"
	item.TakenAt = nil
	item.LocationLat = nil
	item.LocationLng = nil
	store := &fakeStore{item: item, concerts: []*library.Concert{msgConcert()}}
	objects := &fakeObjects{data: []byte("mov-bytes")}
	sampler := &fakeSampler{
		probe: ffmpeg.ProbeResult{
			Format: ffmpeg.ProbeFormat{
				Duration: "63.5",
				Tags: map[string]string{
					"creation_time":                        "2025-06-10T21:00:00Z",
					"com.apple.quicktime.location.ISO6709": "+40.7505-073.9934/",
				},
			},
		},
		thumbnail: []byte("thumb-jpeg"),
		frames:    [][]byte{[]byte("f1"), []byte("f2")},
	}
	visionClient := &fakeVision{analysis: vision.Analysis{OverallConfidence: 0.2}}
	orch := newTestOrchestrator(store, objects, sampler, visionClient, nil)

	if err := orch.Analyze(context.Background(), "media-1"); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !store.savedMetadata || store.savedTakenAt == nil {
		t.Fatal("expected probe metadata persisted before vision ran")
	}
	if store.thumbnailKey == "" {
		t.Fatal("expected a thumbnail key recorded")
	}
	if _, ok := objects.puts[store.thumbnailKey]; !ok {
		t.Fatalf("thumbnail bytes not uploaded under %q", store.thumbnailKey)
	}
	if visionClient.frameCall != 1 {
		t.Fatalf("frame analyses = %d, want 1", visionClient.frameCall)
	}
	// GPS and date both come from the container tags, so the concert
	// auto-matches even though the item started bare.
	if store.assignedID != "concert-1" {
		t.Fatalf("assigned concert = %q, want concert-1", store.assignedID)
	}
	var payload Payload
	if err := json.Unmarshal([]byte(store.payloadJSON), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Metadata.TakenAtSource != "container" {
		t.Fatalf("takenAtSource = %q, want container", payload.Metadata.TakenAtSource)
	}
	if payload.Metadata.FramesSampled != 2 {
		t.Fatalf("framesSampled = %d, want 2", payload.Metadata.FramesSampled)
	}
}

func TestAnalyzeSuggestionsStoredWithoutAssignment(t *testing.T) {
	item := photoItem()
	item.LocationLat = nil
	item.LocationLng = nil
	store := &fakeStore{item: item, concerts: []*library.Concert{msgConcert()}}
	objects := &fakeObjects{data: []byte("jpeg-bytes")}
	artist := "The National"
	visionClient := &fakeVision{analysis: vision.Analysis{
		Artist:            &artist,
		ArtistConfidence:  0.9,
		OverallConfidence: 0.8,
	}}
	orch := newTestOrchestrator(store, objects, &fakeSampler{}, visionClient, nil)

	if err := orch.Analyze(context.Background(), "media-1"); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if store.assignedID != "" {
		t.Fatalf("no concert should be assigned, got %q", store.assignedID)
	}
	var payload Payload
	if err := json.Unmarshal([]byte(store.payloadJSON), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.MatchMetadata != nil {
		t.Fatal("expected no matchMetadata")
	}
	if len(payload.MatchSuggestions) != 1 {
		t.Fatalf("suggestions = %d, want 1", len(payload.MatchSuggestions))
	}
	if payload.MatchSuggestions[0].Confidence >= 0.80 {
		t.Fatalf("suggestion confidence = %v, should stay below auto threshold", payload.MatchSuggestions[0].Confidence)
	}
}

func TestAnalyzeEnrichesArtistIdentity(t *testing.T) {
	store := &fakeStore{item: photoItem(), concerts: []*library.Concert{msgConcert()}}
	objects := &fakeObjects{data: []byte("jpeg-bytes")}
	cat := &fakeCatalog{hits: map[string]string{"The National": "mbid-123"}}
	orch := newTestOrchestrator(store, objects, &fakeSampler{}, &fakeVision{}, cat)

	if err := orch.Analyze(context.Background(), "media-1"); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if store.mbidUpdates[0] != "mbid-123" {
		t.Fatalf("mbid updates = %v", store.mbidUpdates)
	}
}

func TestAnalyzeStalledStorageFailsAtStageTimeout(t *testing.T) {
	store := &fakeStore{item: photoItem()}
	objects := &fakeObjects{blockFetch: true}
	orch := NewOrchestrator(Options{
		Store:        store,
		Objects:      objects,
		Sampler:      &fakeSampler{},
		Vision:       &fakeVision{},
		Matcher:      matching.NewEngine(matching.Policy{}, logging.NewNop()),
		StageTimeout: 20 * time.Millisecond,
		Logger:       logging.NewNop(),
	})

	start := time.Now()
	err := orch.Analyze(context.Background(), "media-1")
	if err == nil {
		t.Fatal("expected an error from the stalled fetch")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("fetch stall held the pipeline for %v", elapsed)
	}
	if store.finishStatus != library.StatusFailed {
		t.Fatalf("status = %s, want failed", store.finishStatus)
	}
	if !strings.Contains(store.finishMessage, "temporarily unavailable") {
		t.Fatalf("unexpected user message %q", store.finishMessage)
	}
}

func TestAnalyzeVisionAuthFailureIsConfigurationFailure(t *testing.T) {
	store := &fakeStore{item: photoItem()}
	objects := &fakeObjects{data: []byte("jpeg-bytes")}
	visionClient := &fakeVision{err: vision.ErrNotConfigured}
	orch := newTestOrchestrator(store, objects, &fakeSampler{}, visionClient, nil)

	err := orch.Analyze(context.Background(), "media-1")
	if err == nil {
		t.Fatal("expected an error")
	}
	var classified *PipelineError
	if !errors.As(err, &classified) || classified.Kind != KindConfiguration {
		t.Fatalf("expected configuration classification, got %v", err)
	}
	if store.finishStatus != library.StatusFailed {
		t.Fatalf("status = %s, want failed", store.finishStatus)
	}
	if !strings.Contains(store.finishMessage, "configuration") {
		t.Fatalf("unexpected user message %q", store.finishMessage)
	}
}

func TestAnalyzeInvalidTransitionReturnsWithoutStatusChange(t *testing.T) {
	store := &fakeStore{item: photoItem(), startErr: library.ErrInvalidTransition}
	orch := newTestOrchestrator(store, &fakeObjects{}, &fakeSampler{}, &fakeVision{}, nil)

	err := orch.Analyze(context.Background(), "media-1")
	if !errors.Is(err, library.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if store.finishStatus != "" {
		t.Fatalf("status should be untouched, got %s", store.finishStatus)
	}
}
