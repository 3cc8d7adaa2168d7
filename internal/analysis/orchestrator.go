package analysis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gigsnap/internal/library"
	"gigsnap/internal/logging"
	"gigsnap/internal/matching"
	"gigsnap/internal/media/exif"
	"gigsnap/internal/media/ffmpeg"
	"gigsnap/internal/storage"
	"gigsnap/internal/vision"
)

// Store is the slice of the library store the pipeline needs.
type Store interface {
	StartAnalysis(ctx context.Context, id string) (*library.MediaItem, error)
	FinishAnalysis(ctx context.Context, id string, status library.Status, errorMessage string) error
	SaveExtractedMetadata(ctx context.Context, id string, takenAt *time.Time, lat, lng, durationSeconds *float64) error
	SetThumbnail(ctx context.Context, id, thumbnailKey string) error
	SaveAnalysisPayload(ctx context.Context, id, payloadJSON string) error
	AssignConcert(ctx context.Context, id, concertID string) error
	ConcertsInWindow(ctx context.Context, userID string, from, to time.Time) ([]*library.Concert, error)
	GetConcert(ctx context.Context, id string) (*library.Concert, error)
	UpdateArtistMBID(ctx context.Context, concertID string, position int, mbid string) error
}

// ObjectStore fetches and writes media bytes.
type ObjectStore interface {
	FetchBytes(ctx context.Context, key string) ([]byte, error)
	PutBytes(ctx context.Context, key string, data []byte, contentType string) error
	PresignedDownloadURL(ctx context.Context, key string) (string, error)
}

// FrameSampler probes and samples video bytes.
type FrameSampler interface {
	Probe(ctx context.Context, data []byte) (ffmpeg.ProbeResult, error)
	ExtractThumbnail(ctx context.Context, data []byte) ([]byte, error)
	ExtractFrames(ctx context.Context, data []byte, durationSeconds float64) ([][]byte, error)
}

// VisionClient analyzes images for concert signals.
type VisionClient interface {
	AnalyzeImageURL(ctx context.Context, imageURL string, meta vision.Context) (vision.Analysis, error)
	AnalyzeFrames(ctx context.Context, frames [][]byte, meta vision.Context) (vision.Analysis, error)
}

// Matcher scores concert candidates against signals.
type Matcher interface {
	Evaluate(signals matching.Signals, candidates []*library.Concert) matching.Result
}

// ArtistCatalog resolves external artist identifiers. Optional.
type ArtistCatalog interface {
	SearchArtist(ctx context.Context, name string) (CatalogArtist, error)
}

// CatalogArtist is one catalog lookup hit.
type CatalogArtist struct {
	MBID string
	Name string
}

// Options bundle the orchestrator's collaborators and tuning.
type Options struct {
	Store               Store
	Objects             ObjectStore
	Sampler             FrameSampler
	Vision              VisionClient
	Matcher             Matcher
	Catalog             ArtistCatalog // nil disables MBID enrichment
	CandidateWindowDays int
	StageTimeout        time.Duration // deadline for each external call
	Logger              *slog.Logger
}

// Orchestrator drives one media item through the full analysis pipeline.
type Orchestrator struct {
	store        Store
	objects      ObjectStore
	sampler      FrameSampler
	vision       VisionClient
	matcher      Matcher
	catalog      ArtistCatalog
	window       time.Duration
	stageTimeout time.Duration
	logger       *slog.Logger
}

const (
	defaultCandidateWindowDays = 10
	defaultStageTimeout        = 2 * time.Minute
)

// NewOrchestrator wires an Orchestrator from options.
func NewOrchestrator(opts Options) *Orchestrator {
	windowDays := opts.CandidateWindowDays
	if windowDays <= 0 {
		windowDays = defaultCandidateWindowDays
	}
	stageTimeout := opts.StageTimeout
	if stageTimeout <= 0 {
		stageTimeout = defaultStageTimeout
	}
	return &Orchestrator{
		store:        opts.Store,
		objects:      opts.Objects,
		sampler:      opts.Sampler,
		vision:       opts.Vision,
		matcher:      opts.Matcher,
		catalog:      opts.Catalog,
		window:       time.Duration(windowDays) * 24 * time.Hour,
		stageTimeout: stageTimeout,
		logger:       logging.NewComponentLogger(opts.Logger, "analysis"),
	}
}

// stageContext bounds one blocking call against an external service. The
// subprocess and HTTP clients carry their own timeouts; object storage does
// not, so every call through it goes through here.
func (o *Orchestrator) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.stageTimeout)
}

// Analyze runs the pipeline for one media item. It always drives the item to
// a terminal status: completed when the pipeline ran to the end, failed with
// a classified message when an orchestration-level error escaped. The only
// error it returns without touching status is an invalid start transition.
func (o *Orchestrator) Analyze(ctx context.Context, mediaID string) error {
	item, err := o.store.StartAnalysis(ctx, mediaID)
	if err != nil {
		if errors.Is(err, library.ErrInvalidTransition) || errors.Is(err, library.ErrNotFound) {
			return err
		}
		return upstreamErrorf("start analysis %s: %w", mediaID, err)
	}
	logger := logging.WithMediaItem(o.logger, item.ID)
	logger.Info("analysis started",
		logging.String("media_type", string(item.MediaType)),
		logging.String("storage_key", item.StorageKey))

	if err := o.runPipeline(ctx, logger, item); err != nil {
		message := failureMessage(err)
		logger.Error("analysis failed", logging.Error(err), logging.String("user_message", message))
		if finishErr := o.store.FinishAnalysis(ctx, item.ID, library.StatusFailed, message); finishErr != nil {
			logger.Error("failed to persist failure status", logging.Error(finishErr))
		}
		return err
	}

	if err := o.store.FinishAnalysis(ctx, item.ID, library.StatusCompleted, ""); err != nil {
		return upstreamErrorf("finish analysis %s: %w", item.ID, err)
	}
	logger.Info("analysis completed")
	return nil
}

func (o *Orchestrator) runPipeline(ctx context.Context, logger *slog.Logger, item *library.MediaItem) error {
	fetchCtx, cancelFetch := o.stageContext(ctx)
	data, err := o.objects.FetchBytes(fetchCtx, item.StorageKey)
	cancelFetch()
	if err != nil {
		return upstreamErrorf("fetch media bytes: %w", err)
	}
	if len(data) == 0 {
		return inputErrorf("media object %s is empty", item.StorageKey)
	}

	extracted := o.extractMetadata(ctx, logger, item, data)

	if item.IsVideo() && item.ThumbnailKey == "" {
		o.generateThumbnail(ctx, logger, item, data)
	}

	takenAt, takenAtSource := resolveTakenAt(item, extracted)
	lat, lng := resolveLocation(item, extracted)

	visual, framesSampled, err := o.analyzeVision(ctx, logger, item, data, takenAt, lat, lng, extracted.duration)
	if err != nil {
		return err
	}

	signals := matching.Signals{
		UserID:  item.UserID,
		TakenAt: takenAt,
		Lat:     lat,
		Lng:     lng,
		Visual:  visualSignals(visual),
	}
	result, err := o.matchConcerts(ctx, logger, item, signals)
	if err != nil {
		return err
	}

	payload := Payload{
		VisualAnalysis: visual,
		Metadata: MetadataSummary{
			HasTakenAt:    takenAt != nil,
			HasLocation:   lat != nil && lng != nil,
			TakenAtSource: takenAtSource,
			CameraMake:    extracted.cameraMake,
			CameraModel:   extracted.cameraModel,
			FramesSampled: framesSampled,
		},
		AnalyzedAt: time.Now().UTC(),
	}
	if result.AutoMatched != nil {
		payload.MatchMetadata = result.AutoMatched
	} else if len(result.Suggestions) > 0 {
		payload.MatchSuggestions = result.Suggestions
	}
	encoded, err := payload.encode()
	if err != nil {
		return upstreamErrorf("encode analysis payload: %w", err)
	}
	if err := o.store.SaveAnalysisPayload(ctx, item.ID, encoded); err != nil {
		return upstreamErrorf("save analysis payload: %w", err)
	}

	if result.AutoMatched != nil {
		if err := o.store.AssignConcert(ctx, item.ID, result.AutoMatched.ConcertID); err != nil {
			return upstreamErrorf("assign concert: %w", err)
		}
		o.enrichArtistIdentity(ctx, logger, result.AutoMatched.ConcertID)
	}
	return nil
}

// extractedMetadata is the pipeline-internal view of what extraction found.
type extractedMetadata struct {
	takenAt     *time.Time
	lat         *float64
	lng         *float64
	duration    *float64
	cameraMake  string
	cameraModel string
}

func (m extractedMetadata) empty() bool {
	return m.takenAt == nil && m.lat == nil && m.lng == nil && m.duration == nil
}

// extractMetadata pulls capture metadata from the bytes and persists any new
// discoveries immediately, so partial progress survives a later failure.
// Extraction trouble is logged, never fatal.
func (o *Orchestrator) extractMetadata(ctx context.Context, logger *slog.Logger, item *library.MediaItem, data []byte) extractedMetadata {
	var extracted extractedMetadata
	if item.IsVideo() {
		probed, err := o.sampler.Probe(ctx, data)
		if err != nil {
			logger.Warn("video probe failed, continuing without container metadata", logging.Error(err))
			return extracted
		}
		if creation, ok := probed.CreationTime(); ok {
			extracted.takenAt = &creation
		}
		if lat, lng, ok := probed.Location(); ok {
			extracted.lat = &lat
			extracted.lng = &lng
		}
		if duration := probed.DurationSeconds(); duration > 0 {
			extracted.duration = &duration
		}
	} else {
		meta := exif.Extract(data)
		extracted.takenAt = meta.TakenAt
		extracted.lat = meta.Lat
		extracted.lng = meta.Lng
		extracted.cameraMake = meta.CameraMake
		extracted.cameraModel = meta.CameraModel
	}

	if extracted.empty() {
		return extracted
	}
	if err := o.store.SaveExtractedMetadata(ctx, item.ID, extracted.takenAt, extracted.lat, extracted.lng, extracted.duration); err != nil {
		logger.Warn("failed to persist extracted metadata", logging.Error(err))
	}
	return extracted
}

// resolveTakenAt prefers freshly extracted timestamps over whatever was
// already stored on the item, and reports which layer supplied the value.
func resolveTakenAt(item *library.MediaItem, extracted extractedMetadata) (*time.Time, string) {
	if extracted.takenAt != nil {
		source := "exif"
		if item.IsVideo() {
			source = "container"
		}
		return extracted.takenAt, source
	}
	if item.TakenAt != nil {
		return item.TakenAt, "stored"
	}
	return nil, ""
}

func resolveLocation(item *library.MediaItem, extracted extractedMetadata) (*float64, *float64) {
	if extracted.lat != nil && extracted.lng != nil {
		return extracted.lat, extracted.lng
	}
	if item.LocationLat != nil && item.LocationLng != nil {
		return item.LocationLat, item.LocationLng
	}
	return nil, nil
}

// generateThumbnail is opportunistic: a video without a thumbnail gets one,
// and every failure along the way is logged and dropped.
func (o *Orchestrator) generateThumbnail(ctx context.Context, logger *slog.Logger, item *library.MediaItem, data []byte) {
	frame, err := o.sampler.ExtractThumbnail(ctx, data)
	if err != nil || len(frame) == 0 {
		logger.Debug("thumbnail extraction produced nothing", logging.Error(err))
		return
	}
	key := storage.ThumbnailKey(item.StorageKey)
	putCtx, cancel := o.stageContext(ctx)
	err = o.objects.PutBytes(putCtx, key, frame, "image/jpeg")
	cancel()
	if err != nil {
		logger.Warn("thumbnail upload failed", logging.Error(err))
		return
	}
	if err := o.store.SetThumbnail(ctx, item.ID, key); err != nil {
		logger.Warn("thumbnail record update failed", logging.Error(err))
		return
	}
	item.ThumbnailKey = key
}

// analyzeVision queries the multimodal model. Transient failures degrade to a
// nil analysis and the pipeline continues on metadata alone. Rejected
// credentials are different: every item would degrade the same way, so they
// surface as a configuration failure instead of being swallowed.
func (o *Orchestrator) analyzeVision(ctx context.Context, logger *slog.Logger, item *library.MediaItem, data []byte, takenAt *time.Time, lat, lng *float64, duration *float64) (*vision.Analysis, int, error) {
	meta := vision.Context{
		TakenAt:          takenAt,
		Lat:              lat,
		Lng:              lng,
		OriginalFilename: item.OriginalFilename,
	}

	if !item.IsVideo() {
		presignCtx, cancel := o.stageContext(ctx)
		imageURL, err := o.objects.PresignedDownloadURL(presignCtx, item.StorageKey)
		cancel()
		if err != nil {
			logger.Warn("presign for vision failed, skipping visual analysis", logging.Error(err))
			return nil, 0, nil
		}
		analysis, err := o.vision.AnalyzeImageURL(ctx, imageURL, meta)
		if err != nil {
			if vision.IsAuthError(err) {
				return nil, 0, configErrorf("vision credentials rejected: %w", err)
			}
			logger.Warn("vision analysis failed, continuing metadata-only", logging.Error(err))
			return nil, 0, nil
		}
		return &analysis, 1, nil
	}

	durationSeconds := 0.0
	if duration != nil {
		durationSeconds = *duration
	} else if item.DurationSeconds != nil {
		durationSeconds = *item.DurationSeconds
	}
	frames, err := o.sampler.ExtractFrames(ctx, data, durationSeconds)
	if err != nil || len(frames) == 0 {
		logger.Warn("frame sampling produced nothing, skipping visual analysis",
			logging.Int("frames", len(frames)), logging.Error(err))
		return nil, 0, nil
	}
	analysis, err := o.vision.AnalyzeFrames(ctx, frames, meta)
	if err != nil {
		if vision.IsAuthError(err) {
			return nil, len(frames), configErrorf("vision credentials rejected: %w", err)
		}
		logger.Warn("vision analysis failed, continuing metadata-only", logging.Error(err))
		return nil, len(frames), nil
	}
	return &analysis, len(frames), nil
}

// matchConcerts pre-filters the user's concerts to a rough window around the
// capture date and hands them to the engine.
func (o *Orchestrator) matchConcerts(ctx context.Context, logger *slog.Logger, item *library.MediaItem, signals matching.Signals) (matching.Result, error) {
	if signals.TakenAt == nil {
		return matching.Result{Suggestions: []matching.Match{}}, nil
	}
	from := signals.TakenAt.Add(-o.window)
	to := signals.TakenAt.Add(o.window)
	candidates, err := o.store.ConcertsInWindow(ctx, item.UserID, from, to)
	if err != nil {
		return matching.Result{}, upstreamErrorf("load concert candidates: %w", err)
	}
	logger.Debug("matching against candidates", logging.Int("count", len(candidates)))
	return o.matcher.Evaluate(signals, candidates), nil
}

// visualSignals maps a vision analysis onto what the match engine consumes.
func visualSignals(analysis *vision.Analysis) *matching.VisualSignals {
	if analysis == nil {
		return nil
	}
	signals := &matching.VisualSignals{
		ArtistConfidence:  analysis.ArtistConfidence,
		VenueConfidence:   analysis.VenueConfidence,
		OverallConfidence: analysis.OverallConfidence,
	}
	if analysis.Artist != nil {
		signals.ArtistName = *analysis.Artist
	}
	if analysis.Venue != nil {
		signals.VenueName = *analysis.Venue
	}
	if analysis.VenueCity != nil {
		signals.VenueCity = *analysis.VenueCity
	}
	if analysis.TourName != nil {
		signals.TourName = *analysis.TourName
	}
	return signals
}

// enrichArtistIdentity attaches a stable catalog identifier to the matched
// concert's headliner when the catalog is configured. Best-effort.
func (o *Orchestrator) enrichArtistIdentity(ctx context.Context, logger *slog.Logger, concertID string) {
	if o.catalog == nil {
		return
	}
	concert, err := o.store.GetConcert(ctx, concertID)
	if err != nil {
		logger.Debug("catalog enrichment skipped, concert load failed", logging.Error(err))
		return
	}
	for _, artist := range concert.Artists {
		if artist.MBID != "" {
			continue
		}
		hit, err := o.catalog.SearchArtist(ctx, artist.Name)
		if err != nil {
			logger.Debug("catalog lookup failed", logging.String("artist", artist.Name), logging.Error(err))
			continue
		}
		if hit.MBID == "" {
			continue
		}
		if err := o.store.UpdateArtistMBID(ctx, concertID, artist.Position, hit.MBID); err != nil {
			logger.Debug("catalog identifier update failed", logging.Error(err))
		}
	}
}
