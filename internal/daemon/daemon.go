package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"gigsnap/internal/analysis"
	"gigsnap/internal/catalog"
	"gigsnap/internal/config"
	"gigsnap/internal/library"
	"gigsnap/internal/logging"
	"gigsnap/internal/matching"
	"gigsnap/internal/media/ffmpeg"
	"gigsnap/internal/storage"
	"gigsnap/internal/vision"
	"gigsnap/internal/workflow"
)

// Daemon owns the background analysis services and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *library.Store
	workflow *workflow.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New builds the full collaborator graph from configuration and returns a
// daemon ready to start.
func New(ctx context.Context, cfg *config.Config, store *library.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	objects, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	sampler := ffmpeg.NewSampler(
		cfg.FFmpeg.FFmpegBinary,
		cfg.FFmpeg.FFprobeBinary,
		time.Duration(cfg.FFmpeg.TimeoutSeconds)*time.Second,
		logger,
	)

	visionClient := vision.NewClient(vision.Config{
		APIKey:         cfg.Vision.APIKey,
		BaseURL:        cfg.Vision.BaseURL,
		Model:          cfg.Vision.Model,
		Referer:        cfg.Vision.Referer,
		Title:          cfg.Vision.Title,
		TimeoutSeconds: cfg.Vision.TimeoutSeconds,
	}, logger)

	matcher := matching.NewEngine(matching.Policy{
		GPSRadiusKM:         cfg.Matcher.GPSRadiusKM,
		MinDateBufferDays:   cfg.Matcher.MinDateBufferDays,
		SuggestionThreshold: cfg.Matcher.SuggestionThreshold,
		AutoMatchThreshold:  cfg.Matcher.AutoMatchThreshold,
	}, logger)

	var artistCatalog analysis.ArtistCatalog
	if cfg.Catalog.Enabled {
		artistCatalog = catalogAdapter{client: catalog.New(cfg.Catalog, logger)}
	}

	orchestrator := analysis.NewOrchestrator(analysis.Options{
		Store:               store,
		Objects:             objects,
		Sampler:             sampler,
		Vision:              visionClient,
		Matcher:             matcher,
		Catalog:             artistCatalog,
		CandidateWindowDays: cfg.Matcher.CandidateWindowDays,
		StageTimeout:        time.Duration(cfg.Workflow.StageTimeoutSeconds) * time.Second,
		Logger:              logger,
	})

	manager := workflow.NewManager(
		store,
		orchestrator,
		time.Duration(cfg.Workflow.PollIntervalSeconds)*time.Second,
		cfg.Workflow.MaxConcurrent,
		logger,
	)

	lockPath := filepath.Join(cfg.Paths.LogDir, "gigsnapd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: manager,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the workflow manager.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another gigsnapd instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("database", d.store.Path()),
		logging.String("lock_file", d.lockPath))
	return nil
}

// Stop shuts down the workflow manager and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.workflow.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock failed", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Running reports whether the daemon has been started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// catalogAdapter maps the catalog client onto the orchestrator's interface.
type catalogAdapter struct {
	client *catalog.Client
}

func (a catalogAdapter) SearchArtist(ctx context.Context, name string) (analysis.CatalogArtist, error) {
	hit, err := a.client.SearchArtist(ctx, name)
	if err != nil {
		return analysis.CatalogArtist{}, err
	}
	return analysis.CatalogArtist{MBID: hit.MBID, Name: hit.Name}, nil
}
