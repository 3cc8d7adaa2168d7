package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"gigsnap/internal/library"
	"gigsnap/internal/logging"
)

const (
	defaultPollInterval  = 3 * time.Second
	defaultMaxConcurrent = 4
	pollBatchSize        = 32
)

// MediaSource is the slice of the library store the manager needs.
type MediaSource interface {
	ListMediaByStatus(ctx context.Context, status library.Status, limit int) ([]*library.MediaItem, error)
	FailOrphanedProcessing(ctx context.Context) (int64, error)
}

// Analyzer runs the full pipeline for one media item.
type Analyzer interface {
	Analyze(ctx context.Context, mediaID string) error
}

// Manager polls for pending media and dispatches analyses.
type Manager struct {
	store        MediaSource
	analyzer     Analyzer
	logger       *slog.Logger
	pollInterval time.Duration
	sem          chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// inFlight prevents double-dispatch of an item that is still pending in
	// the database because its goroutine has not transitioned it yet.
	inFlightMu sync.Mutex
	inFlight   map[string]struct{}
}

// NewManager constructs a workflow manager. Zero poll interval and
// concurrency take defaults.
func NewManager(store MediaSource, analyzer Analyzer, pollInterval time.Duration, maxConcurrent int, logger *slog.Logger) *Manager {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Manager{
		store:        store,
		analyzer:     analyzer,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		pollInterval: pollInterval,
		sem:          make(chan struct{}, maxConcurrent),
		inFlight:     make(map[string]struct{}),
	}
}

// Start recovers orphaned items and begins background polling.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	orphaned, err := m.store.FailOrphanedProcessing(runCtx)
	if err != nil {
		m.logger.Warn("orphaned processing recovery failed", logging.Error(err))
	} else if orphaned > 0 {
		m.logger.Info("failed orphaned processing items", logging.Int64("count", orphaned))
	}

	go m.run(runCtx)
	return nil
}

// Stop terminates polling and waits for in-flight analyses to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	m.dispatchPending(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.dispatchPending(ctx)
		}
	}
}

// dispatchPending picks up pending items and hands each to an analysis
// goroutine, bounded by the concurrency semaphore.
func (m *Manager) dispatchPending(ctx context.Context) {
	items, err := m.store.ListMediaByStatus(ctx, library.StatusPending, pollBatchSize)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Warn("pending poll failed", logging.Error(err))
		}
		return
	}
	for _, item := range items {
		if !m.claim(item.ID) {
			continue
		}
		select {
		case <-ctx.Done():
			m.release(item.ID)
			return
		case m.sem <- struct{}{}:
		}

		m.wg.Add(1)
		go func(mediaID string) {
			defer m.wg.Done()
			defer func() { <-m.sem }()
			defer m.release(mediaID)
			m.analyzeOne(ctx, mediaID)
		}(item.ID)
	}
}

func (m *Manager) analyzeOne(ctx context.Context, mediaID string) {
	logger := logging.WithMediaItem(m.logger, mediaID)
	if err := m.analyzer.Analyze(ctx, mediaID); err != nil {
		if errors.Is(err, library.ErrInvalidTransition) {
			// Another dispatcher already picked it up.
			logger.Debug("item no longer pending, skipping")
			return
		}
		logger.Error("analysis run failed", logging.Error(err))
	}
}

func (m *Manager) claim(mediaID string) bool {
	m.inFlightMu.Lock()
	defer m.inFlightMu.Unlock()
	if _, busy := m.inFlight[mediaID]; busy {
		return false
	}
	m.inFlight[mediaID] = struct{}{}
	return true
}

func (m *Manager) release(mediaID string) {
	m.inFlightMu.Lock()
	delete(m.inFlight, mediaID)
	m.inFlightMu.Unlock()
}
