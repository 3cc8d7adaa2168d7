package workflow

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gigsnap/internal/library"
	"gigsnap/internal/logging"
)

type stubSource struct {
	mu       sync.Mutex
	pending  []*library.MediaItem
	orphaned int64
}

func (s *stubSource) ListMediaByStatus(ctx context.Context, status library.Status, limit int) ([]*library.MediaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.pending
	s.pending = nil
	return items, nil
}

func (s *stubSource) FailOrphanedProcessing(ctx context.Context) (int64, error) {
	return s.orphaned, nil
}

type countingAnalyzer struct {
	mu       sync.Mutex
	analyzed []string
	active   int32
	maxSeen  int32
	block    time.Duration
}

func (a *countingAnalyzer) Analyze(ctx context.Context, mediaID string) error {
	current := atomic.AddInt32(&a.active, 1)
	defer atomic.AddInt32(&a.active, -1)
	for {
		max := atomic.LoadInt32(&a.maxSeen)
		if current <= max || atomic.CompareAndSwapInt32(&a.maxSeen, max, current) {
			break
		}
	}
	if a.block > 0 {
		time.Sleep(a.block)
	}
	a.mu.Lock()
	a.analyzed = append(a.analyzed, mediaID)
	a.mu.Unlock()
	return nil
}

func pendingItems(ids ...string) []*library.MediaItem {
	items := make([]*library.MediaItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, &library.MediaItem{ID: id, AnalysisStatus: library.StatusPending})
	}
	return items
}

func TestManagerDispatchesPendingItems(t *testing.T) {
	source := &stubSource{pending: pendingItems("a", "b", "c")}
	analyzer := &countingAnalyzer{}
	manager := NewManager(source, analyzer, 10*time.Millisecond, 2, logging.NewNop())

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		analyzer.mu.Lock()
		done := len(analyzer.analyzed)
		analyzer.mu.Unlock()
		if done == 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("analyzed %d of 3 items before deadline", done)
		}
		time.Sleep(5 * time.Millisecond)
	}
	manager.Stop()
}

func TestManagerBoundsConcurrency(t *testing.T) {
	source := &stubSource{pending: pendingItems("a", "b", "c", "d", "e", "f")}
	analyzer := &countingAnalyzer{block: 30 * time.Millisecond}
	manager := NewManager(source, analyzer, 10*time.Millisecond, 2, logging.NewNop())

	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for {
		analyzer.mu.Lock()
		done := len(analyzer.analyzed)
		analyzer.mu.Unlock()
		if done == 6 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("analyzed %d of 6 items before deadline", done)
		}
		time.Sleep(5 * time.Millisecond)
	}
	manager.Stop()
	if max := atomic.LoadInt32(&analyzer.maxSeen); max > 2 {
		t.Fatalf("max concurrent analyses = %d, want <= 2", max)
	}
}

func TestManagerStartTwiceFails(t *testing.T) {
	manager := NewManager(&stubSource{}, &countingAnalyzer{}, time.Second, 1, logging.NewNop())
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer manager.Stop()
	if err := manager.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail")
	}
}

func TestManagerStopIsIdempotent(t *testing.T) {
	manager := NewManager(&stubSource{}, &countingAnalyzer{}, time.Second, 1, logging.NewNop())
	if err := manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	manager.Stop()
	manager.Stop()
}
