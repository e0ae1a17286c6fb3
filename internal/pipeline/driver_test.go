package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/mvexel/osm-fourmore/internal/config"
	"github.com/mvexel/osm-fourmore/internal/poi"
)

// fakeSource yields n records in batches of batchSize, failing after
// failAfter batches when failAfter >= 0
type fakeSource struct {
	total     int
	batchSize int
	failAfter int

	emitted int
	batches int
}

func (s *fakeSource) Next(ctx context.Context) ([]poi.POI, error) {
	if s.failAfter >= 0 && s.batches >= s.failAfter {
		return nil, fmt.Errorf("synthetic decode failure")
	}
	if s.emitted >= s.total {
		return nil, io.EOF
	}

	n := s.batchSize
	if remaining := s.total - s.emitted; remaining < n {
		n = remaining
	}

	batch := make([]poi.POI, n)
	for i := range batch {
		batch[i] = poi.POI{
			OsmID:   int64(s.emitted + i + 1),
			OsmType: poi.TypeNode,
			Name:    "Test POI",
			Class:   "food",
		}
	}
	s.emitted += n
	s.batches++
	return batch, nil
}

type fakeStore struct {
	clearErr  error
	failBatch int // 1-based batch number to fail on; 0 never fails

	cleared bool
	batches [][]poi.POI
	loaded  int64
}

func (s *fakeStore) Clear(ctx context.Context) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.cleared = true
	return nil
}

func (s *fakeStore) LoadBatch(ctx context.Context, batch []poi.POI) (int64, error) {
	if s.failBatch > 0 && len(s.batches)+1 == s.failBatch {
		return 0, fmt.Errorf("synthetic load failure")
	}
	s.batches = append(s.batches, batch)
	s.loaded += int64(len(batch))
	return int64(len(batch)), nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BatchSize = 10
	cfg.ProgressInterval = 1000
	cfg.GCInterval = 1000
	cfg.MetricsInterval = 0
	return cfg
}

func TestDriverRunComplete(t *testing.T) {
	source := &fakeSource{total: 35, batchSize: 10, failAfter: -1}
	store := &fakeStore{}
	driver := NewDriver(testConfig(), source, store)

	if driver.State() != StateIdle {
		t.Fatalf("expected idle state, got %s", driver.State())
	}

	stats, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if driver.State() != StateDone {
		t.Errorf("expected done state, got %s", driver.State())
	}
	if !store.cleared {
		t.Error("expected the store to be cleared before loading")
	}
	if stats.RecordsLoaded != 35 {
		t.Errorf("expected 35 records loaded, got %d", stats.RecordsLoaded)
	}
	// 35 records in batches of 10: three full plus one partial
	if stats.Batches != 4 {
		t.Errorf("expected 4 batches, got %d", stats.Batches)
	}
	if len(store.batches) != 4 {
		t.Errorf("expected 4 stored batches, got %d", len(store.batches))
	}
	for i, b := range store.batches[:3] {
		if len(b) != 10 {
			t.Errorf("batch %d: expected 10 records, got %d", i, len(b))
		}
	}
	if len(store.batches[3]) != 5 {
		t.Errorf("final batch: expected 5 records, got %d", len(store.batches[3]))
	}
}

func TestDriverRunEmptySource(t *testing.T) {
	source := &fakeSource{total: 0, batchSize: 10, failAfter: -1}
	store := &fakeStore{}
	driver := NewDriver(testConfig(), source, store)

	stats, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.RecordsLoaded != 0 || stats.Batches != 0 {
		t.Errorf("expected empty run, got %+v", stats)
	}
	if !store.cleared {
		t.Error("clear must still happen for an empty extract")
	}
	if driver.State() != StateDone {
		t.Errorf("expected done state, got %s", driver.State())
	}
}

func TestDriverClearFailure(t *testing.T) {
	source := &fakeSource{total: 10, batchSize: 10, failAfter: -1}
	store := &fakeStore{clearErr: errors.New("permission denied")}
	driver := NewDriver(testConfig(), source, store)

	_, err := driver.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected *RunError, got %T", err)
	}
	if runErr.Phase != PhaseLoad {
		t.Errorf("expected load phase, got %s", runErr.Phase)
	}
	if runErr.Committed != 0 {
		t.Errorf("expected 0 committed, got %d", runErr.Committed)
	}
	if driver.State() != StateAborted {
		t.Errorf("expected aborted state, got %s", driver.State())
	}
}

func TestDriverDecodeFailureKeepsCommitted(t *testing.T) {
	// Source fails after two good batches; the driver reports how much
	// landed and does not roll it back
	source := &fakeSource{total: 100, batchSize: 10, failAfter: 2}
	store := &fakeStore{}
	driver := NewDriver(testConfig(), source, store)

	_, err := driver.Run(context.Background())
	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected *RunError, got %v", err)
	}
	if runErr.Phase != PhaseDecode {
		t.Errorf("expected decode phase, got %s", runErr.Phase)
	}
	if runErr.Committed != 20 {
		t.Errorf("expected 20 committed, got %d", runErr.Committed)
	}
	if store.loaded != 20 {
		t.Errorf("expected the store to keep 20 records, got %d", store.loaded)
	}
	if driver.State() != StateAborted {
		t.Errorf("expected aborted state, got %s", driver.State())
	}
}

func TestDriverLoadFailure(t *testing.T) {
	source := &fakeSource{total: 50, batchSize: 10, failAfter: -1}
	store := &fakeStore{failBatch: 3}
	driver := NewDriver(testConfig(), source, store)

	_, err := driver.Run(context.Background())
	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected *RunError, got %v", err)
	}
	if runErr.Phase != PhaseLoad {
		t.Errorf("expected load phase, got %s", runErr.Phase)
	}
	if runErr.Committed != 20 {
		t.Errorf("expected 20 committed, got %d", runErr.Committed)
	}
}

func TestDriverRunsOnlyOnce(t *testing.T) {
	source := &fakeSource{total: 10, batchSize: 10, failAfter: -1}
	store := &fakeStore{}
	driver := NewDriver(testConfig(), source, store)

	if _, err := driver.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := driver.Run(context.Background()); err == nil {
		t.Error("expected error on second run")
	}
}

func TestRunErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &RunError{Phase: PhaseLoad, Committed: 5, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to see the wrapped error")
	}
	if err.Error() == "" {
		t.Error("expected a message")
	}
}
