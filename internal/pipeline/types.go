package pipeline

import (
	"context"
	"fmt"

	"github.com/mvexel/osm-fourmore/internal/poi"
)

// Phase names the stage of a run an error surfaced in, so an operator
// knows whether to fix the mapping, the extract, or the database
// before retrying the rebuild.
type Phase string

const (
	PhaseValidate Phase = "validate"
	PhaseDecode   Phase = "decode"
	PhaseLoad     Phase = "load"
)

// RunError wraps a fatal pipeline error with the failing phase and the
// number of records committed before the failure. Batches already
// committed stay in the destination; the run is not atomic.
type RunError struct {
	Phase     Phase
	Committed int64
	Err       error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s phase failed after %d records committed: %v", e.Phase, e.Committed, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// BatchSource yields POI batches in order. It is finite, single-pass,
// and not restartable; io.EOF marks exhaustion.
type BatchSource interface {
	Next(ctx context.Context) ([]poi.POI, error)
}

// BatchStore is the destination side of a run
type BatchStore interface {
	Clear(ctx context.Context) error
	LoadBatch(ctx context.Context, batch []poi.POI) (int64, error)
}

// State is the driver's position in its lifecycle
type State int

const (
	StateIdle State = iota
	StateClearing
	StateStreaming
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClearing:
		return "clearing"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// RunStats holds the outcome of a completed run
type RunStats struct {
	RecordsLoaded int64
	Batches       int64
}

// ProducerStats counts what the producer saw and kept
type ProducerStats struct {
	Nodes     int64 // Tagged elements scanned in pass 2
	Ways      int64
	Relations int64 // Seen and skipped; relations are out of scope
	Emitted   int64 // POIs that survived classification and reduction
	Dropped   int64 // Rejected per-element; expected for most elements
}
