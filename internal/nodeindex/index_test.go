package nodeindex

import (
	"math"
	"path/filepath"
	"testing"
)

func TestPutGetRoundtrip(t *testing.T) {
	idx, err := Create(filepath.Join(t.TempDir(), "node_index.bin"))
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	defer idx.Close()

	tests := []struct {
		nodeID   int64
		lat, lon float64
	}{
		{1, 40.7608, -111.891},
		{42, -33.8688, 151.2093},
		{7_000_000_000, 51.5074, -0.1278},
	}

	for _, tt := range tests {
		idx.Put(tt.nodeID, tt.lat, tt.lon)
	}

	for _, tt := range tests {
		lat, lon, ok := idx.Get(tt.nodeID)
		if !ok {
			t.Errorf("node %d: expected a stored coordinate", tt.nodeID)
			continue
		}
		// Fixed-point 1e7 storage keeps about 1cm of precision
		if math.Abs(lat-tt.lat) > 1e-6 || math.Abs(lon-tt.lon) > 1e-6 {
			t.Errorf("node %d: got (%v, %v), want (%v, %v)", tt.nodeID, lat, lon, tt.lat, tt.lon)
		}
	}
}

func TestGetAbsentNode(t *testing.T) {
	idx, err := Create(filepath.Join(t.TempDir(), "node_index.bin"))
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	defer idx.Close()

	if _, _, ok := idx.Get(12345); ok {
		t.Error("expected miss for a node that was never stored")
	}
}

func TestOutOfRangeNode(t *testing.T) {
	idx, err := Create(filepath.Join(t.TempDir(), "node_index.bin"))
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	defer idx.Close()

	// Out-of-range writes are silently dropped, reads miss
	idx.Put(-1, 1, 1)
	idx.Put(maxNodeID+1, 1, 1)

	if _, _, ok := idx.Get(-1); ok {
		t.Error("expected miss for negative node ID")
	}
	if _, _, ok := idx.Get(maxNodeID + 1); ok {
		t.Error("expected miss for node ID beyond the index")
	}
}
