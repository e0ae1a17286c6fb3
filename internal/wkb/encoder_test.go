package wkb

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodePoint(t *testing.T) {
	enc := NewEncoder()
	b := enc.EncodePoint(-111.891, 40.7608)

	if len(b) != 25 {
		t.Fatalf("expected 25 bytes, got %d", len(b))
	}
	if b[0] != 0x01 {
		t.Errorf("expected little-endian byte order marker, got %#x", b[0])
	}

	geomType := binary.LittleEndian.Uint32(b[1:5])
	if geomType != (wkbPoint | wkbSRIDFlag) {
		t.Errorf("expected point type with SRID flag, got %#x", geomType)
	}

	srid := binary.LittleEndian.Uint32(b[5:9])
	if srid != SRID4326 {
		t.Errorf("expected SRID 4326, got %d", srid)
	}

	lon := math.Float64frombits(binary.LittleEndian.Uint64(b[9:17]))
	lat := math.Float64frombits(binary.LittleEndian.Uint64(b[17:25]))
	if lon != -111.891 {
		t.Errorf("expected lon -111.891, got %v", lon)
	}
	if lat != 40.7608 {
		t.Errorf("expected lat 40.7608, got %v", lat)
	}
}

func TestEncodePointReusesBuffer(t *testing.T) {
	// Callers that keep a batch of encoded points must copy; the
	// encoder overwrites its buffer on the next call
	enc := NewEncoder()
	first := enc.EncodePoint(1, 2)
	enc.EncodePoint(3, 4)

	lon := math.Float64frombits(binary.LittleEndian.Uint64(first[9:17]))
	if lon != 3 {
		t.Errorf("expected the first slice to be overwritten, lon = %v", lon)
	}
}
