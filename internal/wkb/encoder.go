package wkb

import (
	"encoding/binary"
	"math"
)

const (
	wkbPoint = 1

	// SRID flag for EWKB (PostGIS extended WKB)
	wkbSRIDFlag = 0x20000000
)

// SRID4326 is WGS84, the only reference system POI locations use
const SRID4326 = 4326

// Encoder encodes point geometries to EWKB (little-endian, SRID
// embedded). PostGIS accepts these bytes directly in a geometry
// column via COPY.
type Encoder struct {
	buf  []byte
	srid uint32
}

// NewEncoder creates a point encoder with SRID 4326
func NewEncoder() *Encoder {
	return &Encoder{
		buf:  make([]byte, 0, 25),
		srid: SRID4326,
	}
}

// EncodePoint encodes a point as EWKB. The returned slice is reused
// on the next call; copy it if it must outlive that.
func (e *Encoder) EncodePoint(lon, lat float64) []byte {
	// 1 (byte order) + 4 (type|srid flag) + 4 (srid) + 16 (two doubles)
	e.buf = e.buf[:0]

	e.buf = append(e.buf, 0x01)
	e.appendUint32(wkbPoint | wkbSRIDFlag)
	e.appendUint32(e.srid)
	e.appendFloat64(lon)
	e.appendFloat64(lat)

	return e.buf
}

func (e *Encoder) appendUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *Encoder) appendFloat64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	e.buf = append(e.buf, b[:]...)
}
