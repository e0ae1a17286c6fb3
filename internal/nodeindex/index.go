package nodeindex

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

const (
	// Each entry: lat (int32) + lon (int32), fixed-point at 1e7
	entrySize = 8
	// Upper bound on node IDs we can index; the file is sparse so
	// address space, not disk, is what this costs
	maxNodeID = 10_000_000_000
)

// Index is a memory-mapped node coordinate store. A node's entry
// lives at offset nodeID*8, giving O(1) lookup during way geometry
// resolution without holding coordinates on the heap.
type Index struct {
	file *os.File
	data mmap.MMap
	size int64
}

// Create creates a new sparse index file at path, truncating any
// existing one
func Create(path string) (*Index, error) {
	size := int64(maxNodeID) * entrySize

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create node index: %w", err)
	}

	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to size node index: %w", err)
	}

	data, err := mmap.MapRegion(f, int(size), mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap node index: %w", err)
	}

	return &Index{file: f, data: data, size: size}, nil
}

// Put stores a node's coordinate
func (x *Index) Put(nodeID int64, lat, lon float64) {
	if nodeID < 0 || nodeID >= maxNodeID {
		return
	}

	offset := nodeID * entrySize
	binary.LittleEndian.PutUint32(x.data[offset:], uint32(int32(lat*1e7)))
	binary.LittleEndian.PutUint32(x.data[offset+4:], uint32(int32(lon*1e7)))
}

// Get retrieves a node's coordinate. Returns ok=false for nodes that
// were never stored. A node at exactly (0, 0) is indistinguishable
// from an absent one; nothing real is mapped at null island.
func (x *Index) Get(nodeID int64) (lat, lon float64, ok bool) {
	if nodeID < 0 || nodeID >= maxNodeID {
		return 0, 0, false
	}

	offset := nodeID * entrySize
	latInt := int32(binary.LittleEndian.Uint32(x.data[offset:]))
	lonInt := int32(binary.LittleEndian.Uint32(x.data[offset+4:]))

	if latInt == 0 && lonInt == 0 {
		return 0, 0, false
	}

	return float64(latInt) / 1e7, float64(lonInt) / 1e7, true
}

// Close unmaps and closes the index. The backing file is left on disk
// for the caller to remove.
func (x *Index) Close() error {
	if err := x.data.Unmap(); err != nil {
		x.file.Close()
		return err
	}
	return x.file.Close()
}
