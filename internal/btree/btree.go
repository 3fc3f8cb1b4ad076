// Package btree walks the B-trees HDF5 uses to index group members and
// dataset chunks: version 1 trees ("TREE") for old style groups and chunked
// layouts before version 4, and version 2 trees ("BTHD") for chunk indexes
// of datasets with more than one unlimited dimension.
package btree

import (
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/binary"
)

// Chunk is one stored chunk of a dataset.
type Chunk struct {
	// Offset is the position of the chunk's first element in the dataset.
	Offset     []uint64
	Address    uint64
	Size       uint64 // bytes on disk, after filtering
	FilterMask uint32
}

// Node types of a version 1 tree.
const (
	nodeGroup = 0
	nodeChunk = 1
)

// v1Node reads the header of a version 1 node and returns its level and
// entry count, leaving r at the first key.
func v1Node(r *binary.Reader, typ uint8) (level uint8, n int, err error) {
	sig, err := r.ReadBytes(4)
	if err != nil {
		return 0, 0, err
	}
	if string(sig) != "TREE" {
		return 0, 0, fmt.Errorf("invalid B-tree signature %q at %d", sig, r.Pos()-4)
	}
	hdr, err := r.ReadBytes(4)
	if err != nil {
		return 0, 0, err
	}
	if hdr[0] != typ {
		return 0, 0, fmt.Errorf("B-tree node type %d, want %d", hdr[0], typ)
	}
	// Sibling addresses.
	r.Skip(int64(2 * r.OffsetSize()))
	return hdr[1], int(hdr[2]) | int(hdr[3])<<8, nil
}
