package btree

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	bin "github.com/robert-malhotra/gridbench/internal/binary"
)

// Version 2 tree record types for chunk indexes.
const (
	RecordChunk         = 10
	RecordFilteredChunk = 11
)

// v2Prefix is the signature, version, type and checksum every version 2
// node carries.
const v2Prefix = 10

type v2Tree struct {
	r          *bin.Reader
	typ        uint8
	nodeSize   int
	recordSize int
	depth      int
	// nrecWidth is the width of a child's record count; cumWidth[d] the
	// width of the total record count below a child at depth d.
	nrecWidth int
	cumWidth  []int
}

// encWidth returns the bytes used to store counts up to n.
func encWidth(n uint64) int {
	if n == 0 {
		return 1
	}
	return (bits.Len64(n)-1)/8 + 1
}

func readV2Header(r *bin.Reader, address uint64) (*v2Tree, uint64, int, error) {
	hr := r.At(int64(address))
	hdr, err := hr.ReadBytes(16)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading B-tree header: %w", err)
	}
	if string(hdr[:4]) != "BTHD" {
		return nil, 0, 0, fmt.Errorf("invalid B-tree header signature %q", hdr[:4])
	}
	if hdr[4] != 0 {
		return nil, 0, 0, fmt.Errorf("unsupported B-tree version %d", hdr[4])
	}
	t := &v2Tree{
		r:          r,
		typ:        hdr[5],
		nodeSize:   int(binary.LittleEndian.Uint32(hdr[6:])),
		recordSize: int(binary.LittleEndian.Uint16(hdr[10:])),
		depth:      int(binary.LittleEndian.Uint16(hdr[12:])),
	}
	root, err := hr.ReadOffset()
	if err != nil {
		return nil, 0, 0, err
	}
	rootN, err := hr.ReadUint16()
	if err != nil {
		return nil, 0, 0, err
	}
	if t.recordSize == 0 || t.nodeSize <= v2Prefix {
		return nil, 0, 0, fmt.Errorf("invalid B-tree node size %d, record size %d", t.nodeSize, t.recordSize)
	}

	leafMax := uint64((t.nodeSize - v2Prefix) / t.recordSize)
	t.nrecWidth = encWidth(leafMax)
	t.cumWidth = make([]int, t.depth+1)
	cum := leafMax
	for d := 1; d <= t.depth; d++ {
		ptr := r.OffsetSize() + t.nrecWidth
		if d > 1 {
			ptr += t.cumWidth[d-1]
		}
		max := uint64((t.nodeSize - v2Prefix - ptr) / (t.recordSize + ptr))
		cum = (max+1)*cum + max
		t.cumWidth[d] = encWidth(cum)
	}
	return t, root, int(rootN), nil
}

// records calls fn with every record below the node at address.
func (t *v2Tree) records(address uint64, n, depth int, fn func([]byte) error) error {
	nr := t.r.At(int64(address))
	hdr, err := nr.ReadBytes(6)
	if err != nil {
		return err
	}
	want := "BTLF"
	if depth > 0 {
		want = "BTIN"
	}
	if string(hdr[:4]) != want {
		return fmt.Errorf("invalid B-tree node signature %q, want %q", hdr[:4], want)
	}
	if hdr[5] != t.typ {
		return fmt.Errorf("B-tree node type %d, want %d", hdr[5], t.typ)
	}

	recs, err := nr.ReadBytes(n * t.recordSize)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := fn(recs[i*t.recordSize : (i+1)*t.recordSize]); err != nil {
			return err
		}
	}
	if depth == 0 {
		return nil
	}

	for i := 0; i <= n; i++ {
		child, err := nr.ReadOffset()
		if err != nil {
			return err
		}
		childN, err := nr.ReadUintN(t.nrecWidth)
		if err != nil {
			return err
		}
		if depth > 1 {
			nr.Skip(int64(t.cumWidth[depth-1]))
		}
		if err := t.records(child, int(childN), depth-1, fn); err != nil {
			return err
		}
	}
	return nil
}

// ReadChunksV2 returns every chunk in the version 2 chunk B-tree at
// address. Records hold chunk offsets scaled by chunkDims.
func ReadChunksV2(r *bin.Reader, address uint64, chunkDims []uint64) ([]Chunk, error) {
	t, root, n, err := readV2Header(r, address)
	if err != nil {
		return nil, err
	}
	if t.typ != RecordChunk && t.typ != RecordFilteredChunk {
		return nil, fmt.Errorf("B-tree record type %d is not a chunk index", t.typ)
	}

	osize := r.OffsetSize()
	rank := len(chunkDims)
	sizeWidth := 0
	if t.typ == RecordFilteredChunk {
		sizeWidth = t.recordSize - osize - 4 - 8*rank
		if sizeWidth < 1 || sizeWidth > 8 {
			return nil, fmt.Errorf("invalid chunk record size %d", t.recordSize)
		}
	}

	var chunks []Chunk
	if n == 0 {
		return chunks, nil
	}
	err = t.records(root, n, t.depth, func(rec []byte) error {
		c := Chunk{Address: uintLE(rec[:osize]), Offset: make([]uint64, rank)}
		rec = rec[osize:]
		if t.typ == RecordFilteredChunk {
			c.Size = uintLE(rec[:sizeWidth])
			c.FilterMask = binary.LittleEndian.Uint32(rec[sizeWidth:])
			rec = rec[sizeWidth+4:]
		}
		for d := range c.Offset {
			c.Offset[d] = binary.LittleEndian.Uint64(rec[8*d:]) * chunkDims[d]
		}
		if !r.IsUndefinedOffset(c.Address) {
			chunks = append(chunks, c)
		}
		return nil
	})
	return chunks, err
}

func uintLE(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
