package layout

import (
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/binary"
	"github.com/robert-malhotra/gridbench/internal/btree"
	"github.com/robert-malhotra/gridbench/internal/message"
)

// chunkRef locates one stored chunk.
type chunkRef struct {
	addr uint64
	size uint64 // bytes on disk
	mask uint32
}

// chunkIndex finds stored chunks by their coordinates in the chunk grid.
type chunkIndex interface {
	// lookup returns ok false for a chunk that was never written.
	lookup(coords []uint64) (ref chunkRef, ok bool, err error)
}

// grid numbers the chunks of a dataset.
type grid struct {
	chunks []uint64 // chunks per dimension
	max    []uint64 // chunks per dimension at the maximum extent, 0 if unlimited
	unlim  int      // unlimited dimension, -1 if none
}

func ceilDiv(a, b uint64) uint64 { return (a + b - 1) / b }

func newGrid(s shape, chunkDims []uint64) grid {
	g := grid{
		chunks: make([]uint64, len(chunkDims)),
		max:    make([]uint64, len(chunkDims)),
		unlim:  -1,
	}
	for d, c := range chunkDims {
		g.chunks[d] = ceilDiv(s.dims[d], c)
		if s.maxDims[d] == message.Unlimited {
			g.unlim = d
		} else {
			g.max[d] = ceilDiv(s.maxDims[d], c)
		}
	}
	return g
}

// linear returns the row-major position of coords in the current grid.
func (g grid) linear(coords []uint64) uint64 {
	var idx uint64
	for d, c := range coords {
		idx = idx*g.chunks[d] + c
	}
	return idx
}

// arrayIndex returns the element that array based indexes keep coords at:
// row-major over the maximum grid, with the unlimited dimension slowest.
func (g grid) arrayIndex(coords []uint64) uint64 {
	var idx uint64
	if g.unlim > 0 {
		idx = coords[g.unlim]
	}
	for d, c := range coords {
		if d != g.unlim || g.unlim == 0 {
			idx = idx*g.max[d] + c
		}
	}
	return idx
}

type emptyIndex struct{}

func (emptyIndex) lookup([]uint64) (chunkRef, bool, error) { return chunkRef{}, false, nil }

type singleIndex struct{ ref chunkRef }

func (x singleIndex) lookup([]uint64) (chunkRef, bool, error) { return x.ref, true, nil }

// implicitIndex holds chunks back to back in array index order.
type implicitIndex struct {
	addr       uint64
	chunkBytes uint64
	g          grid
}

func (x implicitIndex) lookup(coords []uint64) (chunkRef, bool, error) {
	return chunkRef{addr: x.addr + x.g.arrayIndex(coords)*x.chunkBytes, size: x.chunkBytes}, true, nil
}

// treeIndex is a B-tree index, loaded whole on first use.
type treeIndex struct {
	load       func() ([]btree.Chunk, error)
	chunkDims  []uint64
	chunkBytes uint64
	g          grid
	refs       map[uint64]chunkRef
}

func (x *treeIndex) lookup(coords []uint64) (chunkRef, bool, error) {
	if x.refs == nil {
		chunks, err := x.load()
		if err != nil {
			return chunkRef{}, false, fmt.Errorf("reading chunk B-tree: %w", err)
		}
		x.refs = make(map[uint64]chunkRef, len(chunks))
		c := make([]uint64, len(x.chunkDims))
	next:
		for _, ch := range chunks {
			for d := range c {
				c[d] = ch.Offset[d] / x.chunkDims[d]
				if c[d] >= x.g.chunks[d] {
					continue next
				}
			}
			ref := chunkRef{addr: ch.Address, size: ch.Size, mask: ch.FilterMask}
			if ref.size == 0 {
				ref.size = x.chunkBytes
			}
			x.refs[x.g.linear(c)] = ref
		}
	}
	ref, ok := x.refs[x.g.linear(coords)]
	return ref, ok, nil
}

// newIndex returns the chunk index named by a layout message.
func newIndex(msg *message.DataLayout, g grid, chunkBytes uint64, r *binary.Reader) (chunkIndex, error) {
	if undefined(r, msg.Address) {
		return emptyIndex{}, nil
	}
	switch msg.IndexType {
	case message.ChunkIndexSingle:
		ref := chunkRef{addr: msg.Address, size: chunkBytes}
		if msg.Flags&message.LayoutFlagSingleFiltered != 0 {
			ref.size, ref.mask = msg.FilteredSize, msg.FilterMask
		}
		return singleIndex{ref}, nil
	case message.ChunkIndexImplicit:
		return implicitIndex{addr: msg.Address, chunkBytes: chunkBytes, g: g}, nil
	case message.ChunkIndexFixedArray:
		return openFixedArray(r, msg.Address, g, chunkBytes)
	case message.ChunkIndexExtensibleArray:
		return openExtensibleArray(r, msg.Address, g, chunkBytes)
	case message.ChunkIndexBTreeV1:
		rank := len(msg.ChunkDims)
		return &treeIndex{
			load:      func() ([]btree.Chunk, error) { return btree.ReadChunks(r, msg.Address, rank) },
			chunkDims: msg.ChunkDims, chunkBytes: chunkBytes, g: g,
		}, nil
	case message.ChunkIndexBTreeV2:
		return &treeIndex{
			load:      func() ([]btree.Chunk, error) { return btree.ReadChunksV2(r, msg.Address, msg.ChunkDims) },
			chunkDims: msg.ChunkDims, chunkBytes: chunkBytes, g: g,
		}, nil
	}
	return nil, fmt.Errorf("%w: chunk index type %d", message.ErrUnsupported, msg.IndexType)
}

// readEntry reads an array index element at pos: an address, followed for
// filtered chunks by the stored size and the filter mask.
func readEntry(r *binary.Reader, pos uint64, entrySize int, filtered bool, chunkBytes uint64) (chunkRef, bool, error) {
	er := r.At(int64(pos))
	addr, err := er.ReadOffset()
	if err != nil {
		return chunkRef{}, false, err
	}
	if er.IsUndefinedOffset(addr) {
		return chunkRef{}, false, nil
	}
	ref := chunkRef{addr: addr, size: chunkBytes}
	if filtered {
		if ref.size, err = er.ReadUintN(entrySize - er.OffsetSize() - 4); err != nil {
			return chunkRef{}, false, err
		}
		if ref.mask, err = er.ReadUint32(); err != nil {
			return chunkRef{}, false, err
		}
	}
	return ref, true, nil
}
