package layout

import (
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/gridbench/internal/binary"
	"github.com/robert-malhotra/gridbench/internal/filter"
	"github.com/robert-malhotra/gridbench/internal/message"
)

// Allocator reserves file space.
type Allocator interface {
	Alloc(size uint64) uint64
}

// WriteContiguous writes data as one block and returns its layout.
func WriteContiguous(w *binary.Writer, a Allocator, data []byte) (*message.DataLayout, error) {
	addr := a.Alloc(uint64(len(data)))
	if err := w.At(int64(addr)).WriteBytes(data); err != nil {
		return nil, fmt.Errorf("writing contiguous data: %w", err)
	}
	return message.NewContiguousLayout(addr, uint64(len(data))), nil
}

// WriteChunked cuts row-major data into chunks, runs each through p (which
// may be nil) and writes them with an index. A dataset that fits one chunk
// gets a single chunk index, anything larger a fixed array.
func WriteChunked(w *binary.Writer, a Allocator, data []byte, dims, chunkDims []uint64, elemSize uint32, p *filter.Pipeline) (*message.DataLayout, error) {
	if len(chunkDims) != len(dims) {
		return nil, fmt.Errorf("chunk rank %d does not match dataset rank %d", len(chunkDims), len(dims))
	}
	for d, n := range chunkDims {
		if n == 0 {
			return nil, fmt.Errorf("chunk dimension %d is zero", d)
		}
	}
	if p == nil {
		p = &filter.Pipeline{}
	}

	chunks := SplitIntoChunks(data, dims, chunkDims, elemSize)
	refs := make([]chunkRef, len(chunks))
	for i, chunk := range chunks {
		enc, mask, err := p.Encode(chunk)
		if err != nil {
			return nil, fmt.Errorf("filtering chunk %d: %w", i, err)
		}
		refs[i] = chunkRef{addr: a.Alloc(uint64(len(enc))), size: uint64(len(enc)), mask: mask}
		if err := w.At(int64(refs[i].addr)).WriteBytes(enc); err != nil {
			return nil, fmt.Errorf("writing chunk %d: %w", i, err)
		}
	}

	switch len(refs) {
	case 0:
		return message.NewChunkedLayout(chunkDims, elemSize, message.ChunkIndexSingle, message.UndefinedAddress), nil
	case 1:
		msg := message.NewChunkedLayout(chunkDims, elemSize, message.ChunkIndexSingle, refs[0].addr)
		if !p.Empty() {
			msg.FilteredSize, msg.FilterMask = refs[0].size, refs[0].mask
		}
		return msg, nil
	}

	chunkBytes := uint64(elemSize)
	for _, n := range chunkDims {
		chunkBytes *= n
	}
	addr, pageBits, err := writeFixedArray(w, a, refs, !p.Empty(), chunkBytes)
	if err != nil {
		return nil, err
	}
	msg := message.NewChunkedLayout(chunkDims, elemSize, message.ChunkIndexFixedArray, addr)
	msg.PageBits = pageBits
	return msg, nil
}

// sizeWidth returns the bytes a filtered array entry uses for the stored
// size of a chunk of chunkBytes bytes, which filters may grow a little.
func sizeWidth(chunkBytes uint64) int {
	return min(1+(bits.Len64(chunkBytes)-1+8)/8, 8)
}

// writeFixedArray writes a fixed array index of refs, in chunk grid order,
// with a data block that is never paged.
func writeFixedArray(w *binary.Writer, a Allocator, refs []chunkRef, filtered bool, chunkBytes uint64) (uint64, uint8, error) {
	cfg := w.Config()
	entrySize, client := cfg.OffsetSize, byte(clientChunk)
	if filtered {
		entrySize, client = cfg.OffsetSize+sizeWidth(chunkBytes)+4, clientFilteredChunk
	}
	pageBits := uint8(message.FixedArrayDefaultPageBits)
	if n := bits.Len(uint(len(refs) - 1)); n > int(pageBits) {
		pageBits = uint8(n)
	}

	hdrSize := 12 + cfg.LengthSize + cfg.OffsetSize
	hdrAddr := a.Alloc(uint64(hdrSize))
	dblkAddr := a.Alloc(uint64(10 + cfg.OffsetSize + len(refs)*entrySize))

	var dblk binary.Buffer
	bw := binary.NewWriter(&dblk, cfg)
	err := writeSeq(
		func() error { return bw.WriteBytes([]byte{'F', 'A', 'D', 'B', 0, client}) },
		func() error { return bw.WriteOffset(hdrAddr) },
	)
	for _, ref := range refs {
		if err != nil {
			break
		}
		err = bw.WriteOffset(ref.addr)
		if err == nil && filtered {
			err = writeSeq(
				func() error { return bw.WriteUintN(ref.size, entrySize-cfg.OffsetSize-4) },
				func() error { return bw.WriteUint32(ref.mask) },
			)
		}
	}
	if err != nil {
		return 0, 0, err
	}
	if err := writeChecksummed(w, dblkAddr, dblk.Bytes()); err != nil {
		return 0, 0, fmt.Errorf("writing fixed array data block: %w", err)
	}

	var hdr binary.Buffer
	hw := binary.NewWriter(&hdr, cfg)
	err = writeSeq(
		func() error { return hw.WriteBytes([]byte{'F', 'A', 'H', 'D', 0, client, byte(entrySize), pageBits}) },
		func() error { return hw.WriteLength(uint64(len(refs))) },
		func() error { return hw.WriteOffset(dblkAddr) },
	)
	if err != nil {
		return 0, 0, err
	}
	if err := writeChecksummed(w, hdrAddr, hdr.Bytes()); err != nil {
		return 0, 0, fmt.Errorf("writing fixed array header: %w", err)
	}
	return hdrAddr, pageBits, nil
}

// writeChecksummed writes block at addr followed by its checksum.
func writeChecksummed(w *binary.Writer, addr uint64, block []byte) error {
	bw := w.At(int64(addr))
	if err := bw.WriteBytes(block); err != nil {
		return err
	}
	return bw.WriteUint32(binary.Lookup3Checksum(block))
}

func writeSeq(fns ...func() error) error {
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// SplitIntoChunks cuts row-major data into chunks in row-major chunk grid
// order. Edge chunks are zero padded to the full chunk shape.
func SplitIntoChunks(data []byte, dims, chunkDims []uint64, elemSize uint32) [][]byte {
	rank := len(dims)
	size := uint64(elemSize)
	chunkBytes := size
	nchunks := uint64(1)
	grid := make([]uint64, rank)
	for d := range dims {
		chunkBytes *= chunkDims[d]
		grid[d] = ceilDiv(dims[d], chunkDims[d])
		nchunks *= grid[d]
	}

	src := region{strides: rowMajorStrides(dims, size)}
	dst := region{start: make([]uint64, rank), strides: rowMajorStrides(chunkDims, size)}
	origin := make([]uint64, rank)
	extent := make([]uint64, rank)
	chunks := make([][]byte, 0, nchunks)
	for n := uint64(0); n < nchunks; n++ {
		rem := n
		for d := rank - 1; d >= 0; d-- {
			origin[d] = rem % grid[d] * chunkDims[d]
			rem /= grid[d]
			extent[d] = min(chunkDims[d], dims[d]-origin[d])
		}
		chunk := make([]byte, chunkBytes)
		run := extent[rank-1] * size
		src.start = origin
		forEachRun(extent, src, dst, func(s, d uint64) {
			copy(chunk[d:d+run], data[s:s+run])
		})
		chunks = append(chunks, chunk)
	}
	return chunks
}
