package layout

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/robert-malhotra/gridbench/internal/binary"
	"github.com/robert-malhotra/gridbench/internal/filter"
	"github.com/robert-malhotra/gridbench/internal/message"
)

// CacheBytes is the decoded chunk cache size of each chunked dataset.
// Chunks larger than the cache are never cached.
var CacheBytes uint64 = 1 << 20

// Chunked serves data stored in chunks.
type Chunked struct {
	shape
	chunkDims  []uint64
	chunkBytes uint64
	g          grid
	index      chunkIndex
	pipeline   *filter.Pipeline
	cache      *lru.Cache[uint64, []byte]
	r          *binary.Reader
}

func newChunked(s shape, msg *message.DataLayout, fp *message.FilterPipeline, r *binary.Reader) (*Chunked, error) {
	if len(msg.ChunkDims) != len(s.dims) {
		return nil, fmt.Errorf("chunk rank %d does not match dataset rank %d", len(msg.ChunkDims), len(s.dims))
	}
	for d, n := range msg.ChunkDims {
		if n == 0 {
			return nil, fmt.Errorf("chunk dimension %d is zero", d)
		}
	}
	p, err := filter.NewPipeline(fp)
	if err != nil {
		return nil, err
	}

	c := &Chunked{
		shape:      s,
		chunkDims:  msg.ChunkDims,
		chunkBytes: msg.ChunkBytes(),
		g:          newGrid(s, msg.ChunkDims),
		pipeline:   p,
		r:          r,
	}
	if uint64(msg.ElementSize) != c.elemSize {
		return nil, fmt.Errorf("chunk element size %d does not match datatype size %d", msg.ElementSize, c.elemSize)
	}
	if c.index, err = newIndex(msg, c.g, c.chunkBytes, r); err != nil {
		return nil, err
	}
	if n := CacheBytes / max(c.chunkBytes, 1); n > 0 {
		c.cache, _ = lru.New[uint64, []byte](int(min(n, 1<<16)))
	}
	return c, nil
}

func (c *Chunked) Class() message.LayoutClass { return message.LayoutChunked }

// ChunkDims returns the chunk shape.
func (c *Chunked) ChunkDims() []uint64 { return c.chunkDims }

func (c *Chunked) Read() ([]byte, error) {
	return c.ReadSlice(c.whole())
}

// ReadSlice reads and decodes only the chunks overlapping the selection.
func (c *Chunked) ReadSlice(start, count []uint64) ([]byte, error) {
	n, err := c.check(start, count)
	if err != nil {
		return nil, err
	}
	out := c.output(n)
	if n == 0 {
		return out, nil
	}

	rank := len(c.dims)
	lo := make([]uint64, rank)
	hi := make([]uint64, rank)
	for d := range c.dims {
		lo[d] = start[d] / c.chunkDims[d]
		hi[d] = (start[d] + count[d] - 1) / c.chunkDims[d]
	}

	outStrides := rowMajorStrides(count, c.elemSize)
	chunkStrides := rowMajorStrides(c.chunkDims, c.elemSize)
	coords := append([]uint64(nil), lo...)
	from := make([]uint64, rank)
	at := make([]uint64, rank)
	extent := make([]uint64, rank)
	for {
		data, err := c.chunk(coords)
		if err != nil {
			return nil, err
		}
		if data != nil {
			// Overlap of the chunk and the selection.
			for d := range coords {
				origin := coords[d] * c.chunkDims[d]
				first := max(origin, start[d])
				end := min(origin+c.chunkDims[d], start[d]+count[d])
				from[d] = first - origin
				at[d] = first - start[d]
				extent[d] = end - first
			}
			run := extent[rank-1] * c.elemSize
			forEachRun(extent,
				region{start: from, strides: chunkStrides},
				region{start: at, strides: outStrides},
				func(s, d uint64) { copy(out[d:d+run], data[s:s+run]) })
		}

		d := rank - 1
		for ; d >= 0; d-- {
			coords[d]++
			if coords[d] <= hi[d] {
				break
			}
			coords[d] = lo[d]
		}
		if d < 0 {
			return out, nil
		}
	}
}

// chunk returns the decoded chunk at coords, nil if it was never written.
func (c *Chunked) chunk(coords []uint64) ([]byte, error) {
	key := c.g.linear(coords)
	if c.cache != nil {
		if data, ok := c.cache.Get(key); ok {
			return data, nil
		}
	}

	ref, ok, err := c.index.lookup(coords)
	if err != nil {
		return nil, fmt.Errorf("chunk %v: %w", coords, err)
	}
	if !ok {
		return nil, nil
	}
	data, err := c.r.At(int64(ref.addr)).ReadBytes(int(ref.size))
	if err != nil {
		return nil, fmt.Errorf("reading chunk %v: %w", coords, err)
	}
	if !c.pipeline.Empty() {
		if data, err = c.pipeline.Decode(data, ref.mask); err != nil {
			return nil, fmt.Errorf("decoding chunk %v: %w", coords, err)
		}
	}
	if uint64(len(data)) < c.chunkBytes {
		return nil, fmt.Errorf("chunk %v holds %d bytes, want %d", coords, len(data), c.chunkBytes)
	}

	if c.cache != nil {
		c.cache.Add(key, data)
	}
	return data, nil
}
