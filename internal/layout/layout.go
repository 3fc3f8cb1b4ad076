package layout

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/binary"
	"github.com/robert-malhotra/gridbench/internal/message"
)

// ErrOutOfBounds is returned for selections outside the dataset.
var ErrOutOfBounds = errors.New("selection out of bounds")

// Layout reads the raw bytes of a dataset.
type Layout interface {
	// Class returns the layout class.
	Class() message.LayoutClass

	// Read returns every element in row-major order.
	Read() ([]byte, error)

	// ReadSlice returns the count[d] elements from start[d] along each
	// dimension, packed in row-major order.
	ReadSlice(start, count []uint64) ([]byte, error)
}

// New returns the reader for the layout message of a dataset. fp and fill
// may be nil.
func New(
	msg *message.DataLayout,
	ds *message.Dataspace,
	dt *message.Datatype,
	fp *message.FilterPipeline,
	fill *message.FillValue,
	r *binary.Reader,
) (Layout, error) {
	if msg == nil {
		return nil, errors.New("nil layout message")
	}
	if ds == nil || dt == nil {
		return nil, errors.New("layout needs a dataspace and a datatype")
	}
	s := newShape(ds, dt, fill)

	switch msg.Class {
	case message.LayoutCompact:
		return &Compact{shape: s, data: msg.CompactData}, nil
	case message.LayoutContiguous:
		return newContiguous(s, msg, r), nil
	case message.LayoutChunked:
		return newChunked(s, msg, fp, r)
	}
	return nil, fmt.Errorf("%w: %s", message.ErrUnsupported, msg.Class)
}

// shape is what every layout needs to know about the dataset.
type shape struct {
	dims     []uint64
	maxDims  []uint64
	elemSize uint64
	fill     []byte
}

func newShape(ds *message.Dataspace, dt *message.Datatype, fill *message.FillValue) shape {
	s := shape{dims: ds.Dimensions, maxDims: ds.MaxDims, elemSize: uint64(dt.Size)}
	if ds.IsScalar() || len(s.dims) == 0 {
		s.dims = []uint64{1}
		s.maxDims = nil
	}
	if s.maxDims == nil {
		s.maxDims = s.dims
	}
	if fill != nil && uint64(len(fill.Value)) == s.elemSize {
		s.fill = fill.Value
	}
	return s
}

func (s shape) numElements() uint64 {
	n := uint64(1)
	for _, d := range s.dims {
		n *= d
	}
	return n
}

// whole returns the start and count selecting the full dataset.
func (s shape) whole() (start, count []uint64) {
	return make([]uint64, len(s.dims)), s.dims
}

// check validates a selection and returns its size in bytes.
func (s shape) check(start, count []uint64) (uint64, error) {
	if len(start) != len(s.dims) || len(count) != len(s.dims) {
		return 0, fmt.Errorf("%w: selection rank %d/%d, dataset rank %d",
			ErrOutOfBounds, len(start), len(count), len(s.dims))
	}
	n := s.elemSize
	for d := range s.dims {
		if start[d] > s.dims[d] || count[d] > s.dims[d]-start[d] {
			return 0, fmt.Errorf("%w: dimension %d: start %d count %d size %d",
				ErrOutOfBounds, d, start[d], count[d], s.dims[d])
		}
		n *= count[d]
	}
	return n, nil
}

// output returns a selection buffer of n bytes holding the fill value.
func (s shape) output(n uint64) []byte {
	out := make([]byte, n)
	if len(s.fill) == 0 {
		return out
	}
	for i := 0; i < len(out); i += len(s.fill) {
		copy(out[i:], s.fill)
	}
	return out
}

// undefined reports whether a message address points nowhere.
func undefined(r *binary.Reader, addr uint64) bool {
	return addr == message.UndefinedAddress || r.IsUndefinedOffset(addr)
}

// rowMajorStrides returns the byte stride of each dimension.
func rowMajorStrides(dims []uint64, elemSize uint64) []uint64 {
	strides := make([]uint64, len(dims))
	stride := elemSize
	for d := len(dims) - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= dims[d]
	}
	return strides
}

// region places a box inside a row-major array.
type region struct {
	start   []uint64
	strides []uint64
}

func (g region) offset(idx []uint64) uint64 {
	var off uint64
	for d, i := range idx {
		off += (g.start[d] + i) * g.strides[d]
	}
	return off
}

// forEachRun calls fn once per innermost row of a box of the given extent
// with the row's byte offset in src and in dst.
func forEachRun(extent []uint64, src, dst region, fn func(s, d uint64)) {
	for _, n := range extent {
		if n == 0 {
			return
		}
	}
	idx := make([]uint64, len(extent))
	for {
		fn(src.offset(idx), dst.offset(idx))

		d := len(extent) - 2
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < extent[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return
		}
	}
}

// copyBox copies the selection start/count out of a row-major array with
// dimensions dims into a packed buffer.
func copyBox(dst, src []byte, dims, start, count []uint64, elemSize uint64) {
	run := count[len(count)-1] * elemSize
	forEachRun(count,
		region{start: start, strides: rowMajorStrides(dims, elemSize)},
		region{start: make([]uint64, len(count)), strides: rowMajorStrides(count, elemSize)},
		func(s, d uint64) { copy(dst[d:d+run], src[s:s+run]) })
}
