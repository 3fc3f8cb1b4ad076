package layout

import (
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/binary"
	"github.com/robert-malhotra/gridbench/internal/message"
)

// sieveBytes bounds the single read used to serve a selection. Selections
// spread over more bytes are read one run at a time.
const sieveBytes = 64 << 10

// Contiguous serves data stored in one block of the file.
type Contiguous struct {
	shape
	address uint64
	size    uint64
	r       *binary.Reader
}

func newContiguous(s shape, msg *message.DataLayout, r *binary.Reader) *Contiguous {
	size := msg.Size
	if size == 0 {
		size = s.numElements() * s.elemSize
	}
	return &Contiguous{shape: s, address: msg.Address, size: size, r: r}
}

func (c *Contiguous) Class() message.LayoutClass { return message.LayoutContiguous }

// Address returns the file address of the data.
func (c *Contiguous) Address() uint64 { return c.address }

// Size returns the data size in bytes.
func (c *Contiguous) Size() uint64 { return c.size }

func (c *Contiguous) Read() ([]byte, error) {
	return c.ReadSlice(c.whole())
}

// ReadSlice reads only the bytes covering the selection. Storage that was
// never allocated reads as the fill value.
func (c *Contiguous) ReadSlice(start, count []uint64) ([]byte, error) {
	n, err := c.check(start, count)
	if err != nil {
		return nil, err
	}
	if n == 0 || undefined(c.r, c.address) {
		return c.output(n), nil
	}

	strides := rowMajorStrides(c.dims, c.elemSize)
	var first, last uint64
	for d := range c.dims {
		first += start[d] * strides[d]
		last += (start[d] + count[d] - 1) * strides[d]
	}
	span := last - first + c.elemSize
	if first+span > c.size {
		return nil, fmt.Errorf("selection ends at byte %d of %d byte contiguous data", first+span, c.size)
	}

	out := make([]byte, n)
	run := count[len(count)-1] * c.elemSize
	src := region{start: start, strides: strides}
	dst := region{start: make([]uint64, len(count)), strides: rowMajorStrides(count, c.elemSize)}

	if span <= sieveBytes {
		block, err := c.r.At(int64(c.address + first)).ReadBytes(int(span))
		if err != nil {
			return nil, fmt.Errorf("reading contiguous data: %w", err)
		}
		forEachRun(count, src, dst, func(s, d uint64) {
			copy(out[d:d+run], block[s-first:s-first+run])
		})
		return out, nil
	}

	forEachRun(count, src, dst, func(s, d uint64) {
		if err != nil {
			return
		}
		var b []byte
		if b, err = c.r.At(int64(c.address + s)).ReadBytes(int(run)); err != nil {
			err = fmt.Errorf("reading contiguous run at %d: %w", s, err)
			return
		}
		copy(out[d:d+run], b)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
