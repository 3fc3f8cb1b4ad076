package layout

import (
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/message"
)

// Compact serves data stored inside the layout message.
type Compact struct {
	shape
	data []byte
}

func (c *Compact) Class() message.LayoutClass { return message.LayoutCompact }

// Size returns the number of stored bytes.
func (c *Compact) Size() int { return len(c.data) }

func (c *Compact) Read() ([]byte, error) {
	return c.ReadSlice(c.whole())
}

func (c *Compact) ReadSlice(start, count []uint64) ([]byte, error) {
	n, err := c.check(start, count)
	if err != nil {
		return nil, err
	}
	if want := c.numElements() * c.elemSize; uint64(len(c.data)) < want {
		return nil, fmt.Errorf("compact data holds %d bytes, dataset needs %d", len(c.data), want)
	}
	out := make([]byte, n)
	copyBox(out, c.data, c.dims, start, count, c.elemSize)
	return out, nil
}
