package message

import (
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/binary"
)

// Registered filter identifiers.
const (
	FilterDeflate     uint16 = 1
	FilterShuffle     uint16 = 2
	FilterFletcher32  uint16 = 3
	FilterSZIP        uint16 = 4
	FilterNBit        uint16 = 5
	FilterScaleOffset uint16 = 6
)

// FilterOptional marks a filter whose failure leaves the chunk unfiltered.
const FilterOptional = 0x0001

// FilterInfo is one stage of a filter pipeline.
type FilterInfo struct {
	ID         uint16
	Name       string
	Flags      uint16
	ClientData []uint32
}

// Optional reports whether the filter may be skipped.
func (f FilterInfo) Optional() bool { return f.Flags&FilterOptional != 0 }

// FilterPipeline lists the filters applied to each chunk, in the order they
// were applied when writing.
type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

func parseFilterPipeline(d *decoder) *FilterPipeline {
	m := &FilterPipeline{Version: d.u8()}
	n := int(d.u8())
	switch m.Version {
	case 1:
		d.skip(6)
	case 2:
	default:
		if d.err == nil {
			d.err = fmt.Errorf("%w: filter pipeline version %d", ErrUnsupported, m.Version)
		}
		return m
	}
	m.Filters = make([]FilterInfo, n)
	for i := range m.Filters {
		f := &m.Filters[i]
		f.ID = d.u16()
		var nameLen int
		if m.Version == 1 || f.ID >= 256 {
			nameLen = int(d.u16())
		}
		f.Flags = d.u16()
		nvalues := int(d.u16())
		if nameLen > 0 {
			f.Name = d.cstring(nameLen)
		}
		f.ClientData = make([]uint32, nvalues)
		for j := range f.ClientData {
			f.ClientData[j] = d.u32()
		}
		if m.Version == 1 && nvalues%2 == 1 {
			d.skip(4)
		}
	}
	return m
}

// Encode writes a version 2 pipeline. Names are only stored for
// unregistered filters.
func (m *FilterPipeline) Encode(w *binary.Writer) error {
	if err := w.WriteBytes([]byte{2, byte(len(m.Filters))}); err != nil {
		return err
	}
	for _, f := range m.Filters {
		var name []byte
		if f.ID >= 256 {
			name = append([]byte(f.Name), 0)
		}
		if err := w.WriteUint16(f.ID); err != nil {
			return err
		}
		if name != nil {
			if err := w.WriteUint16(uint16(len(name))); err != nil {
				return err
			}
		}
		if err := writeAll(
			func() error { return w.WriteUint16(f.Flags) },
			func() error { return w.WriteUint16(uint16(len(f.ClientData))) },
			func() error { return w.WriteBytes(name) },
		); err != nil {
			return err
		}
		for _, v := range f.ClientData {
			if err := w.WriteUint32(v); err != nil {
				return err
			}
		}
	}
	return nil
}
