package message

import (
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/binary"
)

// Space allocation times.
const (
	AllocEarly       = 1
	AllocLate        = 2
	AllocIncremental = 3
)

// FillValue is the value of elements that were never written. Value is nil
// when the library default of all zero bytes applies.
type FillValue struct {
	Version   uint8
	AllocTime uint8
	WriteTime uint8
	Value     []byte
}

func (m *FillValue) Type() Type { return TypeFillValue }

// NewFillValue returns a fill value message holding value, which may be nil.
func NewFillValue(value []byte) *FillValue {
	return &FillValue{Version: 3, AllocTime: AllocIncremental, WriteTime: 2, Value: value}
}

func parseFillValue(d *decoder) *FillValue {
	m := &FillValue{Version: d.u8()}
	switch m.Version {
	case 1, 2:
		m.AllocTime = d.u8()
		m.WriteTime = d.u8()
		defined := d.u8() != 0
		if m.Version == 1 || defined {
			m.Value = fillBytes(d)
		}
	case 3:
		flags := d.u8()
		m.AllocTime = flags & 0x03
		m.WriteTime = flags >> 2 & 0x03
		if flags&0x20 != 0 {
			m.Value = fillBytes(d)
		}
	default:
		if d.err == nil {
			d.err = fmt.Errorf("%w: fill value version %d", ErrUnsupported, m.Version)
		}
	}
	return m
}

func parseOldFillValue(d *decoder) *FillValue {
	return &FillValue{Value: fillBytes(d)}
}

func fillBytes(d *decoder) []byte {
	n := int(d.u32())
	if n == 0 {
		return nil
	}
	return d.copyBytes(n)
}

// Encode writes a version 3 fill value message.
func (m *FillValue) Encode(w *binary.Writer) error {
	flags := m.AllocTime&0x03 | m.WriteTime&0x03<<2
	if m.Value == nil {
		return w.WriteBytes([]byte{3, flags})
	}
	return writeAll(
		func() error { return w.WriteBytes([]byte{3, flags | 0x20}) },
		func() error { return w.WriteUint32(uint32(len(m.Value))) },
		func() error { return w.WriteBytes(m.Value) },
	)
}
