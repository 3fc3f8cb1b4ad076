package message

import (
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/binary"
)

// Attribute is a small named value stored in an object header.
type Attribute struct {
	Version   uint8
	Name      string
	Charset   CharacterSet
	Datatype  *Datatype
	Dataspace *Dataspace
	Data      []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

// NewAttribute returns an attribute holding the encoded data.
func NewAttribute(name string, dt *Datatype, ds *Dataspace, data []byte) *Attribute {
	return &Attribute{Version: 3, Name: name, Datatype: dt, Dataspace: ds, Data: data}
}

func parseAttribute(d *decoder) *Attribute {
	m := &Attribute{Version: d.u8()}
	flags := d.u8()
	nameSize := int(d.u16())
	dtSize := int(d.u16())
	dsSize := int(d.u16())
	switch m.Version {
	case 1:
	case 2, 3:
		if flags&0x03 != 0 && d.err == nil {
			d.err = fmt.Errorf("%w: attribute with shared type or space", ErrUnsupported)
			return m
		}
		if m.Version == 3 {
			m.Charset = CharacterSet(d.u8())
		}
	default:
		if d.err == nil {
			d.err = fmt.Errorf("%w: attribute version %d", ErrUnsupported, m.Version)
		}
		return m
	}
	padded := func(n int) int {
		if m.Version == 1 {
			return n + pad8(n)
		}
		return n
	}

	m.Name = d.cstring(padded(nameSize))
	dt := d.sub(padded(dtSize))
	m.Datatype = parseDatatype(dt)
	ds := d.sub(padded(dsSize))
	m.Dataspace = parseDataspace(ds)
	for _, sub := range []*decoder{dt, ds} {
		if sub.err != nil && d.err == nil {
			d.err = sub.err
		}
	}
	if d.err != nil {
		return m
	}

	n := int(m.Dataspace.NumElements() * uint64(m.Datatype.Size))
	if n > d.remaining() {
		d.err = fmt.Errorf("attribute %q: %w", m.Name, ErrTruncated)
		return m
	}
	m.Data = d.copyBytes(n)
	return m
}

// Encode writes a version 3 attribute message.
func (m *Attribute) Encode(w *binary.Writer) error {
	dt, err := Encode(m.Datatype, w.Config())
	if err != nil {
		return fmt.Errorf("attribute %q: %w", m.Name, err)
	}
	ds, err := Encode(m.Dataspace, w.Config())
	if err != nil {
		return fmt.Errorf("attribute %q: %w", m.Name, err)
	}
	name := append([]byte(m.Name), 0)
	return writeAll(
		func() error { return w.WriteBytes([]byte{3, 0}) },
		func() error { return w.WriteUint16(uint16(len(name))) },
		func() error { return w.WriteUint16(uint16(len(dt))) },
		func() error { return w.WriteUint16(uint16(len(ds))) },
		func() error { return w.WriteUint8(uint8(m.Charset)) },
		func() error { return w.WriteBytes(name) },
		func() error { return w.WriteBytes(dt) },
		func() error { return w.WriteBytes(ds) },
		func() error { return w.WriteBytes(m.Data) },
	)
}
