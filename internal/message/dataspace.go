package message

import (
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/binary"
)

// DataspaceType is the kind of a dataspace.
type DataspaceType uint8

// Dataspace kinds.
const (
	DataspaceScalar DataspaceType = 0
	DataspaceSimple DataspaceType = 1
	DataspaceNull   DataspaceType = 2
)

// Unlimited is the maximum size of an extendible dimension.
const Unlimited = ^uint64(0)

// Dataspace describes the shape of a dataset or attribute.
type Dataspace struct {
	Version    uint8
	SpaceType  DataspaceType
	Dimensions []uint64
	MaxDims    []uint64 // nil when equal to Dimensions
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NewDataspace returns a simple dataspace. maxDims may be nil.
func NewDataspace(dims, maxDims []uint64) *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceSimple, Dimensions: dims, MaxDims: maxDims}
}

// NewScalarDataspace returns a dataspace holding one element.
func NewScalarDataspace() *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceScalar}
}

// IsScalar reports whether the dataspace holds a single element without
// dimensions.
func (m *Dataspace) IsScalar() bool {
	return m.SpaceType == DataspaceScalar
}

// Rank returns the number of dimensions.
func (m *Dataspace) Rank() int { return len(m.Dimensions) }

// NumElements returns the number of elements in the dataspace.
func (m *Dataspace) NumElements() uint64 {
	switch m.SpaceType {
	case DataspaceScalar:
		return 1
	case DataspaceNull:
		return 0
	}
	n := uint64(1)
	for _, d := range m.Dimensions {
		n *= d
	}
	return n
}

func parseDataspace(d *decoder) *Dataspace {
	m := &Dataspace{Version: d.u8()}
	rank := int(d.u8())
	flags := d.u8()
	switch m.Version {
	case 1:
		d.skip(5)
		m.SpaceType = DataspaceSimple
		if rank == 0 {
			m.SpaceType = DataspaceScalar
		}
	case 2:
		m.SpaceType = DataspaceType(d.u8())
	default:
		if d.err == nil {
			d.err = fmt.Errorf("%w: dataspace version %d", ErrUnsupported, m.Version)
		}
		return m
	}
	if rank > 32 && d.err == nil {
		d.err = fmt.Errorf("dataspace rank %d too large", rank)
		return m
	}
	if rank > 0 {
		m.Dimensions = make([]uint64, rank)
		for i := range m.Dimensions {
			m.Dimensions[i] = d.length()
		}
	}
	if flags&0x01 != 0 {
		m.MaxDims = make([]uint64, rank)
		for i := range m.MaxDims {
			m.MaxDims[i] = d.length()
		}
	}
	return m
}

// Encode writes a version 2 dataspace message.
func (m *Dataspace) Encode(w *binary.Writer) error {
	var flags uint8
	if m.MaxDims != nil {
		flags |= 0x01
	}
	if err := writeAll(
		func() error { return w.WriteUint8(2) },
		func() error { return w.WriteUint8(uint8(len(m.Dimensions))) },
		func() error { return w.WriteUint8(flags) },
		func() error { return w.WriteUint8(uint8(m.SpaceType)) },
	); err != nil {
		return err
	}
	for _, dim := range m.Dimensions {
		if err := w.WriteLength(dim); err != nil {
			return err
		}
	}
	for _, dim := range m.MaxDims {
		if err := w.WriteLength(dim); err != nil {
			return err
		}
	}
	return nil
}
