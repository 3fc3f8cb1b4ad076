package message

import (
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/binary"
)

// LayoutClass says where the raw data of a dataset lives.
type LayoutClass uint8

// Layout classes.
const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

func (c LayoutClass) String() string {
	switch c {
	case LayoutCompact:
		return "compact"
	case LayoutContiguous:
		return "contiguous"
	case LayoutChunked:
		return "chunked"
	case LayoutVirtual:
		return "virtual"
	}
	return fmt.Sprintf("layout class %d", uint8(c))
}

// ChunkIndexType is the structure that maps chunk offsets to addresses.
// Layout messages before version 4 always use a version 1 B-tree.
type ChunkIndexType uint8

// Chunk index types.
const (
	ChunkIndexBTreeV1         ChunkIndexType = 0
	ChunkIndexSingle          ChunkIndexType = 1
	ChunkIndexImplicit        ChunkIndexType = 2
	ChunkIndexFixedArray      ChunkIndexType = 3
	ChunkIndexExtensibleArray ChunkIndexType = 4
	ChunkIndexBTreeV2         ChunkIndexType = 5
)

// Chunked layout flags.
const (
	LayoutFlagNoPartialFilter = 0x01
	LayoutFlagSingleFiltered  = 0x02
)

// FixedArrayDefaultPageBits is the page size exponent written for fixed
// array chunk indexes.
const FixedArrayDefaultPageBits = 10

const extensibleArrayParamsBytes = 5

// DataLayout is the storage layout message.
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	// Address is the contiguous data or the chunk index. Size is the
	// contiguous data size, zero when it must be derived from the
	// dataspace.
	Address uint64
	Size    uint64

	CompactData []byte

	// ChunkDims is the chunk shape in elements, one entry per dataset
	// dimension. ElementSize is the trailing byte dimension the file
	// stores after it.
	ChunkDims   []uint64
	ElementSize uint32
	Flags       uint8
	IndexType   ChunkIndexType

	PageBits     uint8
	FilteredSize uint64
	FilterMask   uint32
	EAParams     []byte
	NodeSize     uint32
	SplitPercent uint8
	MergePercent uint8
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

// NewContiguousLayout returns a version 3 contiguous layout.
func NewContiguousLayout(address, size uint64) *DataLayout {
	return &DataLayout{Version: 3, Class: LayoutContiguous, Address: address, Size: size}
}

// NewChunkedLayout returns a version 4 chunked layout with the given index.
func NewChunkedLayout(chunkDims []uint64, elementSize uint32, index ChunkIndexType, address uint64) *DataLayout {
	m := &DataLayout{
		Version: 4, Class: LayoutChunked, Address: address,
		ChunkDims: chunkDims, ElementSize: elementSize, IndexType: index,
	}
	if index == ChunkIndexFixedArray {
		m.PageBits = FixedArrayDefaultPageBits
	}
	return m
}

// ChunkBytes returns the unfiltered size of one chunk.
func (m *DataLayout) ChunkBytes() uint64 {
	n := uint64(m.ElementSize)
	for _, d := range m.ChunkDims {
		n *= d
	}
	return n
}

func parseDataLayout(d *decoder) *DataLayout {
	m := &DataLayout{Version: d.u8()}
	switch m.Version {
	case 1, 2:
		parseLayoutV1(d, m)
	case 3, 4:
		m.Class = LayoutClass(d.u8())
		switch m.Class {
		case LayoutCompact:
			m.CompactData = d.copyBytes(int(d.u16()))
		case LayoutContiguous:
			m.Address = d.addr()
			m.Size = d.length()
		case LayoutChunked:
			if m.Version == 3 {
				ndims := int(d.u8())
				m.Address = d.addr()
				m.setChunkDims(d, ndims, 4)
			} else {
				parseChunkedV4(d, m)
			}
		default:
			if d.err == nil {
				d.err = fmt.Errorf("%w: %s layout", ErrUnsupported, m.Class)
			}
		}
	default:
		if d.err == nil {
			d.err = fmt.Errorf("%w: layout version %d", ErrUnsupported, m.Version)
		}
	}
	return m
}

func parseLayoutV1(d *decoder, m *DataLayout) {
	ndims := int(d.u8())
	m.Class = LayoutClass(d.u8())
	d.skip(5)
	if m.Class != LayoutCompact {
		m.Address = d.addr()
	}
	if m.Class == LayoutChunked {
		m.setChunkDims(d, ndims, 4)
		return
	}
	d.skip(4 * ndims)
	if m.Class == LayoutCompact {
		m.CompactData = d.copyBytes(int(d.u32()))
	}
}

func parseChunkedV4(d *decoder, m *DataLayout) {
	m.Flags = d.u8()
	ndims := int(d.u8())
	m.setChunkDims(d, ndims, int(d.u8()))
	m.IndexType = ChunkIndexType(d.u8())
	switch m.IndexType {
	case ChunkIndexSingle:
		if m.Flags&LayoutFlagSingleFiltered != 0 {
			m.FilteredSize = d.length()
			m.FilterMask = d.u32()
		}
	case ChunkIndexImplicit:
	case ChunkIndexFixedArray:
		m.PageBits = d.u8()
	case ChunkIndexExtensibleArray:
		m.EAParams = d.copyBytes(extensibleArrayParamsBytes)
	case ChunkIndexBTreeV2:
		m.NodeSize = d.u32()
		m.SplitPercent = d.u8()
		m.MergePercent = d.u8()
	default:
		if d.err == nil {
			d.err = fmt.Errorf("%w: chunk index type %d", ErrUnsupported, m.IndexType)
		}
	}
	m.Address = d.addr()
}

// setChunkDims reads ndims sizes of width bytes; the last is the element
// size.
func (m *DataLayout) setChunkDims(d *decoder, ndims, width int) {
	if (ndims < 2 || width < 1 || width > 8) && d.err == nil {
		d.err = fmt.Errorf("invalid chunk dimensions: %d of %d bytes", ndims, width)
		return
	}
	m.ChunkDims = make([]uint64, ndims-1)
	for i := range m.ChunkDims {
		m.ChunkDims[i] = d.uint(width)
	}
	m.ElementSize = uint32(d.uint(width))
}

// Encode writes a version 3 message for compact and contiguous layouts and
// a version 4 message for chunked ones.
func (m *DataLayout) Encode(w *binary.Writer) error {
	switch m.Class {
	case LayoutCompact:
		return writeAll(
			func() error { return w.WriteBytes([]byte{3, byte(LayoutCompact)}) },
			func() error { return w.WriteUint16(uint16(len(m.CompactData))) },
			func() error { return w.WriteBytes(m.CompactData) },
		)
	case LayoutContiguous:
		return writeAll(
			func() error { return w.WriteBytes([]byte{3, byte(LayoutContiguous)}) },
			func() error { return w.WriteOffset(m.Address) },
			func() error { return w.WriteLength(m.Size) },
		)
	case LayoutChunked:
		return m.encodeChunked(w)
	}
	return fmt.Errorf("%w: writing %s layout", ErrUnsupported, m.Class)
}

func (m *DataLayout) encodeChunked(w *binary.Writer) error {
	widest := uint64(m.ElementSize)
	for _, d := range m.ChunkDims {
		if d > widest {
			widest = d
		}
	}
	width := bytesFor(widest)
	flags := m.Flags
	if m.IndexType == ChunkIndexSingle && m.FilteredSize > 0 {
		flags |= LayoutFlagSingleFiltered
	}
	if err := w.WriteBytes([]byte{4, byte(LayoutChunked), flags, byte(len(m.ChunkDims) + 1), byte(width)}); err != nil {
		return err
	}
	for _, d := range m.ChunkDims {
		if err := w.WriteUintN(d, width); err != nil {
			return err
		}
	}
	if err := w.WriteUintN(uint64(m.ElementSize), width); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(m.IndexType)); err != nil {
		return err
	}
	var err error
	switch m.IndexType {
	case ChunkIndexSingle:
		if flags&LayoutFlagSingleFiltered != 0 {
			err = writeAll(
				func() error { return w.WriteLength(m.FilteredSize) },
				func() error { return w.WriteUint32(m.FilterMask) },
			)
		}
	case ChunkIndexImplicit:
	case ChunkIndexFixedArray:
		err = w.WriteUint8(m.PageBits)
	default:
		err = fmt.Errorf("%w: writing chunk index type %d", ErrUnsupported, m.IndexType)
	}
	if err != nil {
		return err
	}
	return w.WriteOffset(m.Address)
}
