package message

import (
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/binary"
)

// DatatypeClass is the class field of a datatype message.
type DatatypeClass uint8

// Datatype classes.
const (
	ClassFixedPoint DatatypeClass = 0
	ClassFloatPoint DatatypeClass = 1
	ClassTime       DatatypeClass = 2
	ClassString     DatatypeClass = 3
	ClassBitfield   DatatypeClass = 4
	ClassOpaque     DatatypeClass = 5
	ClassCompound   DatatypeClass = 6
	ClassReference  DatatypeClass = 7
	ClassEnum       DatatypeClass = 8
	ClassVarLen     DatatypeClass = 9
	ClassArray      DatatypeClass = 10
)

var classNames = [...]string{
	"integer", "float", "time", "string", "bitfield", "opaque",
	"compound", "reference", "enum", "vlen", "array",
}

func (c DatatypeClass) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class %d", uint8(c))
}

// ByteOrder of a numeric datatype.
type ByteOrder uint8

// Byte orders.
const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
)

// StringPadding says how a fixed length string fills its storage.
type StringPadding uint8

// String paddings.
const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

// CharacterSet of a string datatype.
type CharacterSet uint8

// Character sets.
const (
	CharsetASCII CharacterSet = 0
	CharsetUTF8  CharacterSet = 1
)

// Member is one field of a compound datatype.
type Member struct {
	Name   string
	Offset uint32
	Type   *Datatype
}

// Datatype describes the storage of one element.
type Datatype struct {
	Version   uint8
	Class     DatatypeClass
	Size      uint32
	ClassBits uint32

	ByteOrder ByteOrder
	Signed    bool
	BitOffset uint16
	Precision uint16

	ExponentLocation uint8
	ExponentSize     uint8
	MantissaLocation uint8
	MantissaSize     uint8
	ExponentBias     uint32

	Padding StringPadding
	Charset CharacterSet

	// IsVarLenString is set for variable length strings; other variable
	// length types are sequences of Base.
	IsVarLenString bool

	// Base is the element type of enum, array and variable length types.
	Base       *Datatype
	ArrayDims  []uint32
	Members    []Member
	EnumNames  []string
	EnumValues [][]byte
	Tag        string
}

func (m *Datatype) Type() Type { return TypeDatatype }

func (m *Datatype) String() string {
	switch m.Class {
	case ClassFixedPoint:
		if m.Signed {
			return fmt.Sprintf("int%d", m.Size*8)
		}
		return fmt.Sprintf("uint%d", m.Size*8)
	case ClassFloatPoint:
		return fmt.Sprintf("float%d", m.Size*8)
	case ClassString:
		return fmt.Sprintf("string(%d)", m.Size)
	case ClassVarLen:
		if m.IsVarLenString {
			return "string"
		}
		return "vlen(" + m.Base.String() + ")"
	case ClassEnum:
		return "enum(" + m.Base.String() + ")"
	case ClassArray:
		return fmt.Sprint(m.Base.String(), m.ArrayDims)
	}
	return m.Class.String()
}

// NewFixedPointDatatype returns an integer type of size bytes.
func NewFixedPointDatatype(size uint32, signed bool, order ByteOrder) *Datatype {
	bits := uint32(order)
	if signed {
		bits |= 0x08
	}
	return &Datatype{
		Version: 1, Class: ClassFixedPoint, Size: size, ClassBits: bits,
		ByteOrder: order, Signed: signed, Precision: uint16(size * 8),
	}
}

// NewFloatDatatype returns an IEEE 754 type of 4 or 8 bytes.
func NewFloatDatatype(size uint32, order ByteOrder) *Datatype {
	dt := &Datatype{Version: 1, Class: ClassFloatPoint, Size: size, ByteOrder: order, Signed: true, Precision: uint16(size * 8)}
	if size == 4 {
		dt.ExponentLocation, dt.ExponentSize, dt.MantissaSize, dt.ExponentBias = 23, 8, 23, 127
	} else {
		dt.ExponentLocation, dt.ExponentSize, dt.MantissaSize, dt.ExponentBias = 52, 11, 52, 1023
	}
	// Implied leading mantissa bit and the sign bit position.
	dt.ClassBits = uint32(order) | 0x20 | uint32(size*8-1)<<8
	return dt
}

// NewStringDatatype returns a fixed length string type.
func NewStringDatatype(size uint32, pad StringPadding, cset CharacterSet) *Datatype {
	return &Datatype{
		Version: 1, Class: ClassString, Size: size,
		ClassBits: uint32(pad) | uint32(cset)<<4,
		Padding:   pad, Charset: cset,
	}
}

func parseDatatype(d *decoder) *Datatype {
	head := d.u8()
	bits := d.uint(3)
	m := &Datatype{
		Version:   head >> 4,
		Class:     DatatypeClass(head & 0x0F),
		ClassBits: uint32(bits),
		Size:      d.u32(),
	}
	if d.err != nil {
		return m
	}
	switch m.Class {
	case ClassFixedPoint, ClassBitfield:
		m.ByteOrder = ByteOrder(bits & 0x01)
		m.Signed = bits&0x08 != 0
		m.BitOffset = d.u16()
		m.Precision = d.u16()
	case ClassFloatPoint:
		if bits&0x40 != 0 {
			d.err = fmt.Errorf("%w: VAX float order", ErrUnsupported)
			return m
		}
		m.ByteOrder = ByteOrder(bits & 0x01)
		m.Signed = true
		m.BitOffset = d.u16()
		m.Precision = d.u16()
		m.ExponentLocation = d.u8()
		m.ExponentSize = d.u8()
		m.MantissaLocation = d.u8()
		m.MantissaSize = d.u8()
		m.ExponentBias = d.u32()
	case ClassTime:
		m.ByteOrder = ByteOrder(bits & 0x01)
		m.Precision = d.u16()
	case ClassString:
		m.Padding = StringPadding(bits & 0x0F)
		m.Charset = CharacterSet(bits >> 4 & 0x0F)
	case ClassOpaque:
		m.Tag = d.cstring(int(bits & 0xFF))
	case ClassReference:
	case ClassCompound:
		parseMembers(d, m, int(bits&0xFFFF))
	case ClassEnum:
		m.Base = parseDatatype(d)
		n := int(bits & 0xFFFF)
		m.EnumNames = make([]string, n)
		for i := range m.EnumNames {
			m.EnumNames[i] = d.zstring()
			if m.Version < 3 {
				d.skip(pad8(len(m.EnumNames[i]) + 1))
			}
		}
		m.EnumValues = make([][]byte, n)
		for i := range m.EnumValues {
			m.EnumValues[i] = d.copyBytes(int(m.Base.Size))
		}
	case ClassVarLen:
		m.IsVarLenString = bits&0x0F == 1
		m.Padding = StringPadding(bits >> 4 & 0x0F)
		m.Charset = CharacterSet(bits >> 8 & 0x0F)
		m.Base = parseDatatype(d)
	case ClassArray:
		rank := int(d.u8())
		if m.Version < 3 {
			d.skip(3)
		}
		m.ArrayDims = make([]uint32, rank)
		for i := range m.ArrayDims {
			m.ArrayDims[i] = d.u32()
		}
		if m.Version < 3 {
			d.skip(4 * rank)
		}
		m.Base = parseDatatype(d)
	default:
		d.err = fmt.Errorf("%w: datatype class %d", ErrUnsupported, m.Class)
	}
	return m
}

func parseMembers(d *decoder, m *Datatype, n int) {
	m.Members = make([]Member, n)
	for i := range m.Members {
		mem := &m.Members[i]
		mem.Name = d.zstring()
		switch m.Version {
		case 1:
			d.skip(pad8(len(mem.Name) + 1))
			mem.Offset = d.u32()
			d.skip(28)
		case 2:
			d.skip(pad8(len(mem.Name) + 1))
			mem.Offset = d.u32()
		default:
			mem.Offset = uint32(d.uint(bytesFor(uint64(m.Size))))
		}
		mem.Type = parseDatatype(d)
		if d.err != nil {
			return
		}
	}
}

// pad8 returns the bytes needed to bring n to a multiple of eight.
func pad8(n int) int { return (8 - n%8) % 8 }

// bytesFor returns the fewest bytes that can hold v.
func bytesFor(v uint64) int {
	n := 1
	for v > 0xFF {
		v >>= 8
		n++
	}
	return n
}

// Encode writes the datatype. Only integer, float and fixed length string
// types can be written.
func (m *Datatype) Encode(w *binary.Writer) error {
	switch m.Class {
	case ClassFixedPoint, ClassFloatPoint, ClassString:
	default:
		return fmt.Errorf("%w: writing %s datatype", ErrUnsupported, m.Class)
	}
	version := m.Version
	if version == 0 {
		version = 1
	}
	if err := writeAll(
		func() error { return w.WriteUint8(version<<4 | uint8(m.Class)) },
		func() error { return w.WriteUintN(uint64(m.ClassBits), 3) },
		func() error { return w.WriteUint32(m.Size) },
	); err != nil {
		return err
	}
	switch m.Class {
	case ClassFixedPoint:
		return writeAll(
			func() error { return w.WriteUint16(m.BitOffset) },
			func() error { return w.WriteUint16(m.Precision) },
		)
	case ClassFloatPoint:
		return writeAll(
			func() error { return w.WriteUint16(m.BitOffset) },
			func() error { return w.WriteUint16(m.Precision) },
			func() error {
				return w.WriteBytes([]byte{m.ExponentLocation, m.ExponentSize, m.MantissaLocation, m.MantissaSize})
			},
			func() error { return w.WriteUint32(m.ExponentBias) },
		)
	}
	return nil
}
