// Package message parses and encodes the header messages stored in HDF5
// object headers: dataspace, datatype, storage layout, filters, attributes,
// links and the few group bookkeeping messages a writer has to emit.
package message

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/binary"
)

// Type identifies a header message.
type Type uint16

// Header message types.
const (
	TypeNIL            Type = 0x00
	TypeDataspace      Type = 0x01
	TypeLinkInfo       Type = 0x02
	TypeDatatype       Type = 0x03
	TypeFillValueOld   Type = 0x04
	TypeFillValue      Type = 0x05
	TypeLink           Type = 0x06
	TypeDataLayout     Type = 0x08
	TypeGroupInfo      Type = 0x0A
	TypeFilterPipeline Type = 0x0B
	TypeAttribute      Type = 0x0C
	TypeContinuation   Type = 0x10
	TypeSymbolTable    Type = 0x11
	TypeAttributeInfo  Type = 0x15
)

// Message flag bits.
const (
	FlagConstant = 0x01
	FlagShared   = 0x02
)

// UndefinedAddress marks an address field that points nowhere.
const UndefinedAddress = ^uint64(0)

var (
	// ErrTruncated is returned when a message is shorter than its fields.
	ErrTruncated = errors.New("message truncated")

	// ErrUnsupported is returned for message versions and encodings this
	// package does not read.
	ErrUnsupported = errors.New("unsupported message")
)

// Message is a parsed header message.
type Message interface {
	Type() Type
}

// Encoder is a message that can be written to a file.
type Encoder interface {
	Message
	Encode(w *binary.Writer) error
}

// Encode returns the encoded body of m using the address and length widths
// of cfg.
func Encode(m Encoder, cfg binary.Config) ([]byte, error) {
	var buf binary.Buffer
	if err := m.Encode(binary.NewWriter(&buf, cfg)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse decodes the body of a message of type typ. r supplies the address
// and length widths of the file. Messages of types this package does not
// know are returned as *Unknown.
func Parse(typ Type, data []byte, flags uint8, r *binary.Reader) (Message, error) {
	if flags&FlagShared != 0 {
		return nil, fmt.Errorf("%w: shared %s message", ErrUnsupported, typ)
	}
	d := newDecoder(data, r)
	var m Message
	switch typ {
	case TypeDataspace:
		m = parseDataspace(d)
	case TypeDatatype:
		m = parseDatatype(d)
	case TypeDataLayout:
		m = parseDataLayout(d)
	case TypeFilterPipeline:
		m = parseFilterPipeline(d)
	case TypeFillValue:
		m = parseFillValue(d)
	case TypeFillValueOld:
		m = parseOldFillValue(d)
	case TypeAttribute:
		m = parseAttribute(d)
	case TypeLink:
		m = parseLink(d)
	case TypeLinkInfo:
		m = parseLinkInfo(d)
	case TypeSymbolTable:
		m = &SymbolTable{BTreeAddress: d.addr(), LocalHeapAddress: d.addr()}
	case TypeContinuation:
		m = &Continuation{Offset: d.addr(), Length: d.length()}
	default:
		return &Unknown{typ: typ, data: data}, nil
	}
	if d.err != nil {
		return nil, fmt.Errorf("%s message: %w", typ, d.err)
	}
	return m, nil
}

func (t Type) String() string {
	switch t {
	case TypeNIL:
		return "nil"
	case TypeDataspace:
		return "dataspace"
	case TypeLinkInfo:
		return "link info"
	case TypeDatatype:
		return "datatype"
	case TypeFillValueOld, TypeFillValue:
		return "fill value"
	case TypeLink:
		return "link"
	case TypeDataLayout:
		return "data layout"
	case TypeGroupInfo:
		return "group info"
	case TypeFilterPipeline:
		return "filter pipeline"
	case TypeAttribute:
		return "attribute"
	case TypeContinuation:
		return "continuation"
	case TypeSymbolTable:
		return "symbol table"
	case TypeAttributeInfo:
		return "attribute info"
	}
	return fmt.Sprintf("type 0x%04x", uint16(t))
}

// Unknown holds the body of a message type this package does not parse.
type Unknown struct {
	typ  Type
	data []byte
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Data() []byte { return m.data }

// Continuation points at the next block of header messages.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeContinuation }

// SymbolTable locates the B-tree and local heap of an old style group.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }
