package object

import (
	"errors"

	"github.com/robert-malhotra/gridbench/internal/message"
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

// Header is a parsed object header.
type Header struct {
	Version  uint8
	Address  uint64
	Flags    uint8
	RefCount uint32
	Messages []message.Message

	// Unsupported holds, per message type, why a message of that type
	// could not be read. The message is left out of Messages.
	Unsupported map[message.Type]error
}

// GetMessage returns the first message of type typ, or nil.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, m := range h.Messages {
		if m.Type() == typ {
			return m
		}
	}
	return nil
}

// GetMessages returns every message of type typ.
func (h *Header) GetMessages(typ message.Type) []message.Message {
	var ms []message.Message
	for _, m := range h.Messages {
		if m.Type() == typ {
			ms = append(ms, m)
		}
	}
	return ms
}

func (h *Header) Dataspace() *message.Dataspace {
	m, _ := h.GetMessage(message.TypeDataspace).(*message.Dataspace)
	return m
}

func (h *Header) Datatype() *message.Datatype {
	m, _ := h.GetMessage(message.TypeDatatype).(*message.Datatype)
	return m
}

func (h *Header) DataLayout() *message.DataLayout {
	m, _ := h.GetMessage(message.TypeDataLayout).(*message.DataLayout)
	return m
}

func (h *Header) FilterPipeline() *message.FilterPipeline {
	m, _ := h.GetMessage(message.TypeFilterPipeline).(*message.FilterPipeline)
	return m
}

// FillValue returns the fill value message, old or new style.
func (h *Header) FillValue() *message.FillValue {
	m, _ := h.GetMessage(message.TypeFillValue).(*message.FillValue)
	return m
}

func (h *Header) SymbolTable() *message.SymbolTable {
	m, _ := h.GetMessage(message.TypeSymbolTable).(*message.SymbolTable)
	return m
}

// Attributes returns the attributes stored in the header.
func (h *Header) Attributes() []*message.Attribute {
	var as []*message.Attribute
	for _, m := range h.GetMessages(message.TypeAttribute) {
		as = append(as, m.(*message.Attribute))
	}
	return as
}

// Links returns the links of a new style group.
func (h *Header) Links() []*message.Link {
	var ls []*message.Link
	for _, m := range h.GetMessages(message.TypeLink) {
		ls = append(ls, m.(*message.Link))
	}
	return ls
}

// IsDataset reports whether the header describes a dataset.
func (h *Header) IsDataset() bool {
	return h.GetMessage(message.TypeDataLayout) != nil || h.GetMessage(message.TypeDataspace) != nil
}
