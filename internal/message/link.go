package message

import (
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/binary"
)

// LinkType is the kind of target a link points at.
type LinkType uint8

// Link types.
const (
	LinkHard     LinkType = 0
	LinkSoft     LinkType = 1
	LinkExternal LinkType = 64
)

// Link flag bits.
const (
	linkNameWidth     = 0x03
	linkHasOrder      = 0x04
	linkHasType       = 0x08
	linkHasCharset    = 0x10
	linkInfoHasOrder  = 0x01
	linkInfoIndexed   = 0x02
	groupInfoLimits   = 0x01
	groupInfoEstimate = 0x02
)

// Link names one member of a new style group.
type Link struct {
	Version       uint8
	LinkType      LinkType
	CreationOrder int64
	Charset       CharacterSet
	Name          string

	ObjectAddress uint64
	SoftLinkValue string
	ExternalFile  string
	ExternalPath  string
}

func (m *Link) Type() Type { return TypeLink }

// NewHardLink returns a link to the object header at address.
func NewHardLink(name string, address uint64) *Link {
	return &Link{Version: 1, LinkType: LinkHard, Name: name, ObjectAddress: address}
}

func (m *Link) IsHard() bool     { return m.LinkType == LinkHard }
func (m *Link) IsSoft() bool     { return m.LinkType == LinkSoft }
func (m *Link) IsExternal() bool { return m.LinkType == LinkExternal }

func parseLink(d *decoder) *Link {
	m := &Link{Version: d.u8()}
	if m.Version != 1 {
		if d.err == nil {
			d.err = fmt.Errorf("%w: link version %d", ErrUnsupported, m.Version)
		}
		return m
	}
	flags := d.u8()
	if flags&linkHasType != 0 {
		m.LinkType = LinkType(d.u8())
	}
	if flags&linkHasOrder != 0 {
		m.CreationOrder = int64(d.u64())
	}
	if flags&linkHasCharset != 0 {
		m.Charset = CharacterSet(d.u8())
	}
	m.Name = string(d.bytes(int(d.uint(1 << (flags & linkNameWidth)))))

	switch m.LinkType {
	case LinkHard:
		m.ObjectAddress = d.addr()
	case LinkSoft:
		m.SoftLinkValue = string(d.bytes(int(d.u16())))
	case LinkExternal:
		ext := d.sub(int(d.u16()))
		ext.skip(1)
		m.ExternalFile = ext.zstring()
		m.ExternalPath = ext.zstring()
		if ext.err != nil && d.err == nil {
			d.err = ext.err
		}
	default:
		if d.err == nil {
			d.err = fmt.Errorf("%w: link type %d", ErrUnsupported, m.LinkType)
		}
	}
	return m
}

// Encode writes a hard link.
func (m *Link) Encode(w *binary.Writer) error {
	if !m.IsHard() {
		return fmt.Errorf("%w: writing link type %d", ErrUnsupported, m.LinkType)
	}
	width := bytesFor(uint64(len(m.Name)))
	var code uint8
	for 1<<code < width {
		code++
	}
	return writeAll(
		func() error { return w.WriteBytes([]byte{1, code}) },
		func() error { return w.WriteUintN(uint64(len(m.Name)), 1<<code) },
		func() error { return w.WriteBytes([]byte(m.Name)) },
		func() error { return w.WriteOffset(m.ObjectAddress) },
	)
}

// LinkInfo locates the dense link storage of a new style group. Groups with
// few members keep their links in the header and leave both addresses
// undefined.
type LinkInfo struct {
	Version            uint8
	MaxCreationIndex   int64
	FractalHeapAddress uint64
	NameIndexAddress   uint64
	OrderIndexAddress  uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

// NewLinkInfo returns a link info message for compact storage.
func NewLinkInfo() *LinkInfo {
	return &LinkInfo{
		FractalHeapAddress: UndefinedAddress,
		NameIndexAddress:   UndefinedAddress,
		OrderIndexAddress:  UndefinedAddress,
	}
}

// Dense reports whether the links live in a fractal heap.
func (m *LinkInfo) Dense() bool { return m.FractalHeapAddress != UndefinedAddress }

func parseLinkInfo(d *decoder) *LinkInfo {
	m := &LinkInfo{Version: d.u8(), OrderIndexAddress: UndefinedAddress}
	flags := d.u8()
	if flags&linkInfoHasOrder != 0 {
		m.MaxCreationIndex = int64(d.u64())
	}
	m.FractalHeapAddress = d.addr()
	m.NameIndexAddress = d.addr()
	if flags&linkInfoIndexed != 0 {
		m.OrderIndexAddress = d.addr()
	}
	return m
}

// Encode writes the message without creation order tracking.
func (m *LinkInfo) Encode(w *binary.Writer) error {
	return writeAll(
		func() error { return w.WriteBytes([]byte{0, 0}) },
		func() error { return w.WriteOffset(m.FractalHeapAddress) },
		func() error { return w.WriteOffset(m.NameIndexAddress) },
	)
}

// GroupInfo holds the storage thresholds of a new style group.
type GroupInfo struct {
	MaxCompact       uint16
	MinDense         uint16
	EstimatedEntries uint16
	EstimatedNameLen uint16
}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

// NewGroupInfo returns a group info message using the library defaults.
func NewGroupInfo() *GroupInfo { return &GroupInfo{} }

// Encode writes the message. Zero thresholds are left out so readers apply
// their defaults.
func (m *GroupInfo) Encode(w *binary.Writer) error {
	var flags uint8
	if m.MaxCompact != 0 || m.MinDense != 0 {
		flags |= groupInfoLimits
	}
	if m.EstimatedEntries != 0 || m.EstimatedNameLen != 0 {
		flags |= groupInfoEstimate
	}
	if err := w.WriteBytes([]byte{0, flags}); err != nil {
		return err
	}
	if flags&groupInfoLimits != 0 {
		if err := writeAll(
			func() error { return w.WriteUint16(m.MaxCompact) },
			func() error { return w.WriteUint16(m.MinDense) },
		); err != nil {
			return err
		}
	}
	if flags&groupInfoEstimate != 0 {
		return writeAll(
			func() error { return w.WriteUint16(m.EstimatedEntries) },
			func() error { return w.WriteUint16(m.EstimatedNameLen) },
		)
	}
	return nil
}
