package object

import (
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/robert-malhotra/gridbench/internal/binary"
	"github.com/robert-malhotra/gridbench/internal/message"
)

// Version 2 header flags.
const (
	flagSizeMask    = 0x03
	flagTrackOrder  = 0x04
	flagPhaseChange = 0x10
	flagTimes       = 0x20
)

// maxBlocks bounds the continuation chain of one header.
const maxBlocks = 1 << 12

type blockKind int

const (
	blockV1 blockKind = iota
	blockV2          // first block of a version 2 header, already verified
	blockV2Cont      // "OCHK" continuation block
)

type block struct {
	addr, size uint64
	kind       blockKind
}

// Read parses the object header at address.
func Read(r *bin.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address))
	peek, err := hr.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}

	h := &Header{Address: address}
	var first block
	switch {
	case string(peek) == "OHDR":
		first, err = h.readPrefixV2(hr)
	case peek[0] == 1:
		first, err = h.readPrefixV1(hr)
	default:
		return nil, fmt.Errorf("%w at %d", ErrInvalidHeader, address)
	}
	if err != nil {
		return nil, fmt.Errorf("object header at %d: %w", address, err)
	}

	seen := map[uint64]bool{}
	queue := []block{first}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		if seen[b.addr] || len(seen) >= maxBlocks {
			return nil, fmt.Errorf("%w: continuation loop at %d", ErrInvalidHeader, b.addr)
		}
		seen[b.addr] = true

		more, err := h.readBlock(r, b)
		if err != nil {
			return nil, fmt.Errorf("object header at %d: %w", address, err)
		}
		queue = append(queue, more...)
	}
	return h, nil
}

func (h *Header) readPrefixV1(r *bin.Reader) (block, error) {
	b, err := r.ReadBytes(16)
	if err != nil {
		return block{}, err
	}
	h.Version = 1
	h.RefCount = binary.LittleEndian.Uint32(b[4:])
	size := binary.LittleEndian.Uint32(b[8:])
	return block{addr: h.Address + 16, size: uint64(size), kind: blockV1}, nil
}

func (h *Header) readPrefixV2(r *bin.Reader) (block, error) {
	b, err := r.ReadBytes(6)
	if err != nil {
		return block{}, err
	}
	if b[4] != 2 {
		return block{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, b[4])
	}
	h.Version, h.Flags, h.RefCount = 2, b[5], 1
	if h.Flags&flagTimes != 0 {
		r.Skip(16)
	}
	if h.Flags&flagPhaseChange != 0 {
		r.Skip(4)
	}
	size, err := r.ReadUintN(1 << (h.Flags & flagSizeMask))
	if err != nil {
		return block{}, err
	}

	start := uint64(r.Pos())
	all, err := r.At(int64(h.Address)).ReadBytes(int(start - h.Address + size + 4))
	if err != nil {
		return block{}, err
	}
	if err := verify(all); err != nil {
		return block{}, err
	}
	return block{addr: start, size: size, kind: blockV2}, nil
}

// verify checks the trailing checksum of a version 2 block.
func verify(b []byte) error {
	n := len(b) - 4
	if got, want := binary.LittleEndian.Uint32(b[n:]), bin.Lookup3Checksum(b[:n]); got != want {
		return fmt.Errorf("%w: stored %#08x, computed %#08x", ErrChecksumMismatch, got, want)
	}
	return nil
}

// readBlock parses the messages of one block and returns the blocks its
// continuation messages point to.
func (h *Header) readBlock(r *bin.Reader, b block) ([]block, error) {
	data, err := r.At(int64(b.addr)).ReadBytes(int(b.size))
	if err != nil {
		return nil, err
	}
	if b.kind == blockV2Cont {
		if len(data) < 8 || string(data[:4]) != "OCHK" {
			return nil, fmt.Errorf("%w: bad continuation block at %d", ErrInvalidHeader, b.addr)
		}
		if err := verify(data); err != nil {
			return nil, err
		}
		data = data[4 : len(data)-4]
	}

	var more []block
	for {
		typ, flags, body, rest, ok := h.next(data, b.kind)
		if !ok {
			return more, nil
		}
		data = rest
		if typ == message.TypeNIL {
			continue
		}

		m, err := message.Parse(typ, body, flags, r)
		if errors.Is(err, message.ErrUnsupported) {
			if h.Unsupported == nil {
				h.Unsupported = make(map[message.Type]error)
			}
			h.Unsupported[typ] = err
			continue
		}
		if err != nil {
			return nil, err
		}
		if c, ok := m.(*message.Continuation); ok {
			kind := blockV1
			if h.Version == 2 {
				kind = blockV2Cont
			}
			more = append(more, block{addr: c.Offset, size: c.Length, kind: kind})
			continue
		}
		h.Messages = append(h.Messages, m)
	}
}

// next splits the first message off data. ok is false when the rest of
// the block is too short to hold a message.
func (h *Header) next(data []byte, kind blockKind) (typ message.Type, flags uint8, body, rest []byte, ok bool) {
	var hdr, size int
	if kind == blockV1 {
		if len(data) < 8 {
			return 0, 0, nil, nil, false
		}
		typ = message.Type(binary.LittleEndian.Uint16(data))
		size = int(binary.LittleEndian.Uint16(data[2:]))
		flags, hdr = data[4], 8
	} else {
		hdr = 4
		if h.Flags&flagTrackOrder != 0 {
			hdr += 2
		}
		if len(data) < hdr {
			return 0, 0, nil, nil, false
		}
		typ = message.Type(data[0])
		size = int(binary.LittleEndian.Uint16(data[1:]))
		flags = data[3]
	}
	if hdr+size > len(data) {
		return 0, 0, nil, nil, false
	}
	return typ, flags, data[hdr : hdr+size], data[hdr+size:], true
}
