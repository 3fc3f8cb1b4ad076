package superblock

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	bin "github.com/robert-malhotra/gridbench/internal/binary"
)

// Signature starts every superblock.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock")
)

// Superblock holds the fields of a superblock this module uses.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8

	// ConsistencyFlags is only stored by versions 2 and 3.
	ConsistencyFlags uint8

	// BaseAddress is the file offset every other address is relative to.
	BaseAddress      uint64
	ExtensionAddress uint64
	EOFAddress       uint64
	RootGroupAddress uint64

	// Versions 0 and 1 only.
	GroupLeafNodeK     uint16
	GroupInternalNodeK uint16
	IndexedStorageK    uint16

	// RootGroupBTreeAddress and RootGroupLocalHeapAddress are the cached
	// symbol table of the root group, zero when the root entry caches
	// nothing.
	RootGroupBTreeAddress     uint64
	RootGroupLocalHeapAddress uint64

	// FileOffset is where the signature was found.
	FileOffset int64
}

// maxSearch bounds the signature search.
const maxSearch = 1 << 30

// Read locates and parses the superblock of r.
func Read(r io.ReaderAt) (*Superblock, error) {
	sig := make([]byte, 9)
	for off := int64(0); off <= maxSearch; off = next(off) {
		if _, err := r.ReadAt(sig, off); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if string(sig[:8]) != string(Signature) {
			continue
		}

		// Fields up to the offset and length widths are fixed.
		rd := bin.NewReader(r, bin.Config{ByteOrder: binary.LittleEndian, OffsetSize: 8, LengthSize: 8}).At(off + 8)
		var (
			sb  *Superblock
			err error
		)
		switch v := sig[8]; v {
		case 0, 1:
			sb, err = readV0(rd)
		case 2, 3:
			sb, err = readV2(rd)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
		}
		if err != nil {
			return nil, fmt.Errorf("superblock at %d: %w", off, err)
		}
		sb.FileOffset = off
		return sb, nil
	}
	return nil, ErrNotHDF5
}

func next(off int64) int64 {
	if off == 0 {
		return 512
	}
	return off * 2
}

// ReaderConfig returns the widths to read the rest of the file with.
func (sb *Superblock) ReaderConfig() bin.Config {
	return bin.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

func validSize(n uint8) bool {
	return n == 2 || n == 4 || n == 8
}

// readV0 reads a version 0 or 1 superblock; r is just past the signature.
func readV0(r *bin.Reader) (*Superblock, error) {
	b, err := r.ReadBytes(16)
	if err != nil {
		return nil, err
	}
	sb := &Superblock{
		Version:            b[0],
		OffsetSize:         b[5],
		LengthSize:         b[6],
		GroupLeafNodeK:     binary.LittleEndian.Uint16(b[8:]),
		GroupInternalNodeK: binary.LittleEndian.Uint16(b[10:]),
	}
	if !validSize(sb.OffsetSize) || !validSize(sb.LengthSize) {
		return nil, fmt.Errorf("%w: offset size %d, length size %d", ErrInvalidSuperblock, sb.OffsetSize, sb.LengthSize)
	}
	if sb.Version == 1 {
		if sb.IndexedStorageK, err = r.ReadUint16(); err != nil {
			return nil, err
		}
		r.Skip(2)
	}

	r = r.WithSizes(int(sb.OffsetSize), int(sb.LengthSize))
	var addrs [4]uint64 // base, free space, EOF, driver info
	for i := range addrs {
		if addrs[i], err = r.ReadOffset(); err != nil {
			return nil, err
		}
	}
	sb.BaseAddress, sb.EOFAddress = addrs[0], addrs[2]
	sb.ExtensionAddress = ^uint64(0)

	// Root group symbol table entry: name offset, header address, cache
	// type, reserved, scratch pad.
	r.Skip(int64(sb.OffsetSize))
	if sb.RootGroupAddress, err = r.ReadOffset(); err != nil {
		return nil, err
	}
	cache, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	r.Skip(4)
	if cache == 1 {
		if sb.RootGroupBTreeAddress, err = r.ReadOffset(); err != nil {
			return nil, err
		}
		if sb.RootGroupLocalHeapAddress, err = r.ReadOffset(); err != nil {
			return nil, err
		}
	}
	return sb, nil
}

// readV2 reads a version 2 or 3 superblock; r is just past the signature.
func readV2(r *bin.Reader) (*Superblock, error) {
	start := r.Pos() - 8
	b, err := r.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	sb := &Superblock{Version: b[0], OffsetSize: b[1], LengthSize: b[2], ConsistencyFlags: b[3]}
	if !validSize(sb.OffsetSize) || !validSize(sb.LengthSize) {
		return nil, fmt.Errorf("%w: offset size %d, length size %d", ErrInvalidSuperblock, sb.OffsetSize, sb.LengthSize)
	}

	r = r.WithSizes(int(sb.OffsetSize), int(sb.LengthSize))
	for _, p := range []*uint64{&sb.BaseAddress, &sb.ExtensionAddress, &sb.EOFAddress, &sb.RootGroupAddress} {
		if *p, err = r.ReadOffset(); err != nil {
			return nil, err
		}
	}
	stored, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	all, err := r.At(start).ReadBytes(int(r.Pos() - 4 - start))
	if err != nil {
		return nil, err
	}
	if sum := bin.Lookup3Checksum(all); sum != stored {
		return nil, fmt.Errorf("%w: checksum %#08x, computed %#08x", ErrInvalidSuperblock, stored, sum)
	}
	return sb, nil
}
