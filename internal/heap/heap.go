// Package heap reads the two HDF5 heaps the engine needs: the local heap
// ("HEAP") holding member names of version 1 groups, and global heap
// collections ("GCOL") holding variable-length strings.
package heap

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/robert-malhotra/gridbench/internal/binary"
)

// header reads a heap signature, checks the version byte and skips the
// three reserved bytes that follow it in both heap kinds.
func header(r *bin.Reader, sig string, version uint8) error {
	got, err := r.ReadBytes(4)
	if err != nil {
		return fmt.Errorf("reading %s signature: %w", sig, err)
	}
	if string(got) != sig {
		return fmt.Errorf("invalid heap signature %q, want %q", got, sig)
	}
	v, err := r.ReadUint8()
	if err != nil {
		return err
	}
	if v != version {
		return fmt.Errorf("unsupported %s version %d", sig, v)
	}
	r.Skip(3)
	return nil
}

// cstring returns b up to its first NUL.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// LocalHeap is the data segment of a local heap.
type LocalHeap struct {
	DataAddress uint64
	data        []byte
}

// ReadLocalHeap reads the local heap at address.
func ReadLocalHeap(r *bin.Reader, address uint64) (*LocalHeap, error) {
	hr := r.At(int64(address))
	if err := header(hr, "HEAP", 0); err != nil {
		return nil, err
	}

	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}
	// Free list head, unused for reading.
	if _, err := hr.ReadLength(); err != nil {
		return nil, err
	}
	addr, err := hr.ReadOffset()
	if err != nil {
		return nil, err
	}

	data, err := r.At(int64(addr)).ReadBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("reading local heap data: %w", err)
	}
	return &LocalHeap{DataAddress: addr, data: data}, nil
}

// GetString returns the NUL-terminated string at offset, or "" when offset
// is past the data segment.
func (h *LocalHeap) GetString(offset uint64) string {
	if offset >= uint64(len(h.data)) {
		return ""
	}
	return cstring(h.data[offset:])
}

// GlobalHeap is a global heap collection, its objects keyed by index.
type GlobalHeap struct {
	objects map[uint16][]byte
}

// GlobalHeapID locates one object in a global heap collection.
type GlobalHeapID struct {
	CollectionAddress uint64
	ObjectIndex       uint32
}

// ReadGlobalHeap reads the collection at address.
func ReadGlobalHeap(r *bin.Reader, address uint64) (*GlobalHeap, error) {
	if address == 0 || address == ^uint64(0) {
		return nil, fmt.Errorf("invalid global heap address 0x%x", address)
	}

	hr := r.At(int64(address))
	if err := header(hr, "GCOL", 1); err != nil {
		return nil, err
	}
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}

	h := &GlobalHeap{objects: make(map[uint16][]byte)}
	// The collection header and every object header are 8 bytes plus a
	// length.
	fixed := uint64(8 + r.LengthSize())
	if size < fixed {
		return h, nil
	}
	left := size - fixed

	// Each object: index, reference count, 4 reserved bytes, size, data
	// padded to 8 bytes. Index 0 is the free space object ending the list.
	for left > 0 {
		index, err := hr.ReadUint16()
		if err != nil || index == 0 {
			break
		}
		hr.Skip(6)
		n, err := hr.ReadLength()
		if err != nil {
			break
		}
		if n > 0 {
			data, err := hr.ReadBytes(int(n))
			if err != nil {
				break
			}
			h.objects[index] = data
		}
		pad := (8 - n%8) % 8
		hr.Skip(int64(pad))

		used := fixed + n + pad
		if used > left {
			break
		}
		left -= used
	}
	return h, nil
}

// GetObject returns a copy of the object with the given index.
func (h *GlobalHeap) GetObject(index uint16) ([]byte, error) {
	if h == nil {
		return nil, fmt.Errorf("nil global heap")
	}
	data, ok := h.objects[index]
	if !ok {
		return nil, fmt.Errorf("object %d not in global heap", index)
	}
	return append([]byte(nil), data...), nil
}

// GetString returns the object with the given index as a string, cut at its
// first NUL.
func (h *GlobalHeap) GetString(index uint16) (string, error) {
	data, err := h.GetObject(index)
	if err != nil {
		return "", err
	}
	return cstring(data), nil
}

// ParseGlobalHeapID decodes a little-endian collection address of
// offsetSize bytes followed by a 4-byte object index.
func ParseGlobalHeapID(data []byte, offsetSize int) (GlobalHeapID, error) {
	if len(data) < offsetSize+4 {
		return GlobalHeapID{}, fmt.Errorf("global heap ID too short: need %d bytes, have %d", offsetSize+4, len(data))
	}

	var addr uint64
	switch offsetSize {
	case 2:
		addr = uint64(binary.LittleEndian.Uint16(data))
	case 4:
		addr = uint64(binary.LittleEndian.Uint32(data))
	case 8:
		addr = binary.LittleEndian.Uint64(data)
	default:
		return GlobalHeapID{}, fmt.Errorf("unsupported offset size %d", offsetSize)
	}
	return GlobalHeapID{
		CollectionAddress: addr,
		ObjectIndex:       binary.LittleEndian.Uint32(data[offsetSize:]),
	}, nil
}
