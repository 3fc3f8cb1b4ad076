package btree

import (
	"encoding/binary"
	"fmt"

	bin "github.com/robert-malhotra/gridbench/internal/binary"
	"github.com/robert-malhotra/gridbench/internal/heap"
)

// Symbol table entry cache types.
const (
	cacheNone    = 0
	cacheHeader  = 1
	cacheSymlink = 2
)

// GroupEntry is a member of an old style group.
type GroupEntry struct {
	Name          string
	ObjectAddress uint64
	// SoftLink is the target path when the entry is a soft link.
	SoftLink string
}

// IsSoftLink reports whether the entry is a soft link.
func (e GroupEntry) IsSoftLink() bool { return e.SoftLink != "" }

// ReadGroupEntries returns the members of the group whose B-tree is at
// address, their names resolved in the group's local heap.
func ReadGroupEntries(r *bin.Reader, address uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	nr := r.At(int64(address))
	level, n, err := v1Node(nr, nodeGroup)
	if err != nil {
		return nil, err
	}

	var entries []GroupEntry
	for i := 0; i < n; i++ {
		// Keys are heap offsets of the largest name below each child.
		nr.Skip(int64(r.LengthSize()))
		child, err := nr.ReadOffset()
		if err != nil {
			return nil, err
		}
		var sub []GroupEntry
		if level > 0 {
			sub, err = ReadGroupEntries(r, child, names)
		} else {
			sub, err = readSymbolNode(r, child, names)
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, sub...)
	}
	return entries, nil
}

func readSymbolNode(r *bin.Reader, address uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	nr := r.At(int64(address))
	hdr, err := nr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("reading symbol node: %w", err)
	}
	if string(hdr[:4]) != "SNOD" {
		return nil, fmt.Errorf("invalid symbol node signature %q", hdr[:4])
	}
	if hdr[4] != 1 {
		return nil, fmt.Errorf("unsupported symbol node version %d", hdr[4])
	}

	n := int(binary.LittleEndian.Uint16(hdr[6:]))
	entries := make([]GroupEntry, 0, n)
	for i := 0; i < n; i++ {
		e, err := readSymbolEntry(nr, names)
		if err != nil {
			return nil, fmt.Errorf("symbol entry %d: %w", i, err)
		}
		if e.Name != "" {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func readSymbolEntry(r *bin.Reader, names *heap.LocalHeap) (GroupEntry, error) {
	nameOff, err := r.ReadOffset()
	if err != nil {
		return GroupEntry{}, err
	}
	addr, err := r.ReadOffset()
	if err != nil {
		return GroupEntry{}, err
	}
	rest, err := r.ReadBytes(24)
	if err != nil {
		return GroupEntry{}, err
	}

	e := GroupEntry{Name: names.GetString(nameOff), ObjectAddress: addr}
	if binary.LittleEndian.Uint32(rest) == cacheSymlink {
		e.SoftLink = names.GetString(uint64(binary.LittleEndian.Uint32(rest[8:])))
		e.ObjectAddress = 0
	}
	return e, nil
}
