package btree

import (
	"encoding/binary"

	bin "github.com/robert-malhotra/gridbench/internal/binary"
)

// ReadChunks returns every chunk in the version 1 chunk B-tree at address.
// rank is the dataset rank; keys carry one more offset for the element
// size.
func ReadChunks(r *bin.Reader, address uint64, rank int) ([]Chunk, error) {
	nr := r.At(int64(address))
	level, n, err := v1Node(nr, nodeChunk)
	if err != nil {
		return nil, err
	}

	keySize := 8 + 8*(rank+1)
	var chunks []Chunk
	for i := 0; i < n; i++ {
		key, err := nr.ReadBytes(keySize)
		if err != nil {
			return nil, err
		}
		child, err := nr.ReadOffset()
		if err != nil {
			return nil, err
		}
		if level > 0 {
			sub, err := ReadChunks(r, child, rank)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, sub...)
			continue
		}
		if nr.IsUndefinedOffset(child) {
			continue
		}
		c := Chunk{
			Address:    child,
			Size:       uint64(binary.LittleEndian.Uint32(key)),
			FilterMask: binary.LittleEndian.Uint32(key[4:]),
			Offset:     make([]uint64, rank),
		}
		for d := range c.Offset {
			c.Offset[d] = binary.LittleEndian.Uint64(key[8+8*d:])
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}
