package superblock

import (
	"encoding/binary"

	bin "github.com/robert-malhotra/gridbench/internal/binary"
)

// Size is the length of a written superblock.
const Size = 12 + 4*8 + 4

// New returns a version 3 superblock with 8 byte offsets and lengths and
// no extension.
func New() *Superblock {
	return &Superblock{Version: 3, OffsetSize: 8, LengthSize: 8, ExtensionAddress: ^uint64(0)}
}

// Encode returns the version 3 encoding of sb.
func (sb *Superblock) Encode() []byte {
	b := append([]byte{}, Signature...)
	b = append(b, 3, 8, 8, sb.ConsistencyFlags)
	for _, a := range []uint64{sb.BaseAddress, sb.ExtensionAddress, sb.EOFAddress, sb.RootGroupAddress} {
		b = binary.LittleEndian.AppendUint64(b, a)
	}
	return binary.LittleEndian.AppendUint32(b, bin.Lookup3Checksum(b))
}
