package filter

import (
	"encoding/binary"
	"errors"
	"math/bits"

	bin "github.com/robert-malhotra/gridbench/internal/binary"
	"github.com/robert-malhotra/gridbench/internal/message"
)

// ErrChecksum is returned when a chunk fails its Fletcher-32 check.
var ErrChecksum = errors.New("fletcher32 checksum mismatch")

// Fletcher32 appends a checksum to each chunk and verifies it on read.
type Fletcher32 struct{}

func (Fletcher32) ID() uint16 { return message.FilterFletcher32 }

func (Fletcher32) Encode(data []byte) ([]byte, error) {
	return binary.LittleEndian.AppendUint32(append([]byte(nil), data...), bin.Fletcher32(data)), nil
}

// Decode strips the checksum. Files from old library versions stored it
// byte swapped, so both orders are accepted.
func (Fletcher32) Decode(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, ErrChecksum
	}
	body := data[:len(data)-4]
	stored := binary.LittleEndian.Uint32(data[len(body):])
	sum := bin.Fletcher32(body)
	if stored != sum && stored != bits.ReverseBytes32(sum) {
		return nil, ErrChecksum
	}
	return body, nil
}
