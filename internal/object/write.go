package object

import (
	"encoding/binary"
	"fmt"
	"math"

	bin "github.com/robert-malhotra/gridbench/internal/binary"
	"github.com/robert-malhotra/gridbench/internal/message"
)

// MinGroupChunkSize is the message space reserved in group headers, the
// same as other writers leave so links can be added in place.
const MinGroupChunkSize = 120

// Encode returns a version 2 object header holding msgs in one block. The
// block is padded with a nil message to at least minChunk bytes of
// messages.
func Encode(msgs []message.Encoder, cfg bin.Config, minChunk int) ([]byte, error) {
	var body []byte
	for _, m := range msgs {
		data, err := message.Encode(m, cfg)
		if err != nil {
			return nil, fmt.Errorf("encoding %s message: %w", m.Type(), err)
		}
		if len(data) > math.MaxUint16 {
			return nil, fmt.Errorf("%s message too large for an object header: %d bytes", m.Type(), len(data))
		}
		var flags uint8
		if m.Type() == message.TypeDatatype {
			flags = message.FlagConstant
		}
		body = append(body, uint8(m.Type()))
		body = binary.LittleEndian.AppendUint16(body, uint16(len(data)))
		body = append(body, flags)
		body = append(body, data...)
	}
	if pad := minChunk - len(body); pad > 0 {
		// A nil message needs room for its own 4 byte header.
		pad = max(pad, 4)
		body = append(body, byte(message.TypeNIL))
		body = binary.LittleEndian.AppendUint16(body, uint16(pad-4))
		body = append(body, make([]byte, pad-3)...)
	}

	var sizeBits uint8
	for width := 1; uint64(len(body)) > 1<<(8*width)-1; width *= 2 {
		sizeBits++
	}
	b := []byte{'O', 'H', 'D', 'R', 2, sizeBits}
	b = appendUint(b, uint64(len(body)), 1<<sizeBits)
	b = append(b, body...)
	return binary.LittleEndian.AppendUint32(b, bin.Lookup3Checksum(b)), nil
}

func appendUint(b []byte, v uint64, n int) []byte {
	for i := 0; i < n; i++ {
		b = append(b, byte(v>>(8*i)))
	}
	return b
}

// NewGroupHeader returns the messages of a new style group holding links.
func NewGroupHeader(links []*message.Link) []message.Encoder {
	msgs := []message.Encoder{message.NewLinkInfo(), message.NewGroupInfo()}
	for _, l := range links {
		msgs = append(msgs, l)
	}
	return msgs
}

// NewDatasetHeader returns the messages of a dataset. fp may be nil.
func NewDatasetHeader(ds *message.Dataspace, dt *message.Datatype, fill *message.FillValue,
	layout *message.DataLayout, fp *message.FilterPipeline) []message.Encoder {
	msgs := []message.Encoder{ds, dt, fill}
	if fp != nil {
		msgs = append(msgs, fp)
	}
	return append(msgs, layout)
}
