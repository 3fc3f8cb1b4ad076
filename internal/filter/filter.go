// Package filter runs the HDF5 chunk filter pipeline in both directions.
// Deflate, shuffle and Fletcher-32 are available; datasets using any other
// mandatory filter cannot be read.
package filter

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/message"
)

// ErrUnsupported is returned for filters that are not available.
var ErrUnsupported = errors.New("unsupported filter")

// Filter transforms chunk bytes. Encode is applied when writing, Decode
// undoes it when reading.
type Filter interface {
	ID() uint16
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// Registry maps filter IDs to constructors taking the client data stored
// in the pipeline message.
var Registry = map[uint16]func(cd []uint32) Filter{
	message.FilterDeflate:    func(cd []uint32) Filter { return NewDeflate(cd) },
	message.FilterShuffle:    func(cd []uint32) Filter { return NewShuffle(cd) },
	message.FilterFletcher32: func(cd []uint32) Filter { return Fletcher32{} },
}

var names = map[uint16]string{
	message.FilterDeflate:     "deflate",
	message.FilterShuffle:     "shuffle",
	message.FilterFletcher32:  "fletcher32",
	message.FilterSZIP:        "szip",
	message.FilterNBit:        "nbit",
	message.FilterScaleOffset: "scaleoffset",
}

// Name returns the name of a filter ID, preferring the name stored in the
// pipeline message.
func Name(info message.FilterInfo) string {
	if info.Name != "" {
		return info.Name
	}
	if n, ok := names[info.ID]; ok {
		return n
	}
	return fmt.Sprintf("filter %d", info.ID)
}

// New returns the filter described by info. It returns nil without error
// for an optional filter that is not available.
func New(info message.FilterInfo) (Filter, error) {
	fn, ok := Registry[info.ID]
	if !ok {
		if info.Optional() {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s (id %d)", ErrUnsupported, Name(info), info.ID)
	}
	return fn(info.ClientData), nil
}
