package filter

import "github.com/robert-malhotra/gridbench/internal/message"

// Shuffle groups the i-th byte of every element together so that
// compressors see runs of similar bytes. Bytes past the last whole element
// are left in place.
type Shuffle struct {
	ElementSize int
}

// NewShuffle returns a shuffle filter. The first client data value is the
// element size.
func NewShuffle(cd []uint32) *Shuffle {
	size := 1
	if len(cd) > 0 && cd[0] > 0 {
		size = int(cd[0])
	}
	return &Shuffle{ElementSize: size}
}

func (f *Shuffle) ID() uint16 { return message.FilterShuffle }

func (f *Shuffle) Encode(data []byte) ([]byte, error) {
	return f.permute(data, true), nil
}

func (f *Shuffle) Decode(data []byte) ([]byte, error) {
	return f.permute(data, false), nil
}

func (f *Shuffle) permute(data []byte, shuffle bool) []byte {
	size := f.ElementSize
	n := len(data) / size
	if size <= 1 || n <= 1 {
		return data
	}
	out := make([]byte, len(data))
	for e := 0; e < n; e++ {
		for b := 0; b < size; b++ {
			if shuffle {
				out[b*n+e] = data[e*size+b]
			} else {
				out[e*size+b] = data[b*n+e]
			}
		}
	}
	copy(out[n*size:], data[n*size:])
	return out
}
