package filter

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/robert-malhotra/gridbench/internal/message"
)

// Deflate is the zlib compression filter.
type Deflate struct {
	Level int
}

// NewDeflate returns a deflate filter. The first client data value is the
// compression level.
func NewDeflate(cd []uint32) *Deflate {
	level := zlib.DefaultCompression
	if len(cd) > 0 {
		level = int(cd[0])
	}
	return &Deflate{Level: level}
}

func (f *Deflate) ID() uint16 { return message.FilterDeflate }

func (f *Deflate) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, f.Level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *Deflate) Decode(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
