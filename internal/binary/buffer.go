package binary

import "errors"

// Buffer is an in-memory io.WriterAt that grows to fit what is written.
// Metadata blocks are assembled in a Buffer so their checksum can be taken
// before they reach the file.
type Buffer struct {
	b []byte
}

// WriteAt writes p at off, zero filling any gap.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("binary: negative offset")
	}
	if end := int(off) + len(p); end > len(b.b) {
		if end > cap(b.b) {
			grown := make([]byte, end, 2*end)
			copy(grown, b.b)
			b.b = grown
		} else {
			b.b = b.b[:end]
		}
	}
	return copy(b.b[off:], p), nil
}

// Bytes returns the contents of the buffer.
func (b *Buffer) Bytes() []byte { return b.b }

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int { return len(b.b) }
