package binary

import (
	"encoding/binary"
	"io"
)

// Writer writes to an io.WriterAt at a cursor it owns.
type Writer struct {
	w   io.WriterAt
	cfg Config
	pos int64
}

// NewWriter returns a writer positioned at offset 0.
func NewWriter(w io.WriterAt, cfg Config) *Writer {
	return &Writer{w: w, cfg: cfg}
}

// At returns a writer positioned at offset.
func (w *Writer) At(offset int64) *Writer {
	return &Writer{w: w.w, cfg: w.cfg, pos: offset}
}

// WithSizes returns a writer at the same position using new offset and
// length widths.
func (w *Writer) WithSizes(offsetSize, lengthSize int) *Writer {
	cfg := w.cfg
	cfg.OffsetSize, cfg.LengthSize = offsetSize, lengthSize
	return &Writer{w: w.w, cfg: cfg, pos: w.pos}
}

// Pos returns the cursor position.
func (w *Writer) Pos() int64 { return w.pos }

// Skip moves the cursor n bytes forward without writing.
func (w *Writer) Skip(n int64) { w.pos += n }

// Align moves the cursor forward to the next multiple of alignment without
// writing.
func (w *Writer) Align(alignment int64) {
	if alignment > 1 {
		if rem := w.pos % alignment; rem != 0 {
			w.pos += alignment - rem
		}
	}
}

// WriteBytes writes data at the cursor.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.w.WriteAt(data, w.pos)
	w.pos += int64(n)
	return err
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, n))
}

// WriteUintN writes v as an n-byte unsigned integer.
func (w *Writer) WriteUintN(v uint64, n int) error {
	buf := make([]byte, n)
	switch n {
	case 1:
		buf[0] = uint8(v)
	case 2:
		w.cfg.ByteOrder.PutUint16(buf, uint16(v))
	case 4:
		w.cfg.ByteOrder.PutUint32(buf, uint32(v))
	case 8:
		w.cfg.ByteOrder.PutUint64(buf, v)
	default:
		for i := range buf {
			buf[i] = byte(v >> (8 * i))
		}
	}
	return w.WriteBytes(buf)
}

// WriteUint8 writes one byte.
func (w *Writer) WriteUint8(v uint8) error { return w.WriteUintN(uint64(v), 1) }

// WriteUint16 writes a 2-byte unsigned integer.
func (w *Writer) WriteUint16(v uint16) error { return w.WriteUintN(uint64(v), 2) }

// WriteUint32 writes a 4-byte unsigned integer.
func (w *Writer) WriteUint32(v uint32) error { return w.WriteUintN(uint64(v), 4) }

// WriteUint64 writes an 8-byte unsigned integer.
func (w *Writer) WriteUint64(v uint64) error { return w.WriteUintN(v, 8) }

// WriteOffset writes a file address.
func (w *Writer) WriteOffset(v uint64) error { return w.WriteUintN(v, w.cfg.OffsetSize) }

// WriteLength writes a length.
func (w *Writer) WriteLength(v uint64) error { return w.WriteUintN(v, w.cfg.LengthSize) }

// UndefinedOffset returns the undefined address for this writer's offset
// width.
func (w *Writer) UndefinedOffset() uint64 { return undefined(w.cfg.OffsetSize) }

// UndefinedLength returns the undefined length for this writer's length
// width.
func (w *Writer) UndefinedLength() uint64 { return undefined(w.cfg.LengthSize) }

// OffsetSize returns the width of file addresses.
func (w *Writer) OffsetSize() int { return w.cfg.OffsetSize }

// LengthSize returns the width of lengths.
func (w *Writer) LengthSize() int { return w.cfg.LengthSize }

// ByteOrder returns the byte order.
func (w *Writer) ByteOrder() binary.ByteOrder { return w.cfg.ByteOrder }

// Config returns the byte order and widths the writer uses.
func (w *Writer) Config() Config { return w.cfg }
