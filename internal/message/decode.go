package message

import (
	"encoding/binary"

	bin "github.com/robert-malhotra/gridbench/internal/binary"
)

// decoder reads little endian fields from a message body. The first short
// read sets err; later reads return zero values.
type decoder struct {
	buf        []byte
	off        int
	offsetSize int
	lengthSize int
	err        error
}

func newDecoder(buf []byte, r *bin.Reader) *decoder {
	return &decoder{buf: buf, offsetSize: r.OffsetSize(), lengthSize: r.LengthSize()}
}

// sub returns a decoder over the next n bytes and skips them.
func (d *decoder) sub(n int) *decoder {
	return &decoder{buf: d.bytes(n), offsetSize: d.offsetSize, lengthSize: d.lengthSize, err: d.err}
}

func (d *decoder) remaining() int { return len(d.buf) - d.off }

func (d *decoder) bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.buf) {
		d.err = ErrTruncated
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) skip(n int) { d.bytes(n) }

// align skips to the next multiple of n bytes from the start of the body.
func (d *decoder) align(n int) {
	if rem := d.off % n; rem != 0 {
		d.skip(n - rem)
	}
}

func (d *decoder) uint(n int) uint64 {
	b := d.bytes(n)
	if b == nil {
		return 0
	}
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func (d *decoder) u8() uint8 { return uint8(d.uint(1)) }

func (d *decoder) u16() uint16 {
	if b := d.bytes(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if b := d.bytes(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (d *decoder) u64() uint64 { return d.uint(8) }

func (d *decoder) addr() uint64 {
	v := d.uint(d.offsetSize)
	if d.offsetSize < 8 && v == 1<<(8*uint(d.offsetSize))-1 {
		return UndefinedAddress
	}
	return v
}

func (d *decoder) length() uint64 { return d.uint(d.lengthSize) }

// cstring reads an n byte field holding a NUL terminated or NUL padded
// string.
func (d *decoder) cstring(n int) string {
	b := d.bytes(n)
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// zstring reads a NUL terminated string and its terminator.
func (d *decoder) zstring() string {
	if d.err != nil {
		return ""
	}
	for i := d.off; i < len(d.buf); i++ {
		if d.buf[i] == 0 {
			s := string(d.buf[d.off:i])
			d.off = i + 1
			return s
		}
	}
	d.err = ErrTruncated
	return ""
}

func (d *decoder) copyBytes(n int) []byte {
	b := d.bytes(n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// writeAll writes each field in turn and returns the first error.
func writeAll(fns ...func() error) error {
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
