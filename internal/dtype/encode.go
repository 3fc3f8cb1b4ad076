package dtype

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/robert-malhotra/gridbench/internal/message"
)

// Encode returns the little endian datatype, shape and bytes of v. v is a
// number, a string, or a rectangular slice (possibly nested) of one of
// them. Scalars have a nil shape. Strings are stored fixed length and NUL
// terminated, sized to the longest one.
func Encode(v interface{}) (*message.Datatype, []uint64, []byte, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, nil, nil, fmt.Errorf("%w: encoding nil", ErrUnsupported)
	}

	var dims []uint64
	t := rv.Type()
	for t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	for cur := rv; cur.Kind() == reflect.Slice || cur.Kind() == reflect.Array; {
		dims = append(dims, uint64(cur.Len()))
		if cur.Len() == 0 {
			break
		}
		cur = cur.Index(0)
	}

	var leaves []reflect.Value
	if err := collect(rv, dims, &leaves); err != nil {
		return nil, nil, nil, err
	}

	dt, err := datatypeOf(t, leaves)
	if err != nil {
		return nil, nil, nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(leaves) * int(dt.Size))
	for _, leaf := range leaves {
		writeLeaf(&buf, dt, leaf)
	}
	return dt, dims, buf.Bytes(), nil
}

// collect appends the leaves of v in row-major order, checking that every
// slice at a depth has the length recorded in dims.
func collect(v reflect.Value, dims []uint64, leaves *[]reflect.Value) error {
	if len(dims) == 0 {
		*leaves = append(*leaves, v)
		return nil
	}
	if uint64(v.Len()) != dims[0] {
		return fmt.Errorf("ragged slice: length %d, want %d", v.Len(), dims[0])
	}
	for i := 0; i < v.Len(); i++ {
		if err := collect(v.Index(i), dims[1:], leaves); err != nil {
			return err
		}
	}
	return nil
}

func datatypeOf(t reflect.Type, leaves []reflect.Value) (*message.Datatype, error) {
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return message.NewFixedPointDatatype(uint32(t.Size()), true, message.OrderLE), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return message.NewFixedPointDatatype(uint32(t.Size()), false, message.OrderLE), nil
	case reflect.Float32, reflect.Float64:
		return message.NewFloatDatatype(uint32(t.Size()), message.OrderLE), nil
	case reflect.String:
		longest := 0
		for _, l := range leaves {
			if n := l.Len(); n > longest {
				longest = n
			}
		}
		return message.NewStringDatatype(uint32(longest+1), message.PadNullTerm, message.CharsetUTF8), nil
	}
	return nil, fmt.Errorf("%w: encoding %s", ErrUnsupported, t)
}

func writeLeaf(buf *bytes.Buffer, dt *message.Datatype, v reflect.Value) {
	var b [8]byte
	size := int(dt.Size)
	switch v.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		binary.LittleEndian.PutUint64(b[:], uint64(v.Int()))
		buf.Write(b[:size])
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		binary.LittleEndian.PutUint64(b[:], v.Uint())
		buf.Write(b[:size])
	case reflect.Float32:
		binary.Write(buf, binary.LittleEndian, float32(v.Float()))
	case reflect.Float64:
		binary.Write(buf, binary.LittleEndian, v.Float())
	case reflect.String:
		s := v.String()
		buf.WriteString(s)
		buf.Write(make([]byte, size-len(s)))
	}
}
