// Package dtype converts between raw HDF5 element bytes and Go slices.
//
// Integers, floats, enums and bitfields decode into any numeric slice;
// fixed and variable length strings decode into []string. Every class can
// also decode into []interface{}, which holds int64, uint64, float64 or
// string values.
package dtype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	bin "github.com/robert-malhotra/gridbench/internal/binary"
	"github.com/robert-malhotra/gridbench/internal/heap"
	"github.com/robert-malhotra/gridbench/internal/message"
)

// ErrUnsupported is returned for datatypes or destinations that cannot be
// converted.
var ErrUnsupported = errors.New("unsupported conversion")

// Number is the set of Go types numeric datatypes decode into.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

// numbers holds decoded values in the widest Go type of their class. Only
// one of the slices is set.
type numbers struct {
	ints   []int64
	uints  []uint64
	floats []float64
}

// Convert decodes n elements of type dt from data into dest, which must be
// a pointer to a slice. r resolves variable length strings stored in the
// global heap and may be nil for other types.
func Convert(dt *message.Datatype, data []byte, n uint64, dest interface{}, r *bin.Reader) error {
	if dt == nil {
		return fmt.Errorf("%w: nil datatype", ErrUnsupported)
	}
	if uint64(len(data)) < n*uint64(dt.Size) {
		return fmt.Errorf("have %d bytes for %d elements of %d bytes", len(data), n, dt.Size)
	}

	if isString(dt) {
		strs, err := decodeStrings(dt, data, int(n), r)
		if err != nil {
			return err
		}
		switch d := dest.(type) {
		case *[]string:
			*d = strs
		case *[]interface{}:
			out := make([]interface{}, len(strs))
			for i, s := range strs {
				out[i] = s
			}
			*d = out
		default:
			return fmt.Errorf("%w: %s into %T", ErrUnsupported, dt, dest)
		}
		return nil
	}

	nums, err := decodeNumbers(dt, data, int(n))
	if err != nil {
		return err
	}
	switch d := dest.(type) {
	case *[]float64:
		assign(d, nums)
	case *[]float32:
		assign(d, nums)
	case *[]int64:
		assign(d, nums)
	case *[]int32:
		assign(d, nums)
	case *[]int16:
		assign(d, nums)
	case *[]int8:
		assign(d, nums)
	case *[]int:
		assign(d, nums)
	case *[]uint64:
		assign(d, nums)
	case *[]uint32:
		assign(d, nums)
	case *[]uint16:
		assign(d, nums)
	case *[]uint8:
		assign(d, nums)
	case *[]uint:
		assign(d, nums)
	case *[]interface{}:
		*d = nums.boxed()
	default:
		return fmt.Errorf("%w: %s into %T", ErrUnsupported, dt, dest)
	}
	return nil
}

// Slice decodes n elements of dt into a new []T.
func Slice[T Number](dt *message.Datatype, data []byte, n uint64) ([]T, error) {
	var out []T
	if isString(dt) {
		return nil, fmt.Errorf("%w: %s into %T", ErrUnsupported, dt, out)
	}
	nums, err := decodeNumbers(dt, data, int(n))
	if err != nil {
		return nil, err
	}
	assign(&out, nums)
	return out, nil
}

func assign[T Number](dst *[]T, v numbers) {
	var out []T
	switch {
	case v.floats != nil:
		out = make([]T, len(v.floats))
		for i, x := range v.floats {
			out[i] = T(x)
		}
	case v.uints != nil:
		out = make([]T, len(v.uints))
		for i, x := range v.uints {
			out[i] = T(x)
		}
	default:
		out = make([]T, len(v.ints))
		for i, x := range v.ints {
			out[i] = T(x)
		}
	}
	*dst = out
}

func (v numbers) boxed() []interface{} {
	var out []interface{}
	switch {
	case v.floats != nil:
		out = make([]interface{}, len(v.floats))
		for i, x := range v.floats {
			out[i] = x
		}
	case v.uints != nil:
		out = make([]interface{}, len(v.uints))
		for i, x := range v.uints {
			out[i] = x
		}
	default:
		out = make([]interface{}, len(v.ints))
		for i, x := range v.ints {
			out[i] = x
		}
	}
	return out
}

func isString(dt *message.Datatype) bool {
	return dt.Class == message.ClassString || dt.Class == message.ClassVarLen && dt.IsVarLenString
}

func byteOrder(dt *message.Datatype) binary.ByteOrder {
	if dt.ByteOrder == message.OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func decodeNumbers(dt *message.Datatype, data []byte, n int) (numbers, error) {
	size := int(dt.Size)
	order := byteOrder(dt)
	var v numbers
	switch dt.Class {
	case message.ClassEnum:
		if dt.Base == nil {
			return v, fmt.Errorf("%w: enum without base type", ErrUnsupported)
		}
		return decodeNumbers(dt.Base, data, n)

	case message.ClassFixedPoint, message.ClassBitfield:
		if size != 1 && size != 2 && size != 4 && size != 8 {
			return v, fmt.Errorf("%w: %d byte integer", ErrUnsupported, size)
		}
		if dt.Signed && dt.Class == message.ClassFixedPoint {
			v.ints = make([]int64, n)
			shift := uint(64 - 8*size)
			for i := range v.ints {
				v.ints[i] = int64(uintN(order, data[i*size:], size)<<shift) >> shift
			}
			return v, nil
		}
		v.uints = make([]uint64, n)
		for i := range v.uints {
			v.uints[i] = uintN(order, data[i*size:], size)
		}
		return v, nil

	case message.ClassFloatPoint:
		v.floats = make([]float64, n)
		switch size {
		case 4:
			for i := range v.floats {
				v.floats[i] = float64(math.Float32frombits(order.Uint32(data[i*4:])))
			}
		case 8:
			for i := range v.floats {
				v.floats[i] = math.Float64frombits(order.Uint64(data[i*8:]))
			}
		default:
			return numbers{}, fmt.Errorf("%w: %d byte float", ErrUnsupported, size)
		}
		return v, nil
	}
	return v, fmt.Errorf("%w: %s datatype", ErrUnsupported, dt)
}

func uintN(order binary.ByteOrder, b []byte, size int) uint64 {
	switch size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	}
	return order.Uint64(b)
}

func decodeStrings(dt *message.Datatype, data []byte, n int, r *bin.Reader) ([]string, error) {
	out := make([]string, n)
	size := int(dt.Size)
	if dt.Class == message.ClassString {
		for i := range out {
			out[i] = trimString(data[i*size:(i+1)*size], dt.Padding)
		}
		return out, nil
	}

	if r == nil {
		return nil, fmt.Errorf("%w: variable length strings need a file", ErrUnsupported)
	}
	// Each element is a length followed by a global heap ID.
	osize := r.OffsetSize()
	if size < 4+osize+4 {
		return nil, fmt.Errorf("variable length element of %d bytes too short", size)
	}
	collections := make(map[uint64]*heap.GlobalHeap)
	for i := range out {
		elem := data[i*size : (i+1)*size]
		if binary.LittleEndian.Uint32(elem) == 0 {
			continue
		}
		id, err := heap.ParseGlobalHeapID(elem[4:], osize)
		if err != nil {
			return nil, err
		}
		if id.CollectionAddress == 0 {
			continue
		}
		gh, ok := collections[id.CollectionAddress]
		if !ok {
			if gh, err = heap.ReadGlobalHeap(r, id.CollectionAddress); err != nil {
				return nil, err
			}
			collections[id.CollectionAddress] = gh
		}
		s, err := gh.GetString(uint16(id.ObjectIndex))
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func trimString(b []byte, pad message.StringPadding) string {
	switch pad {
	case message.PadSpacePad:
		return strings.TrimRight(string(b), " \x00")
	case message.PadNullPad:
		return strings.TrimRight(string(b), "\x00")
	}
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
