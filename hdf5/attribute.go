package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/binary"
	"github.com/robert-malhotra/gridbench/internal/dtype"
	"github.com/robert-malhotra/gridbench/internal/message"
)

// Attribute is an attribute attached to a dataset or group.
type Attribute struct {
	msg    *message.Attribute
	reader *binary.Reader // resolves global heap references
}

// Name returns the attribute name.
func (a *Attribute) Name() string {
	return a.msg.Name
}

// Shape returns the dimensions of the attribute value, nil for a scalar.
func (a *Attribute) Shape() []uint64 {
	if a.IsScalar() {
		return nil
	}
	return a.msg.Dataspace.Dimensions
}

// NumElements returns the total number of elements.
func (a *Attribute) NumElements() uint64 {
	if a.msg.Dataspace == nil {
		return 1
	}
	return a.msg.Dataspace.NumElements()
}

// IsScalar reports whether the attribute holds a single value.
func (a *Attribute) IsScalar() bool {
	return a.msg.Dataspace == nil || a.msg.Dataspace.IsScalar()
}

// Read reads the attribute value into dest, a pointer to a slice.
func (a *Attribute) Read(dest interface{}) error {
	if a.msg.Datatype == nil {
		return fmt.Errorf("attribute %q has no datatype", a.msg.Name)
	}
	if a.msg.Data == nil {
		return fmt.Errorf("attribute %q has no data", a.msg.Name)
	}
	return dtype.Convert(a.msg.Datatype, a.msg.Data, a.NumElements(), dest, a.reader)
}

// ReadFloat64 reads the attribute as float64 values.
func (a *Attribute) ReadFloat64() ([]float64, error) {
	var result []float64
	err := a.Read(&result)
	return result, err
}

// ReadInt64 reads the attribute as int64 values.
func (a *Attribute) ReadInt64() ([]int64, error) {
	var result []int64
	err := a.Read(&result)
	return result, err
}

// ReadString reads the attribute as string values.
func (a *Attribute) ReadString() ([]string, error) {
	var result []string
	err := a.Read(&result)
	return result, err
}

// ReadScalarString reads the first value of a string attribute.
func (a *Attribute) ReadScalarString() (string, error) {
	vals, err := a.ReadString()
	if err != nil {
		return "", err
	}
	if len(vals) == 0 {
		return "", fmt.Errorf("attribute %q has no values", a.msg.Name)
	}
	return vals[0], nil
}

// Value reads the attribute as int64, uint64, float64 or string, or a slice
// of one of those when the attribute is not scalar. Other classes are read
// generically.
func (a *Attribute) Value() (interface{}, error) {
	dt := a.msg.Datatype
	if dt == nil {
		return nil, fmt.Errorf("attribute %q has no datatype", a.msg.Name)
	}

	var (
		v   interface{}
		n   int
		err error
	)
	switch {
	case dt.Class == message.ClassFixedPoint && !dt.Signed:
		var vals []uint64
		err = a.Read(&vals)
		v, n = vals, len(vals)
	case dt.Class == message.ClassFixedPoint, dt.Class == message.ClassEnum:
		var vals []int64
		vals, err = a.ReadInt64()
		v, n = vals, len(vals)
	case dt.Class == message.ClassFloatPoint:
		var vals []float64
		vals, err = a.ReadFloat64()
		v, n = vals, len(vals)
	case dt.Class == message.ClassString, dt.Class == message.ClassVarLen && dt.IsVarLenString:
		var vals []string
		vals, err = a.ReadString()
		v, n = vals, len(vals)
	default:
		var vals []interface{}
		err = a.Read(&vals)
		v, n = vals, len(vals)
	}
	if err != nil {
		return nil, err
	}
	if a.IsScalar() && n == 1 {
		return first(v), nil
	}
	return v, nil
}

func first(v interface{}) interface{} {
	switch s := v.(type) {
	case []uint64:
		return s[0]
	case []int64:
		return s[0]
	case []float64:
		return s[0]
	case []string:
		return s[0]
	case []interface{}:
		return s[0]
	}
	return v
}
