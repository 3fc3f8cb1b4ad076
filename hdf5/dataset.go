package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/gridbench/internal/binary"
	"github.com/robert-malhotra/gridbench/internal/dtype"
	"github.com/robert-malhotra/gridbench/internal/filter"
	"github.com/robert-malhotra/gridbench/internal/layout"
	"github.com/robert-malhotra/gridbench/internal/message"
	"github.com/robert-malhotra/gridbench/internal/object"
)

// Dataset represents an HDF5 dataset.
type Dataset struct {
	file      *File
	path      string
	header    *object.Header
	dataspace *message.Dataspace
	datatype  *message.Datatype
	layout    layout.Layout
}

func newDataset(f *File, path string, header *object.Header) (*Dataset, error) {
	ds := &Dataset{
		file:      f,
		path:      path,
		header:    header,
		dataspace: header.Dataspace(),
		datatype:  header.Datatype(),
	}
	if ds.dataspace == nil {
		return nil, fmt.Errorf("dataset %s has no dataspace: %w", path, unsupported(header, message.TypeDataspace))
	}
	if ds.datatype == nil {
		return nil, fmt.Errorf("dataset %s has no datatype: %w", path, unsupported(header, message.TypeDatatype))
	}
	msg := header.DataLayout()
	if msg == nil {
		return nil, fmt.Errorf("dataset %s has no layout: %w", path, unsupported(header, message.TypeDataLayout))
	}

	var err error
	ds.layout, err = layout.New(msg, ds.dataspace, ds.datatype, header.FilterPipeline(), header.FillValue(), f.reader)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return ds, nil
}

// unsupported returns why a message of type typ was skipped, or
// ErrNotFound if the header never had one.
func unsupported(h *object.Header, typ message.Type) error {
	if err, ok := h.Unsupported[typ]; ok {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return ErrNotFound
}

// Name returns the last component of the dataset path.
func (d *Dataset) Name() string {
	return path.Base(d.path)
}

// Path returns the full path to this dataset.
func (d *Dataset) Path() string {
	return d.path
}

// Shape returns the dimensions of the dataset, nil for a scalar.
func (d *Dataset) Shape() []uint64 {
	if d.dataspace.IsScalar() {
		return nil
	}
	return d.dataspace.Dimensions
}

// NumElements returns the total number of elements.
func (d *Dataset) NumElements() uint64 {
	return d.dataspace.NumElements()
}

// IsScalar reports whether the dataset holds a single value.
func (d *Dataset) IsScalar() bool {
	return d.dataspace.IsScalar()
}

// DtypeSize returns the size of each element in bytes.
func (d *Dataset) DtypeSize() int {
	return int(d.datatype.Size)
}

// Dtype describes the element type, for example "float32" or "string".
func (d *Dataset) Dtype() string {
	return d.datatype.String()
}

// Storage returns the storage layout: compact, contiguous or chunked.
func (d *Dataset) Storage() string {
	return d.layout.Class().String()
}

// ChunkDims returns the chunk shape of a chunked dataset and nil otherwise.
func (d *Dataset) ChunkDims() []uint64 {
	if c, ok := d.layout.(*layout.Chunked); ok {
		return c.ChunkDims()
	}
	return nil
}

// Filters returns the names of the filters applied to each chunk.
func (d *Dataset) Filters() []string {
	fp := d.header.FilterPipeline()
	if fp == nil {
		return nil
	}
	names := make([]string, len(fp.Filters))
	for i, info := range fp.Filters {
		names[i] = filter.Name(info)
	}
	return names
}

// Read reads all data from the dataset into dest, a pointer to a slice of
// a numeric type or of string.
func (d *Dataset) Read(dest interface{}) error {
	raw, err := d.layout.Read()
	if err != nil {
		return fmt.Errorf("reading %s: %w", d.path, err)
	}
	return dtype.Convert(d.datatype, raw, d.dataspace.NumElements(), dest, d.file.reader)
}

// ReadSlice reads the hyperslab that begins at start and spans count
// elements along each dimension. Elements arrive in row-major order.
func (d *Dataset) ReadSlice(start, count []uint64, dest interface{}) error {
	if d.dataspace.IsScalar() {
		return fmt.Errorf("%w: cannot slice scalar dataset %s", ErrOutOfRange, d.path)
	}
	dims := d.dataspace.Dimensions
	if len(start) != len(dims) || len(count) != len(dims) {
		return fmt.Errorf("%w: selection rank %d/%d, dataset %s has rank %d",
			ErrOutOfRange, len(start), len(count), d.path, len(dims))
	}
	n := uint64(1)
	for i := range dims {
		if start[i] > dims[i] || count[i] > dims[i]-start[i] {
			return fmt.Errorf("%w: dimension %d of %s: start %d count %d size %d",
				ErrOutOfRange, i, d.path, start[i], count[i], dims[i])
		}
		n *= count[i]
	}

	raw, err := d.layout.ReadSlice(start, count)
	if err != nil {
		return fmt.Errorf("reading slice of %s: %w", d.path, err)
	}
	return dtype.Convert(d.datatype, raw, n, dest, d.file.reader)
}

// ReadFloat64 reads the dataset as float64 values.
func (d *Dataset) ReadFloat64() ([]float64, error) {
	var result []float64
	err := d.Read(&result)
	return result, err
}

// ReadFloat32 reads the dataset as float32 values.
func (d *Dataset) ReadFloat32() ([]float32, error) {
	var result []float32
	err := d.Read(&result)
	return result, err
}

// Attrs returns the attribute names of the dataset.
func (d *Dataset) Attrs() []string {
	return attrNames(d.header)
}

// Attr returns an attribute by name, or nil if there is none.
func (d *Dataset) Attr(name string) *Attribute {
	return findAttr(d.header, name, d.file.reader)
}

func attrNames(h *object.Header) []string {
	var names []string
	for _, a := range h.Attributes() {
		names = append(names, a.Name)
	}
	return names
}

func findAttr(h *object.Header, name string, r *binary.Reader) *Attribute {
	for _, a := range h.Attributes() {
		if a.Name == name {
			return &Attribute{msg: a, reader: r}
		}
	}
	return nil
}
