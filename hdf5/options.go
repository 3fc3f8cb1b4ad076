package hdf5

import "github.com/robert-malhotra/gridbench/internal/message"

// DatasetOption configures CreateDataset.
type DatasetOption func(*datasetOptions)

type attrDef struct {
	name  string
	value interface{}
}

type datasetOptions struct {
	shape      []uint64
	chunks     []uint64
	attributes []attrDef
	fill       interface{}

	shuffle    bool
	deflate    int // level + 1, zero for none
	fletcher32 bool
}

// WithShape gives the data a shape. The product of dims must equal the
// number of elements supplied to CreateDataset.
func WithShape(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) {
		o.shape = dims
	}
}

// WithChunks stores the dataset in chunks of the given shape.
func WithChunks(dims ...uint64) DatasetOption {
	return func(o *datasetOptions) {
		o.chunks = dims
	}
}

// WithAttribute adds an attribute. The value is a number, a string, or a
// slice of either. It may be given more than once.
func WithAttribute(name string, value interface{}) DatasetOption {
	return func(o *datasetOptions) {
		o.attributes = append(o.attributes, attrDef{name: name, value: value})
	}
}

// WithFillValue sets the value of unwritten elements. It must have the
// element type of the data.
func WithFillValue(value interface{}) DatasetOption {
	return func(o *datasetOptions) {
		o.fill = value
	}
}

// WithDeflate compresses each chunk with zlib at level 0 to 9. It needs
// WithChunks.
func WithDeflate(level int) DatasetOption {
	return func(o *datasetOptions) {
		o.deflate = min(max(level, 0), 9) + 1
	}
}

// WithShuffle reorders the bytes of each chunk before compression. It needs
// WithChunks.
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) {
		o.shuffle = true
	}
}

// WithFletcher32 stores a checksum with each chunk. It needs WithChunks.
func WithFletcher32() DatasetOption {
	return func(o *datasetOptions) {
		o.fletcher32 = true
	}
}

// pipeline returns the filter pipeline message of the options, nil when no
// filter was asked for.
func (o *datasetOptions) pipeline(elemSize uint32) *message.FilterPipeline {
	var filters []message.FilterInfo
	if o.shuffle {
		filters = append(filters, message.FilterInfo{ID: message.FilterShuffle, ClientData: []uint32{elemSize}})
	}
	if o.deflate > 0 {
		filters = append(filters, message.FilterInfo{ID: message.FilterDeflate, ClientData: []uint32{uint32(o.deflate - 1)}})
	}
	if o.fletcher32 {
		filters = append(filters, message.FilterInfo{ID: message.FilterFletcher32})
	}
	if filters == nil {
		return nil
	}
	return &message.FilterPipeline{Version: 2, Filters: filters}
}
