package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/gridbench/internal/dtype"
	"github.com/robert-malhotra/gridbench/internal/filter"
	"github.com/robert-malhotra/gridbench/internal/layout"
	"github.com/robert-malhotra/gridbench/internal/message"
	"github.com/robert-malhotra/gridbench/internal/object"
)

// CreateDataset writes data, a number, a string, or a rectangular (possibly
// nested) slice of them, as a new dataset in g. The datatype follows the Go
// element type. The returned dataset can be read back before the file is
// closed.
func (g *Group) CreateDataset(name string, data interface{}, opts ...DatasetOption) (*Dataset, error) {
	o := &datasetOptions{}
	for _, opt := range opts {
		opt(o)
	}

	dt, dims, raw, err := dtype.Encode(data)
	if err != nil {
		return nil, fmt.Errorf("encoding dataset %q: %w", name, err)
	}
	if o.shape != nil {
		if have, want := product(dims), product(o.shape); have != want {
			return nil, fmt.Errorf("shape %v holds %d elements, data has %d", o.shape, want, have)
		}
		dims = o.shape
	}
	space := message.NewScalarDataspace()
	if dims != nil {
		space = message.NewDataspace(dims, nil)
	}

	fill := message.NewFillValue(nil)
	if o.fill != nil {
		fdt, fdims, fb, err := dtype.Encode(o.fill)
		if err != nil {
			return nil, fmt.Errorf("fill value: %w", err)
		}
		if fdims != nil || fdt.Class != dt.Class || fdt.Size != dt.Size {
			return nil, fmt.Errorf("fill value of type %s does not match %s data", fdt, dt)
		}
		fill = message.NewFillValue(fb)
	}

	fp := o.pipeline(dt.Size)
	if fp != nil && o.chunks == nil {
		return nil, fmt.Errorf("%w: filters need chunked storage", ErrUnsupported)
	}

	link, err := g.addLink(name)
	if err != nil {
		return nil, err
	}
	drop := func() { g.pending.links = g.pending.links[:len(g.pending.links)-1] }

	var lm *message.DataLayout
	if o.chunks != nil {
		var p *filter.Pipeline
		if p, err = filter.NewPipeline(fp); err != nil {
			drop()
			return nil, err
		}
		lm, err = layout.WriteChunked(g.file.writer, g.file.allocator, raw, dims, o.chunks, dt.Size, p)
	} else {
		lm, err = layout.WriteContiguous(g.file.writer, g.file.allocator, raw)
	}
	if err != nil {
		drop()
		return nil, fmt.Errorf("writing dataset %q: %w", name, err)
	}

	msgs := object.NewDatasetHeader(space, dt, fill, lm, fp)
	for _, attr := range o.attributes {
		a, err := newAttribute(attr.name, attr.value)
		if err != nil {
			drop()
			return nil, fmt.Errorf("attribute %q: %w", attr.name, err)
		}
		msgs = append(msgs, a)
	}
	addr, err := g.file.writeObject(msgs, 0)
	if err != nil {
		drop()
		return nil, fmt.Errorf("writing header of dataset %q: %w", name, err)
	}
	link.ObjectAddress = addr

	ds, err := g.file.openDatasetAt(addr, path.Join(g.path, name))
	if err != nil {
		return nil, err
	}
	g.pending.datasets[name] = ds
	return ds, nil
}

// newAttribute encodes value as an attribute message.
func newAttribute(name string, value interface{}) (*message.Attribute, error) {
	dt, dims, data, err := dtype.Encode(value)
	if err != nil {
		return nil, err
	}
	space := message.NewScalarDataspace()
	if dims != nil {
		space = message.NewDataspace(dims, nil)
	}
	return message.NewAttribute(name, dt, space, data), nil
}

func product(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}
