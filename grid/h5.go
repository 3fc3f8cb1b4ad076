package grid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robert-malhotra/gridbench/hdf5"
)

// NetCDF-4 dimension scale attributes.
const (
	scaleClassAttr = "CLASS"
	scaleClass     = "DIMENSION_SCALE"
	scaleNameAttr  = "NAME"

	// NAME of a scale that backs a dimension with no coordinate variable.
	bareDimensionPrefix = "This is a netCDF dimension but not a netCDF variable"
)

// h5File is a gridded file read through the HDF5 engine.
type h5File struct {
	path     string
	f        *hdf5.File
	vars     []string
	dims     []string
	sizes    map[string]int
	datasets map[string]*hdf5.Dataset
}

func newH5File(path string, f *hdf5.File) *h5File {
	return &h5File{
		path:     path,
		f:        f,
		sizes:    make(map[string]int),
		datasets: make(map[string]*hdf5.Dataset),
	}
}

// OpenHDF5 opens a plain HDF5 file. Every root member is a variable; the
// lat, lon and time members are also dimensions, sized by their element
// counts.
func OpenHDF5(path string) (File, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, err
	}

	g := newH5File(path, f)
	members, err := f.Root().Members()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	g.vars = members

	for _, name := range members {
		if !isDimension(name) {
			continue
		}
		ds, err := g.dataset(name)
		if err != nil {
			f.Close()
			return nil, err
		}
		g.dims = append(g.dims, name)
		g.sizes[name] = int(ds.NumElements())
	}
	return g, nil
}

// openNetCDF4 opens a NetCDF-4 file. Variables are the root datasets;
// dimensions are the root datasets marked as dimension scales.
func openNetCDF4(path string) (*h5File, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, err
	}

	g := newH5File(path, f)
	members, err := f.Root().Members()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}

	for _, name := range members {
		ds, err := g.dataset(name)
		if errors.Is(err, hdf5.ErrNotDataset) {
			continue
		}
		if err != nil {
			f.Close()
			return nil, err
		}

		dim, bare := scaleName(ds, name)
		if !bare {
			g.vars = append(g.vars, name)
		}
		if dim != "" && isDimension(dim) {
			g.dims = append(g.dims, dim)
			g.sizes[dim] = int(ds.NumElements())
		}
	}
	return g, nil
}

// scaleName returns the dimension a dataset defines, or "" if it is not a
// dimension scale. bare reports a scale with no coordinate variable.
func scaleName(ds *hdf5.Dataset, name string) (dim string, bare bool) {
	class := ds.Attr(scaleClassAttr)
	if class == nil {
		return "", false
	}
	if v, err := class.ReadScalarString(); err != nil || v != scaleClass {
		return "", false
	}

	attr := ds.Attr(scaleNameAttr)
	if attr == nil {
		return name, false
	}
	v, err := attr.ReadScalarString()
	if err != nil || v == "" {
		return name, false
	}
	if strings.HasPrefix(v, bareDimensionPrefix) {
		return name, true
	}
	return v, false
}

func (g *h5File) Path() string         { return g.path }
func (g *h5File) Variables() []string  { return g.vars }
func (g *h5File) Dimensions() []string { return g.dims }
func (g *h5File) XLen() int            { return g.sizes[DimLon] }
func (g *h5File) YLen() int            { return g.sizes[DimLat] }
func (g *h5File) ZLen() int            { return g.sizes[DimTime] }
func (g *h5File) Close() error         { return g.f.Close() }

func (g *h5File) dataset(name string) (*hdf5.Dataset, error) {
	if ds, ok := g.datasets[name]; ok {
		return ds, nil
	}
	ds, err := g.f.OpenDataset(name)
	if errors.Is(err, hdf5.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, g.path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s in %s: %w", name, g.path, err)
	}
	g.datasets[name] = ds
	return ds, nil
}

// grid3 returns a (time, lat, lon) dataset and its shape.
func (g *h5File) grid3(variable string) (*hdf5.Dataset, []uint64, error) {
	ds, err := g.dataset(variable)
	if err != nil {
		return nil, nil, err
	}
	shape := ds.Shape()
	if len(shape) != 3 {
		return nil, nil, fmt.Errorf("%w: %s has %d dimensions", ErrBadShape, variable, len(shape))
	}
	return ds, shape, nil
}

// ReadColumn reads the column as one (nt, 1, 1) hyperslab.
func (g *h5File) ReadColumn(variable string, y, x int) (Column, error) {
	ds, shape, err := g.grid3(variable)
	if err != nil {
		return Column{}, err
	}
	if err := checkIndex(DimLat, y, int(shape[1])); err != nil {
		return Column{}, err
	}
	if err := checkIndex(DimLon, x, int(shape[2])); err != nil {
		return Column{}, err
	}

	col := Column{ItemSize: ds.DtypeSize()}
	if shape[0] == 0 {
		return col, nil
	}
	start := []uint64{0, uint64(y), uint64(x)}
	count := []uint64{shape[0], 1, 1}
	if err := ds.ReadSlice(start, count, &col.Values); err != nil {
		return Column{}, fmt.Errorf("reading %s from %s: %w", variable, g.path, err)
	}
	return col, nil
}

// ReadPoint reads one element as a (1, 1, 1) hyperslab.
func (g *h5File) ReadPoint(variable string, t, y, x int) (float64, error) {
	ds, shape, err := g.grid3(variable)
	if err != nil {
		return 0, err
	}
	if err := checkIndex(DimTime, t, int(shape[0])); err != nil {
		return 0, err
	}
	if err := checkIndex(DimLat, y, int(shape[1])); err != nil {
		return 0, err
	}
	if err := checkIndex(DimLon, x, int(shape[2])); err != nil {
		return 0, err
	}

	var v []float64
	start := []uint64{uint64(t), uint64(y), uint64(x)}
	if err := ds.ReadSlice(start, []uint64{1, 1, 1}, &v); err != nil {
		return 0, fmt.Errorf("reading %s[%d,%d,%d] from %s: %w", variable, t, y, x, g.path, err)
	}
	return v[0], nil
}
