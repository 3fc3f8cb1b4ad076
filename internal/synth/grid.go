package synth

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/robert-malhotra/gridbench/hdf5"
	"gonum.org/v1/gonum/floats"
)

// Dimension names of the fixtures written by this file.
const (
	DimTime = "time"
	DimLat  = "lat"
	DimLon  = "lon"
)

// NetCDF-4 marks dimensions with these HDF5 attributes.
const (
	scaleClassAttr = "CLASS"
	scaleClass     = "DIMENSION_SCALE"
	scaleNameAttr  = "NAME"
)

var units = map[string]string{
	DimTime:  "days since 1950-01-01",
	DimLat:   "degrees_north",
	DimLon:   "degrees_east",
	"pr":     "kg m-2 s-1",
	"tasmin": "K",
	"tasmax": "K",
}

func unitsOf(v string) string {
	if u, ok := units[v]; ok {
		return u
	}
	return "1"
}

// GridSpec describes a (time, lat, lon) fixture.
type GridSpec struct {
	Times, Lats, Lons int
	Variables         []string

	// RecordTime makes time the unlimited dimension of classic files.
	RecordTime bool

	// Chunks sets the chunk shape of HDF5 variables. Nil writes them
	// contiguously.
	Chunks []uint64

	// Deflate compresses the chunks of HDF5 variables at levels 1 to 9,
	// after shuffling their bytes. Zero leaves them uncompressed.
	Deflate int
}

func (s GridSpec) validate() error {
	if s.Times <= 0 || s.Lats <= 0 || s.Lons <= 0 {
		return fmt.Errorf("synth: invalid grid %dx%dx%d", s.Times, s.Lats, s.Lons)
	}
	if len(s.Variables) == 0 {
		return fmt.Errorf("synth: grid has no variables")
	}
	if s.Deflate < 0 || s.Deflate > 9 {
		return fmt.Errorf("synth: deflate level %d is not between 0 and 9", s.Deflate)
	}
	if s.Deflate > 0 && s.Chunks == nil {
		return fmt.Errorf("synth: deflate needs a chunk shape")
	}
	return nil
}

func (s GridSpec) shape() [3]int {
	return [3]int{s.Times, s.Lats, s.Lons}
}

// Values returns the contents of the k-th variable: Pattern offset by k.
func (s GridSpec) Values(k int) []float32 {
	p := Pattern(s.shape())
	if k == 0 {
		return p
	}
	tmp := make([]float64, len(p))
	for i, v := range p {
		tmp[i] = float64(v)
	}
	floats.AddConst(float64(k), tmp)
	for i, v := range tmp {
		p[i] = float32(v)
	}
	return p
}

// axis returns n evenly spaced values from lo to hi.
func axis(n int, lo, hi float64) []float64 {
	a := make([]float64, n)
	if n == 1 {
		a[0] = lo
		return a
	}
	return floats.Span(a, lo, hi)
}

func (s GridSpec) axes() (time, lat, lon []float64) {
	return axis(s.Times, 0, float64(s.Times-1)),
		axis(s.Lats, -90, 90),
		axis(s.Lons, 0, 360-360/float64(s.Lons))
}

// WriteNetCDF3Grid writes s as a classic NetCDF file with coordinate variables.
func WriteNetCDF3Grid(path string, s GridSpec) error {
	if err := s.validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeNetCDF3Grid(f, s); err != nil {
		f.Close()
		return fmt.Errorf("synth: writing %s: %w", path, err)
	}
	return f.Close()
}

func writeNetCDF3Grid(f *os.File, s GridSpec) error {
	nt := s.Times
	if s.RecordTime {
		nt = 0
	}
	h := cdf.NewHeader([]string{DimTime, DimLat, DimLon}, []int{nt, s.Lats, s.Lons})

	for _, d := range []string{DimTime, DimLat, DimLon} {
		h.AddVariable(d, []string{d}, []float64{0})
		h.AddAttribute(d, "units", unitsOf(d))
	}
	for _, v := range s.Variables {
		h.AddVariable(v, []string{DimTime, DimLat, DimLon}, []float32{0})
		h.AddAttribute(v, "units", unitsOf(v))
	}
	h.Define()

	cf, err := cdf.Create(f, h)
	if err != nil {
		return err
	}

	time, lat, lon := s.axes()
	coords := []struct {
		name   string
		values []float64
	}{{DimTime, time}, {DimLat, lat}, {DimLon, lon}}
	for _, c := range coords {
		if err := writeAll(cf, c.name, []int{0}, []int{len(c.values) - 1}, c.values); err != nil {
			return err
		}
	}

	end := []int{s.Times - 1, s.Lats - 1, s.Lons - 1}
	for k, v := range s.Variables {
		if err := writeAll(cf, v, []int{0, 0, 0}, end, s.Values(k)); err != nil {
			return err
		}
	}
	return cdf.UpdateNumRecs(f)
}

// WriteHDF5Grid writes s as a plain HDF5 file: one 1-D dataset per axis and
// one (time, lat, lon) dataset per variable, all in the root group.
func WriteHDF5Grid(path string, s GridSpec) error {
	return writeHDF5Grid(path, s, false)
}

// WriteNetCDF4Grid writes s with the HDF5 layout NetCDF-4 uses: like
// WriteHDF5Grid, with the axes marked as dimension scales.
func WriteNetCDF4Grid(path string, s GridSpec) error {
	return writeHDF5Grid(path, s, true)
}

func writeHDF5Grid(path string, s GridSpec, scales bool) error {
	if err := s.validate(); err != nil {
		return err
	}

	f, err := hdf5.Create(path)
	if err != nil {
		return err
	}
	if err := fillHDF5Grid(f.Root(), s, scales); err != nil {
		f.Close()
		return fmt.Errorf("synth: writing %s: %w", path, err)
	}
	return f.Close()
}

func fillHDF5Grid(root *hdf5.Group, s GridSpec, scales bool) error {
	if scales {
		if err := root.SetAttribute("Conventions", "CF-1.6"); err != nil {
			return err
		}
	}
	time, lat, lon := s.axes()
	coords := []struct {
		name   string
		values []float64
	}{{DimTime, time}, {DimLat, lat}, {DimLon, lon}}

	for _, c := range coords {
		opts := []hdf5.DatasetOption{hdf5.WithAttribute("units", unitsOf(c.name))}
		if scales {
			opts = append(opts,
				hdf5.WithAttribute(scaleClassAttr, scaleClass),
				hdf5.WithAttribute(scaleNameAttr, c.name))
		}
		if _, err := root.CreateDataset(c.name, c.values, opts...); err != nil {
			return fmt.Errorf("creating %s: %w", c.name, err)
		}
	}

	for k, v := range s.Variables {
		opts := []hdf5.DatasetOption{
			hdf5.WithShape(uint64(s.Times), uint64(s.Lats), uint64(s.Lons)),
			hdf5.WithAttribute("units", unitsOf(v)),
		}
		if s.Chunks != nil {
			opts = append(opts, hdf5.WithChunks(s.Chunks...))
		}
		if s.Deflate > 0 {
			opts = append(opts, hdf5.WithShuffle(), hdf5.WithDeflate(s.Deflate))
		}
		if _, err := root.CreateDataset(v, s.Values(k), opts...); err != nil {
			return fmt.Errorf("creating %s: %w", v, err)
		}
	}
	return nil
}
