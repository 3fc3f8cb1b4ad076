package grid

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ctessum/cdf"
	"github.com/robert-malhotra/gridbench/hdf5"
)

// File signatures.
var (
	magicCDF1 = []byte("CDF\x01")
	magicCDF2 = []byte("CDF\x02")
	magicHDF5 = []byte("\x89HDF\r\n\x1a\n")
)

// OpenNetCDF opens a NetCDF file. Classic and 64-bit offset files are read
// directly; NetCDF-4 files are read through their HDF5 structure.
func OpenNetCDF(path string) (File, error) {
	osf, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	magic := make([]byte, len(magicHDF5))
	n, err := io.ReadFull(osf, magic)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		osf.Close()
		return nil, fmt.Errorf("reading signature of %s: %w", path, err)
	}
	magic = magic[:n]

	if bytes.HasPrefix(magic, magicCDF1) || bytes.HasPrefix(magic, magicCDF2) {
		return openClassic(path, osf)
	}
	osf.Close()

	f, err := openNetCDF4(path)
	if errors.Is(err, hdf5.ErrNotHDF5) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return f, err
}

// classicFile is a CDF-1 or CDF-2 file.
type classicFile struct {
	path  string
	osf   *os.File
	cf    *cdf.File
	nrec  int
	dims  []string
	sizes map[string]int
}

func openClassic(path string, osf *os.File) (*classicFile, error) {
	cf, err := cdf.Open(osf)
	if err != nil {
		osf.Close()
		return nil, fmt.Errorf("reading NetCDF header of %s: %w", path, err)
	}
	fi, err := osf.Stat()
	if err != nil {
		osf.Close()
		return nil, err
	}

	c := &classicFile{
		path:  path,
		osf:   osf,
		cf:    cf,
		nrec:  int(cf.Header.NumRecs(fi.Size())),
		sizes: make(map[string]int),
	}

	lengths := cf.Header.Lengths("")
	for i, name := range cf.Header.Dimensions("") {
		if !isDimension(name) {
			continue
		}
		n := lengths[i]
		if n == 0 {
			n = c.nrec
		}
		c.dims = append(c.dims, name)
		c.sizes[name] = n
	}
	return c, nil
}

func (c *classicFile) Path() string         { return c.path }
func (c *classicFile) Variables() []string  { return c.cf.Header.Variables() }
func (c *classicFile) Dimensions() []string { return c.dims }
func (c *classicFile) XLen() int            { return c.sizes[DimLon] }
func (c *classicFile) YLen() int            { return c.sizes[DimLat] }
func (c *classicFile) ZLen() int            { return c.sizes[DimTime] }
func (c *classicFile) Close() error         { return c.osf.Close() }

// shape returns the lengths of a (time, lat, lon) variable with the record
// dimension resolved.
func (c *classicFile) shape(variable string) ([]int, error) {
	lengths := c.cf.Header.Lengths(variable)
	if lengths == nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, variable, c.path)
	}
	if len(lengths) != 3 {
		return nil, fmt.Errorf("%w: %s has %d dimensions", ErrBadShape, variable, len(lengths))
	}
	shape := append([]int(nil), lengths...)
	if c.cf.Header.IsRecordVariable(variable) {
		shape[0] = c.nrec
	}
	return shape, nil
}

// ReadColumn reads the column at (y, x) in one call. Each timestep is one
// element read, so only the column's bytes are taken from the file.
func (c *classicFile) ReadColumn(variable string, y, x int) (Column, error) {
	shape, err := c.shape(variable)
	if err != nil {
		return Column{}, err
	}
	if err := checkIndex(DimLat, y, shape[1]); err != nil {
		return Column{}, err
	}
	if err := checkIndex(DimLon, x, shape[2]); err != nil {
		return Column{}, err
	}

	steps := make([]int, shape[0])
	for t := range steps {
		steps[t] = t
	}
	values, err := c.read(variable, y, x, steps)
	if err != nil {
		return Column{}, fmt.Errorf("reading %s from %s: %w", variable, c.path, err)
	}
	return Column{Values: values, ItemSize: c.itemSize(variable)}, nil
}

// ReadPoint reads one element.
func (c *classicFile) ReadPoint(variable string, t, y, x int) (float64, error) {
	shape, err := c.shape(variable)
	if err != nil {
		return 0, err
	}
	if err := checkIndex(DimTime, t, shape[0]); err != nil {
		return 0, err
	}
	if err := checkIndex(DimLat, y, shape[1]); err != nil {
		return 0, err
	}
	if err := checkIndex(DimLon, x, shape[2]); err != nil {
		return 0, err
	}

	v, err := c.read(variable, y, x, []int{t})
	if err != nil {
		return 0, fmt.Errorf("reading %s[%d,%d,%d] from %s: %w", variable, t, y, x, c.path, err)
	}
	return v[0], nil
}

// read reads the elements (t, y, x) of variable for each t in steps.
func (c *classicFile) read(variable string, y, x int, steps []int) ([]float64, error) {
	switch z := c.cf.Header.ZeroValue(variable, 0).(type) {
	case []uint8:
		return readElems[uint8](c.cf, variable, y, x, steps)
	case []int16:
		return readElems[int16](c.cf, variable, y, x, steps)
	case []int32:
		return readElems[int32](c.cf, variable, y, x, steps)
	case []float32:
		return readElems[float32](c.cf, variable, y, x, steps)
	case []float64:
		return readElems[float64](c.cf, variable, y, x, steps)
	default:
		return nil, fmt.Errorf("%s: unsupported element type %T", variable, z)
	}
}

func (c *classicFile) itemSize(variable string) int {
	switch c.cf.Header.ZeroValue(variable, 0).(type) {
	case []int16:
		return 2
	case []int32, []float32:
		return 4
	case []float64:
		return 8
	default:
		return 1
	}
}

type number interface {
	uint8 | int16 | int32 | float32 | float64
}

// readElems reads one element per timestep with a reader spanning just that
// element.
func readElems[T number](cf *cdf.File, variable string, y, x int, steps []int) ([]float64, error) {
	out := make([]float64, len(steps))
	buf := make([]T, 1)
	for i, t := range steps {
		idx := []int{t, y, x}
		if _, err := cf.Reader(variable, idx, idx).Read(buf); err != nil {
			return nil, err
		}
		out[i] = float64(buf[0])
	}
	return out, nil
}
