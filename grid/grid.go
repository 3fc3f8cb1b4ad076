// Package grid gives uniform access to gridded (time, lat, lon) datasets
// stored as classic NetCDF, NetCDF-4 or plain HDF5 files, and measures how
// fast a single-point timeseries can be read from them.
//
// Two interfaces are available, mirroring the libraries a caller would
// normally reach for:
//
//	netcdf4  classic NetCDF (CDF-1, CDF-2) and NetCDF-4 files
//	hdf5     plain HDF5 files, one dataset per variable
//
// Both return a File; OpenerFor maps an interface name to its Opener.
package grid

import (
	"fmt"
)

// Recognised dimension names.
const (
	DimTime = "time"
	DimLat  = "lat"
	DimLon  = "lon"
)

// Interface names accepted by OpenerFor.
const (
	InterfaceNetCDF4 = "netcdf4"
	InterfaceHDF5    = "hdf5"
)

// File is an open gridded dataset.
type File interface {
	// Path returns the path the file was opened from.
	Path() string

	// Variables returns the names of all variables in the file.
	Variables() []string

	// Dimensions returns the recognised dimensions present in the file, a
	// subset of {time, lat, lon}.
	Dimensions() []string

	// XLen, YLen and ZLen return the lengths of lon, lat and time, or zero
	// when the dimension is absent.
	XLen() int
	YLen() int
	ZLen() int

	// ReadColumn reads the whole time axis of variable at (y, x) in one
	// operation.
	ReadColumn(variable string, y, x int) (Column, error)

	// ReadPoint reads one element of variable.
	ReadPoint(variable string, t, y, x int) (float64, error)

	Close() error
}

// Column is a timeseries extracted at one grid cell.
type Column struct {
	Values []float64

	// ItemSize is the size in bytes of one element as read.
	ItemSize int
}

// Shape returns the shape of the column.
func (c Column) Shape() []int {
	return []int{len(c.Values)}
}

// Opener opens a gridded file.
type Opener func(path string) (File, error)

// OpenerFor returns the opener for the named interface.
func OpenerFor(name string) (Opener, error) {
	switch name {
	case InterfaceNetCDF4:
		return OpenNetCDF, nil
	case InterfaceHDF5:
		return OpenHDF5, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterface, name)
	}
}

func isDimension(name string) bool {
	return name == DimTime || name == DimLat || name == DimLon
}

func hasDimension(f File, name string) bool {
	for _, d := range f.Dimensions() {
		if d == name {
			return true
		}
	}
	return false
}

func checkIndex(what string, i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %s index %d, length %d", ErrOutOfRange, what, i, n)
	}
	return nil
}
