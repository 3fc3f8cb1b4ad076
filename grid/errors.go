package grid

import "errors"

// Common errors.
var (
	// ErrUnknownInterface is returned by OpenerFor for an unsupported interface name.
	ErrUnknownInterface = errors.New("unknown interface")

	// ErrUnknownFormat is returned when a file is neither classic NetCDF nor HDF5.
	ErrUnknownFormat = errors.New("unknown file format")

	// ErrUnknownMethod is returned by ParseMethod for an unsupported method name.
	ErrUnknownMethod = errors.New("unknown extraction method")

	// ErrMissingDimension is returned when a file lacks a dimension a measurement needs.
	ErrMissingDimension = errors.New("missing dimension")

	// ErrNoCandidate is returned when a file holds none of the candidate variables.
	ErrNoCandidate = errors.New("no candidate variable")

	// ErrNotFound is returned when a variable does not exist.
	ErrNotFound = errors.New("variable not found")

	// ErrBadShape is returned when a variable is not (time, lat, lon).
	ErrBadShape = errors.New("variable is not three-dimensional")

	// ErrOutOfRange is returned for an index outside a variable.
	ErrOutOfRange = errors.New("index out of range")
)
