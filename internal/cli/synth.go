package cli

import (
	"fmt"
	"io"

	"github.com/robert-malhotra/gridbench/internal/synth"
)

// Synthetic file formats.
const (
	formatNetCDF3     = "netcdf3"
	formatGridNetCDF3 = "grid-netcdf3"
	formatGridNetCDF4 = "grid-netcdf4"
	formatGridHDF5    = "grid-hdf5"
)

// synth runs the synth command and prints the path written.
func (cfg *Cfg) synth(out io.Writer) error {
	shape, err := cfg.intSlice("shape")
	if err != nil {
		return err
	}
	if len(shape) != 3 {
		return fmt.Errorf("gridbench: shape needs 3 values, got %v", shape)
	}
	path := cfg.GetString("output")

	switch format := cfg.GetString("format"); format {
	case formatNetCDF3:
		s := [3]int{shape[0], shape[1], shape[2]}
		if path == "" {
			path, err = synth.TempNetCDF3("", s)
		} else {
			err = synth.NetCDF3(path, s, synth.DefaultVariable)
		}

	case formatGridNetCDF3, formatGridNetCDF4, formatGridHDF5:
		if path == "" {
			return fmt.Errorf("gridbench: format %s needs --output", format)
		}
		spec := synth.GridSpec{
			Times:      shape[0],
			Lats:       shape[1],
			Lons:       shape[2],
			Variables:  cfg.stringSlice("variables"),
			RecordTime: cfg.GetBool("record-time"),
			Deflate:    cfg.GetInt("deflate"),
		}
		chunks, err := cfg.intSlice("chunks")
		if err != nil {
			return err
		}
		for _, c := range chunks {
			if c <= 0 {
				return fmt.Errorf("gridbench: invalid chunk shape %v", chunks)
			}
			spec.Chunks = append(spec.Chunks, uint64(c))
		}

		switch format {
		case formatGridNetCDF3:
			err = synth.WriteNetCDF3Grid(path, spec)
		case formatGridNetCDF4:
			err = synth.WriteNetCDF4Grid(path, spec)
		default:
			err = synth.WriteHDF5Grid(path, spec)
		}
		if err != nil {
			return err
		}

	default:
		return fmt.Errorf("gridbench: unknown format %q", format)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, path)
	return nil
}
