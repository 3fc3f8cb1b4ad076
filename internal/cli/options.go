package cli

import (
	"github.com/robert-malhotra/gridbench/grid"
	"github.com/spf13/pflag"
)

// options lists the configuration options available to gridbench.
func (cfg *Cfg) options() []option {
	return []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "log-level",
			usage: `
              log-level sets the verbosity of the log written to standard
              error: panic, fatal, error, warning, info or debug.`,
			defaultVal: "warning",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "directory",
			usage: `
              directory is sampled for files to measure when none are
              given as arguments.`,
			shorthand:  "d",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.measureCmd.Flags()},
		},
		{
			name: "num-files",
			usage: `
              num-files is the number of files sampled from directory.`,
			shorthand:  "n",
			defaultVal: 5,
			flagsets:   []*pflag.FlagSet{cfg.measureCmd.Flags()},
		},
		{
			name: "interface",
			usage: `
              interface selects how files are opened: netcdf4 reads classic
              NetCDF and NetCDF-4 files, hdf5 reads plain HDF5 files.`,
			shorthand:  "i",
			defaultVal: grid.InterfaceNetCDF4,
			flagsets:   []*pflag.FlagSet{cfg.measureCmd.Flags(), cfg.inspectCmd.Flags()},
		},
		{
			name: "method",
			usage: `
              method selects how the column is read: direct reads it in one
              call, iterative reads one timestep at a time.`,
			shorthand:  "m",
			defaultVal: string(grid.Direct),
			flagsets:   []*pflag.FlagSet{cfg.measureCmd.Flags()},
		},
		{
			name: "seed",
			usage: `
              seed seeds file and variable selection. Zero seeds from the
              clock.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{cfg.measureCmd.Flags()},
		},
		{
			name: "mem-limit",
			usage: `
              mem-limit fails a measurement when the data segment of the
              process is over this size before or after it, for example
              512MiB or 2GB. Empty disables the check.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.measureCmd.Flags()},
		},
		{
			name: "drop-cache",
			usage: `
              drop-cache evicts each file from the page cache before it is
              measured.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cfg.measureCmd.Flags()},
		},
		{
			name: "summary",
			usage: `
              summary prints the median, standard deviation, minimum and
              maximum rate after the average.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cfg.measureCmd.Flags()},
		},
		{
			name: "output",
			usage: `
              output is the path of the synthetic file. The netcdf3 format
              writes a new temporary file when it is empty.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.synthCmd.Flags()},
		},
		{
			name: "shape",
			usage: `
              shape is the Z,Y,X (time, lat, lon) size of the synthetic file.`,
			defaultVal: []int{4, 8, 8},
			flagsets:   []*pflag.FlagSet{cfg.synthCmd.Flags()},
		},
		{
			name: "format",
			usage: `
              format is one of netcdf3, grid-netcdf3, grid-netcdf4 or
              grid-hdf5.`,
			defaultVal: formatNetCDF3,
			flagsets:   []*pflag.FlagSet{cfg.synthCmd.Flags()},
		},
		{
			name: "variables",
			usage: `
              variables are the data variables of a grid file.`,
			defaultVal: []string{"pr", "tasmin", "tasmax"},
			flagsets:   []*pflag.FlagSet{cfg.synthCmd.Flags()},
		},
		{
			name: "record-time",
			usage: `
              record-time makes time the unlimited dimension of a
              grid-netcdf3 file.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cfg.synthCmd.Flags()},
		},
		{
			name: "chunks",
			usage: `
              chunks is the chunk shape of the variables of an HDF5 based
              grid file. Empty writes them contiguously.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{cfg.synthCmd.Flags()},
		},
		{
			name: "deflate",
			usage: `
              deflate compresses the chunks of an HDF5 based grid file at
              this level, 1 to 9, after shuffling them. It needs chunks.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{cfg.synthCmd.Flags()},
		},
		{
			name: "tree",
			usage: `
              tree lists every group and dataset of an HDF5 based file with
              its attributes.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cfg.inspectCmd.Flags()},
		},
	}
}
