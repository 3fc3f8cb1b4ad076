// Command gridbench measures how fast a single-point timeseries can be read
// from gridded NetCDF and HDF5 files.
package main

import "github.com/robert-malhotra/gridbench/internal/cli"

func main() {
	cli.Execute()
}
