// Package synth writes small gridded files with deterministic contents for
// local experiments and tests.
package synth

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"
	"github.com/thanhpk/randstr"
	"gonum.org/v1/gonum/floats"
)

// DefaultVariable is the variable written by TempNetCDF3.
const DefaultVariable = "some_variable"

// Centre of the radial pattern, in grid cells.
const (
	centreX = 256
	centreY = 256
)

// Pattern returns the row-major (z, y, x) values of a grid of the given shape.
// Each horizontal slice is a radial ripple around (256, 256) shifted by
// sin(z/32).
func Pattern(shape [3]int) []float32 {
	nz, ny, nx := shape[0], shape[1], shape[2]
	plane := ny * nx

	base := make([]float64, plane)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			d := math.Hypot(float64(x-centreX), float64(y-centreY))
			base[y*nx+x] = float64(float32(math.Sin(d/64) + math.Sin(0)))
		}
	}

	out := make([]float32, nz*plane)
	slab := make([]float64, plane)
	for z := 0; z < nz; z++ {
		copy(slab, base)
		// float32 + float32 evaluated in float64 rounds the same as in float32.
		floats.AddConst(float64(float32(math.Sin(float64(z)/32))), slab)
		dst := out[z*plane : (z+1)*plane]
		for i, v := range slab {
			dst[i] = float32(v)
		}
	}
	return out
}

// NetCDF3 writes a classic NetCDF file at path holding one float variable with
// dimensions (z, y, x) filled with Pattern(shape).
func NetCDF3(path string, shape [3]int, variable string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeNetCDF3(f, shape, variable); err != nil {
		f.Close()
		return fmt.Errorf("synth: writing %s: %w", path, err)
	}
	return f.Close()
}

// TempNetCDF3 writes Pattern(shape) to a new temporary .nc file in dir, or
// the system temporary directory if dir is empty, and returns its path.
func TempNetCDF3(dir string, shape [3]int) (string, error) {
	f, err := createTemp(dir)
	if err != nil {
		return "", err
	}
	if err := writeNetCDF3(f, shape, DefaultVariable); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("synth: writing %s: %w", f.Name(), err)
	}
	return f.Name(), f.Close()
}

// createTemp creates a new file with a random name ending in .nc.
func createTemp(dir string) (*os.File, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	var err error
	for i := 0; i < 100; i++ {
		var f *os.File
		name := filepath.Join(dir, "gridbench-"+randstr.Hex(8)+".nc")
		f, err = os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		if !os.IsExist(err) {
			return f, err
		}
	}
	return nil, err
}

func writeNetCDF3(f *os.File, shape [3]int, variable string) error {
	for _, n := range shape {
		if n <= 0 {
			return fmt.Errorf("invalid shape %v", shape)
		}
	}

	h := cdf.NewHeader([]string{"x", "y", "z"}, []int{shape[2], shape[1], shape[0]})
	h.AddVariable(variable, []string{"z", "y", "x"}, []float32{0})
	h.Define()

	cf, err := cdf.Create(f, h)
	if err != nil {
		return err
	}

	end := []int{shape[0] - 1, shape[1] - 1, shape[2] - 1}
	if err := writeAll(cf, variable, []int{0, 0, 0}, end, Pattern(shape)); err != nil {
		return err
	}
	return cdf.UpdateNumRecs(f)
}

// writeAll writes values to the corner range [begin, end] of variable v. The
// writer reports io.EOF once it reaches end, which is expected here.
func writeAll(cf *cdf.File, v string, begin, end []int, values interface{}) error {
	w := cf.Writer(v, begin, end)
	if w == nil {
		return fmt.Errorf("no variable %q", v)
	}
	if _, err := w.Write(values); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("writing %s: %w", v, err)
	}
	return nil
}
