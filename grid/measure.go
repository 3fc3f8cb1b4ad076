package grid

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/robert-malhotra/gridbench/internal/meter"
	"github.com/sirupsen/logrus"
)

// Candidates are the variables a measurement may read.
var Candidates = []string{"pr", "tasmin", "tasmax"}

// Sample is the throughput of one measurement.
type Sample struct {
	Path     string
	Variable string
	X, Y     int
	Bytes    int64
	Elapsed  time.Duration
	Rate     float64 // bytes per second
}

// Midpoint returns the central index of an axis of length n: ceil(n/2) - 1.
func Midpoint(n int) int {
	return (n+1)/2 - 1
}

// ChooseVariable picks one of the candidate variables present in vars,
// uniformly at random from rng. The matches are sorted first, so a seeded rng
// makes the choice reproducible.
func ChooseVariable(vars []string, rng *rand.Rand) (string, error) {
	present := make(map[string]bool, len(vars))
	for _, v := range vars {
		present[v] = true
	}

	var matches []string
	for _, c := range Candidates {
		if present[c] {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: none of %v in %v", ErrNoCandidate, Candidates, vars)
	case 1:
		return matches[0], nil
	}

	sort.Strings(matches)
	if rng == nil {
		return matches[rand.Intn(len(matches))], nil
	}
	return matches[rng.Intn(len(matches))], nil
}

// Measurer times the extraction of the central column of a gridded file.
type Measurer struct {
	Method Method
	Rand   *rand.Rand
	Clock  meter.Clock        // defaults to time.Now
	Log    logrus.FieldLogger // defaults to the standard logger
}

// Measure opens path, reads one column of a candidate variable at the
// horizontal midpoint, and returns the read throughput. The file is closed
// before Measure returns.
func (m Measurer) Measure(open Opener, path string) (s Sample, err error) {
	method := m.Method
	if method == "" {
		method = Direct
	}
	log := m.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	f, err := open(path)
	if err != nil {
		return Sample{}, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if !hasDimension(f, DimLat) || !hasDimension(f, DimLon) {
		return Sample{}, fmt.Errorf("%w: %s needs lat and lon, has %v",
			ErrMissingDimension, path, f.Dimensions())
	}
	if method == Iterative && !hasDimension(f, DimTime) {
		return Sample{}, fmt.Errorf("%w: %s has no time dimension", ErrMissingDimension, path)
	}

	x, y := Midpoint(f.XLen()), Midpoint(f.YLen())
	variable, err := ChooseVariable(f.Variables(), m.Rand)
	if err != nil {
		return Sample{}, fmt.Errorf("%s: %w", path, err)
	}

	log = log.WithFields(logrus.Fields{"file": path, "variable": variable, "method": method})
	log.Debugf("reading column at y=%d x=%d", y, x)

	clock := m.Clock
	if clock == nil {
		clock = time.Now
	}
	t := meter.NewWithClock(clock)
	t.SetLogger(log)

	var col Column
	err = t.Time(func() error {
		var err error
		col, err = method.Extract(f, variable, x, y)
		return err
	})
	if err != nil {
		return Sample{}, err
	}

	rate, err := t.BytesPerSecond(col.Shape(), col.ItemSize)
	if err != nil {
		return Sample{}, fmt.Errorf("%s: %w", path, err)
	}
	t.LogRate(col.Shape(), col.ItemSize)

	return Sample{
		Path:     path,
		Variable: variable,
		X:        x,
		Y:        y,
		Bytes:    meter.TotalBytes(col.Shape(), col.ItemSize),
		Elapsed:  t.Elapsed(),
		Rate:     rate,
	}, nil
}
