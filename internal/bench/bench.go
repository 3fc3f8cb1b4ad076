// Package bench runs throughput measurements over a list of gridded files and
// reports per-file and average rates.
package bench

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robert-malhotra/gridbench/grid"
	"github.com/robert-malhotra/gridbench/internal/memprobe"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoFiles is returned when there is nothing to measure.
	ErrNoFiles = errors.New("no files to measure")

	// ErrNotEnoughFiles is returned when a directory holds fewer files than requested.
	ErrNotEnoughFiles = errors.New("not enough files")
)

// SelectFiles returns the files to measure. Explicit paths are returned as
// given. Otherwise n distinct regular files are drawn uniformly at random from
// dir, whose listing is sorted before sampling so a seeded rng is
// reproducible.
func SelectFiles(explicit []string, dir string, n int, rng *rand.Rand) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	if dir == "" {
		return nil, ErrNoFiles
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoFiles, dir)
	}
	if n <= 0 || n > len(names) {
		return nil, fmt.Errorf("%w: asked for %d, %s has %d", ErrNotEnoughFiles, n, dir, len(names))
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	// Partial Fisher-Yates: the first n names become the sample.
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(names)-i)
		names[i], names[j] = names[j], names[i]
	}

	files := make([]string, n)
	for i, name := range names[:n] {
		files[i] = filepath.Join(dir, name)
	}
	return files, nil
}

// RunningMean is an unweighted mean updated one sample at a time.
type RunningMean struct {
	n    int
	mean float64
}

// Add folds x into the mean and returns the new mean.
func (m *RunningMean) Add(x float64) float64 {
	i := float64(m.n)
	m.mean = m.mean*i/(i+1) + x/(i+1)
	m.n++
	return m.mean
}

// Mean returns the current mean, zero before the first sample.
func (m *RunningMean) Mean() float64 { return m.mean }

// N returns the number of samples added.
func (m *RunningMean) N() int { return m.n }

// FormatRate formats bytes per second with IEC units, e.g. "1.5 MiB/s".
func FormatRate(rate float64) string {
	if rate < 0 {
		rate = 0
	}
	return humanize.IBytes(uint64(rate)) + "/s"
}

// Report holds the results of a run.
type Report struct {
	Samples []grid.Sample
	Mean    float64
	Summary *Summary
}

// Rates returns the sample rates in run order.
func (r Report) Rates() []float64 {
	rates := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		rates[i] = s.Rate
	}
	return rates
}

// Runner measures files one after another.
type Runner struct {
	Open     grid.Opener
	Measurer grid.Measurer
	Out      io.Writer          // defaults to os.Stdout
	Log      logrus.FieldLogger // defaults to the standard logger

	// MemLimit is a data segment ceiling in bytes checked around each
	// measurement. Zero disables it.
	MemLimit uint64
	Probe    memprobe.Probe

	// DropCache evicts each file from the page cache before measuring it.
	DropCache bool

	// Summary prints median, standard deviation, min and max after the average.
	Summary bool
}

// Run measures each file in order, printing "<path>: <rate>" per file and
// "Average: <rate>" at the end. The first failure stops the run.
func (r Runner) Run(files []string) (Report, error) {
	var rep Report
	if len(files) == 0 {
		return rep, ErrNoFiles
	}

	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	log := r.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := r.Measurer
	if m.Log == nil {
		m.Log = log
	}
	guard := memprobe.Guard{Ceiling: r.MemLimit, Probe: r.Probe}

	var mean RunningMean
	for _, path := range files {
		if r.DropCache {
			if err := dropCache(path); err != nil {
				return rep, fmt.Errorf("dropping page cache for %s: %w", path, err)
			}
			log.WithField("file", path).Debug("page cache dropped")
		}

		var s grid.Sample
		err := guard.Run(func() error {
			var err error
			s, err = m.Measure(r.Open, path)
			return err
		})
		if err != nil {
			return rep, err
		}

		rep.Samples = append(rep.Samples, s)
		rep.Mean = mean.Add(s.Rate)
		fmt.Fprintf(out, "%s: %s\n", path, FormatRate(s.Rate))
	}
	fmt.Fprintf(out, "Average: %s\n", FormatRate(rep.Mean))

	if r.Summary {
		sum, err := Summarize(rep.Rates())
		if err != nil {
			return rep, err
		}
		rep.Summary = &sum
		sum.Print(out)
	}
	return rep, nil
}
