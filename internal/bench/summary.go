package bench

import (
	"fmt"
	"io"

	"github.com/montanaflynn/stats"
)

// Summary describes the spread of the sample rates of a run.
type Summary struct {
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize computes a Summary of rates.
func Summarize(rates []float64) (Summary, error) {
	data := stats.Float64Data(rates)

	var s Summary
	var err error
	if s.Median, err = stats.Median(data); err != nil {
		return Summary{}, fmt.Errorf("median: %w", err)
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return Summary{}, fmt.Errorf("standard deviation: %w", err)
	}
	if s.Min, err = stats.Min(data); err != nil {
		return Summary{}, fmt.Errorf("min: %w", err)
	}
	if s.Max, err = stats.Max(data); err != nil {
		return Summary{}, fmt.Errorf("max: %w", err)
	}
	return s, nil
}

// Print writes one line per statistic.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Median: %s\n", FormatRate(s.Median))
	fmt.Fprintf(w, "StdDev: %s\n", FormatRate(s.StdDev))
	fmt.Fprintf(w, "Min: %s\n", FormatRate(s.Min))
	fmt.Fprintf(w, "Max: %s\n", FormatRate(s.Max))
}
