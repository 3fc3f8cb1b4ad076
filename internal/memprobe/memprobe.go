// Package memprobe reports the memory footprint of the running process and
// guards a region of work against a ceiling on its data segment.
package memprobe

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/process"
)

// ErrLimitExceeded is matched by every *LimitError.
var ErrLimitExceeded = errors.New("memory limit exceeded")

// Usage is a snapshot of the process memory counters, in bytes. It mirrors the
// seven fields of /proc/self/statm.
type Usage struct {
	Size     uint64 // total program size
	Resident uint64
	Shared   uint64
	Text     uint64
	Lib      uint64
	Data     uint64 // data + stack
	Dirty    uint64
}

func (u Usage) String() string {
	return fmt.Sprintf("size=%s resident=%s shared=%s text=%s lib=%s data=%s dirty=%s",
		humanize.IBytes(u.Size), humanize.IBytes(u.Resident), humanize.IBytes(u.Shared),
		humanize.IBytes(u.Text), humanize.IBytes(u.Lib), humanize.IBytes(u.Data),
		humanize.IBytes(u.Dirty))
}

// Probe samples the current memory usage.
type Probe func() (Usage, error)

// Current returns the memory usage of this process.
func Current() (Usage, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return Usage{}, fmt.Errorf("opening process: %w", err)
	}
	return usageOf(p)
}

// LimitError reports a data-segment reading above the configured ceiling.
type LimitError struct {
	Phase string // "before" or "after"
	Usage Usage
	Limit uint64
}

func (e *LimitError) Error() string {
	if e.Phase == "before" {
		return fmt.Sprintf("already using %d bytes which is over the limit of %d bytes", e.Usage.Data, e.Limit)
	}
	return fmt.Sprintf("using %d bytes which is over the limit of %d bytes", e.Usage.Data, e.Limit)
}

// Is reports whether target is ErrLimitExceeded.
func (e *LimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

// Guard checks the data segment size before and after a body of work. It
// cannot stop a body that exceeds the ceiling while it runs.
type Guard struct {
	Ceiling uint64 // bytes; zero disables the check
	Probe   Probe  // defaults to Current
}

// Run checks the ceiling, runs fn, then checks the ceiling again. An error from
// fn is returned unchanged and skips the second check.
func (g Guard) Run(fn func() error) error {
	if g.Ceiling == 0 {
		return fn()
	}

	probe := g.Probe
	if probe == nil {
		probe = Current
	}

	if err := g.check(probe, "before"); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return g.check(probe, "after")
}

func (g Guard) check(probe Probe, phase string) error {
	u, err := probe()
	if err != nil {
		return fmt.Errorf("probing memory %s body: %w", phase, err)
	}
	if u.Data > g.Ceiling {
		return &LimitError{Phase: phase, Usage: u, Limit: g.Ceiling}
	}
	return nil
}

// Limit runs fn under a Guard with the given ceiling and the process probe.
func Limit(ceiling uint64, fn func() error) error {
	return Guard{Ceiling: ceiling}.Run(fn)
}
