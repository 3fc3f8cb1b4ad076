//go:build !linux

package memprobe

import (
	"fmt"

	"github.com/shirou/gopsutil/process"
)

// Only the size and resident counters are portable.
func usageOf(p *process.Process) (Usage, error) {
	m, err := p.MemoryInfo()
	if err != nil {
		return Usage{}, fmt.Errorf("reading memory info: %w", err)
	}
	return Usage{Size: m.VMS, Resident: m.RSS}, nil
}
