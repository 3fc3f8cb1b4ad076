package memprobe

import (
	"fmt"

	"github.com/shirou/gopsutil/process"
)

func usageOf(p *process.Process) (Usage, error) {
	m, err := p.MemoryInfoEx()
	if err != nil {
		return Usage{}, fmt.Errorf("reading statm: %w", err)
	}
	return Usage{
		Size:     m.VMS,
		Resident: m.RSS,
		Shared:   m.Shared,
		Text:     m.Text,
		Lib:      m.Lib,
		Data:     m.Data,
		Dirty:    m.Dirty,
	}, nil
}
