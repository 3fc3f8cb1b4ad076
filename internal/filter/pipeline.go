package filter

import (
	"fmt"

	"github.com/robert-malhotra/gridbench/internal/message"
)

// stage is a filter and its position in the pipeline message, which is
// also its bit in a chunk's filter mask.
type stage struct {
	index    uint
	optional bool
	f        Filter
}

// Pipeline is the ordered list of filters of a dataset.
type Pipeline struct {
	stages []stage
}

// NewPipeline builds the pipeline of a filter pipeline message, which may
// be nil.
func NewPipeline(fp *message.FilterPipeline) (*Pipeline, error) {
	p := &Pipeline{}
	if fp == nil {
		return p, nil
	}
	for i, info := range fp.Filters {
		f, err := New(info)
		if err != nil {
			return nil, err
		}
		if f != nil {
			p.stages = append(p.stages, stage{index: uint(i), optional: info.Optional(), f: f})
		}
	}
	return p, nil
}

// Empty reports whether the pipeline has no filters.
func (p *Pipeline) Empty() bool { return len(p.stages) == 0 }

// Len returns the number of filters.
func (p *Pipeline) Len() int { return len(p.stages) }

// Decode undoes the filters of a chunk, last filter first. Bit i of mask
// set means filter i was skipped when the chunk was written.
func (p *Pipeline) Decode(data []byte, mask uint32) ([]byte, error) {
	for i := len(p.stages) - 1; i >= 0; i-- {
		s := p.stages[i]
		if mask&(1<<s.index) != 0 {
			continue
		}
		var err error
		if data, err = s.f.Decode(data); err != nil {
			return nil, fmt.Errorf("%s: %w", names[s.f.ID()], err)
		}
	}
	return data, nil
}

// Encode applies the filters of a chunk in order. An optional filter that
// fails is skipped and its bit set in the returned mask.
func (p *Pipeline) Encode(data []byte) ([]byte, uint32, error) {
	var mask uint32
	for _, s := range p.stages {
		out, err := s.f.Encode(data)
		if err != nil {
			if s.optional {
				mask |= 1 << s.index
				continue
			}
			return nil, 0, fmt.Errorf("%s: %w", names[s.f.ID()], err)
		}
		data = out
	}
	return data, mask, nil
}
