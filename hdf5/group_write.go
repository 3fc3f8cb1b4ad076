package hdf5

import (
	"fmt"
	"path"
	"strings"

	"github.com/robert-malhotra/gridbench/internal/message"
	"github.com/robert-malhotra/gridbench/internal/object"
)

// pendingGroup is a group of a file being written. Its header is only
// written when the file is closed, once the addresses of its members are
// known.
type pendingGroup struct {
	links    []*message.Link
	groups   map[string]*Group
	datasets map[string]*Dataset
	attrs    []*message.Attribute
}

func newPendingGroup() *pendingGroup {
	return &pendingGroup{groups: make(map[string]*Group), datasets: make(map[string]*Dataset)}
}

func (p *pendingGroup) members() []string {
	names := make([]string, len(p.links))
	for i, l := range p.links {
		names[i] = l.Name
	}
	return names
}

func (p *pendingGroup) open(relativePath string) (interface{}, error) {
	parts := splitPath(relativePath)
	cur := p
	for i, name := range parts {
		if ds, ok := cur.datasets[name]; ok {
			if i != len(parts)-1 {
				return nil, fmt.Errorf("%w: %s", ErrNotGroup, ds.path)
			}
			return ds, nil
		}
		g, ok := cur.groups[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, relativePath)
		}
		if i == len(parts)-1 {
			return g, nil
		}
		cur = g.pending
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, relativePath)
}

// addLink reserves name for a new member whose address is set later.
func (g *Group) addLink(name string) (*message.Link, error) {
	if g.pending == nil {
		return nil, ErrReadOnly
	}
	if g.file.closed {
		return nil, ErrClosed
	}
	if name == "" || name == "." || strings.Contains(name, "/") {
		return nil, fmt.Errorf("invalid member name %q", name)
	}
	for _, l := range g.pending.links {
		if l.Name == name {
			return nil, fmt.Errorf("member %q already exists in %s", name, g.path)
		}
	}
	link := message.NewHardLink(name, 0)
	g.pending.links = append(g.pending.links, link)
	return link, nil
}

// CreateGroup creates a subgroup.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if _, err := g.addLink(name); err != nil {
		return nil, err
	}
	sub := &Group{file: g.file, path: path.Join(g.path, name), pending: newPendingGroup()}
	g.pending.groups[name] = sub
	return sub, nil
}

// SetAttribute attaches an attribute to a group being written. The value
// takes the same forms as WithAttribute.
func (g *Group) SetAttribute(name string, value interface{}) error {
	if g.pending == nil {
		return ErrReadOnly
	}
	for _, a := range g.pending.attrs {
		if a.Name == name {
			return fmt.Errorf("attribute %q already exists on %s", name, g.path)
		}
	}
	a, err := newAttribute(name, value)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}
	g.pending.attrs = append(g.pending.attrs, a)
	return nil
}

// writeHeader writes the headers of g and every group below it and
// returns the address of the header of g.
func (g *Group) writeHeader() (uint64, error) {
	for _, l := range g.pending.links {
		if sub, ok := g.pending.groups[l.Name]; ok {
			addr, err := sub.writeHeader()
			if err != nil {
				return 0, err
			}
			l.ObjectAddress = addr
		}
	}

	msgs := object.NewGroupHeader(g.pending.links)
	for _, a := range g.pending.attrs {
		msgs = append(msgs, a)
	}
	addr, err := g.file.writeObject(msgs, object.MinGroupChunkSize)
	if err != nil {
		return 0, fmt.Errorf("writing header of group %s: %w", g.path, err)
	}
	g.addr = addr
	return addr, nil
}

// writeObject writes an object header and returns its address.
func (f *File) writeObject(msgs []message.Encoder, minChunk int) (uint64, error) {
	b, err := object.Encode(msgs, writeConfig, minChunk)
	if err != nil {
		return 0, err
	}
	addr := f.allocator.Alloc(uint64(len(b)))
	if err := f.writer.At(int64(addr)).WriteBytes(b); err != nil {
		return 0, err
	}
	return addr, nil
}
