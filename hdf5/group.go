package hdf5

import (
	"fmt"
	"path"

	"github.com/robert-malhotra/gridbench/internal/btree"
	"github.com/robert-malhotra/gridbench/internal/heap"
	"github.com/robert-malhotra/gridbench/internal/message"
	"github.com/robert-malhotra/gridbench/internal/object"
)

// Group represents an HDF5 group.
type Group struct {
	file   *File
	path   string
	header *object.Header
	addr   uint64

	// Set on groups of a file made with Create.
	pending *pendingGroup
}

type linkResolution struct {
	address   uint64
	isDataset bool
}

// Name returns the last component of the group path.
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return path.Base(g.path)
}

// Path returns the full path to this group.
func (g *Group) Path() string {
	return g.path
}

// OpenGroup opens a subgroup by relative path.
func (g *Group) OpenGroup(relativePath string) (*Group, error) {
	obj, err := g.open(relativePath)
	if err != nil {
		return nil, err
	}
	group, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotGroup, relativePath)
	}
	return group, nil
}

// OpenDataset opens a dataset by relative path.
func (g *Group) OpenDataset(relativePath string) (*Dataset, error) {
	obj, err := g.open(relativePath)
	if err != nil {
		return nil, err
	}
	dataset, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDataset, relativePath)
	}
	return dataset, nil
}

func (g *Group) open(relativePath string) (interface{}, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	parts := splitPath(relativePath)
	if len(parts) == 0 {
		return g, nil
	}
	if g.pending != nil {
		return g.pending.open(relativePath)
	}

	current := g
	visited := make(map[string]bool)
	for i, name := range parts {
		res, err := current.findChild(name, visited)
		if err != nil {
			return nil, fmt.Errorf("finding %q: %w", name, err)
		}

		fullPath := path.Join(current.path, name)
		if i == len(parts)-1 {
			if res.isDataset {
				return g.file.openDatasetAt(res.address, fullPath)
			}
			return g.file.openGroupAt(res.address, fullPath)
		}
		if res.isDataset {
			return nil, fmt.Errorf("%w: %s", ErrNotGroup, fullPath)
		}
		if current, err = g.file.openGroupAt(res.address, fullPath); err != nil {
			return nil, err
		}
	}
	return current, nil
}

// symbolTable returns the symbol table of an old style group, falling back
// to the one cached in the superblock for the root group. It returns nil
// for new style groups.
func (g *Group) symbolTable() *message.SymbolTable {
	if st := g.header.SymbolTable(); st != nil {
		return st
	}
	if g.path == "/" && g.file.superblock.RootGroupBTreeAddress != 0 {
		return &message.SymbolTable{
			BTreeAddress:     g.file.superblock.RootGroupBTreeAddress,
			LocalHeapAddress: g.file.superblock.RootGroupLocalHeapAddress,
		}
	}
	return nil
}

// checkDense fails for groups whose links live in a fractal heap.
func (g *Group) checkDense() error {
	if li, ok := g.header.GetMessage(message.TypeLinkInfo).(*message.LinkInfo); ok && li.Dense() {
		return fmt.Errorf("%w: group %s stores its links densely", ErrUnsupported, g.path)
	}
	return nil
}

// findChild finds a member by name, following soft links.
func (g *Group) findChild(name string, visited map[string]bool) (*linkResolution, error) {
	for _, link := range g.header.Links() {
		if link.Name == name {
			return g.resolveLink(link, visited)
		}
	}

	if st := g.symbolTable(); st != nil {
		entries, err := g.entries(st)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Name != name {
				continue
			}
			if e.IsSoftLink() {
				return g.followSoftLink(e.SoftLink, visited)
			}
			return g.resolveAddress(e.ObjectAddress)
		}
	}

	if err := g.checkDense(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path.Join(g.path, name))
}

func (g *Group) followSoftLink(target string, visited map[string]bool) (*linkResolution, error) {
	if len(visited) >= MaxLinkDepth {
		return nil, ErrLinkDepth
	}
	if visited[target] {
		return nil, fmt.Errorf("%w: soft link cycle at %s", ErrLinkDepth, target)
	}
	visited[target] = true
	if !path.IsAbs(target) {
		target = path.Join(g.path, target)
	}
	return g.file.resolvePath(target, visited)
}

func (g *Group) resolveLink(link *message.Link, visited map[string]bool) (*linkResolution, error) {
	switch {
	case link.IsHard():
		return g.resolveAddress(link.ObjectAddress)
	case link.IsSoft():
		return g.followSoftLink(link.SoftLinkValue, visited)
	case link.IsExternal():
		return nil, fmt.Errorf("%w: external link %q to %s:%s",
			ErrUnsupported, link.Name, link.ExternalFile, link.ExternalPath)
	}
	return nil, fmt.Errorf("%w: link type %d", ErrUnsupported, link.LinkType)
}

func (g *Group) resolveAddress(address uint64) (*linkResolution, error) {
	header, err := object.Read(g.file.reader, address)
	if err != nil {
		return nil, err
	}
	return &linkResolution{address: address, isDataset: header.IsDataset()}, nil
}

// Members returns the names of the groups and datasets in this group.
func (g *Group) Members() ([]string, error) {
	if g.file.closed {
		return nil, ErrClosed
	}
	if g.pending != nil {
		return g.pending.members(), nil
	}

	var names []string
	for _, link := range g.header.Links() {
		names = append(names, link.Name)
	}
	if st := g.symbolTable(); st != nil {
		entries, err := g.entries(st)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			names = append(names, e.Name)
		}
	}
	if len(names) == 0 {
		if err := g.checkDense(); err != nil {
			return nil, err
		}
	}
	return names, nil
}

func (g *Group) entries(st *message.SymbolTable) ([]btree.GroupEntry, error) {
	localHeap, err := heap.ReadLocalHeap(g.file.reader, st.LocalHeapAddress)
	if err != nil {
		return nil, fmt.Errorf("reading local heap: %w", err)
	}
	return btree.ReadGroupEntries(g.file.reader, st.BTreeAddress, localHeap)
}

// Attrs returns the attribute names of the group.
func (g *Group) Attrs() []string {
	if g.pending != nil {
		names := make([]string, len(g.pending.attrs))
		for i, a := range g.pending.attrs {
			names[i] = a.Name
		}
		return names
	}
	if g.header == nil {
		return nil
	}
	return attrNames(g.header)
}

// Attr returns an attribute by name, or nil if there is none.
func (g *Group) Attr(name string) *Attribute {
	if g.pending != nil {
		for _, a := range g.pending.attrs {
			if a.Name == name {
				return &Attribute{msg: a, reader: g.file.reader}
			}
		}
		return nil
	}
	if g.header == nil {
		return nil
	}
	return findAttr(g.header, name, g.file.reader)
}
