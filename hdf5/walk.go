package hdf5

import (
	"path"
)

// WalkFunc is called for each object during traversal. obj is a *Group or a
// *Dataset; err is set when a member could be opened as neither, and
// returning it stops the walk.
type WalkFunc func(path string, obj interface{}, err error) error

// Walk visits g and every group and dataset below it, parents before
// children, in member order.
func Walk(g *Group, fn WalkFunc) error {
	if err := fn(g.Path(), g, nil); err != nil {
		return err
	}

	members, err := g.Members()
	if err != nil {
		return err
	}

	for _, name := range members {
		if child, err := g.OpenGroup(name); err == nil {
			if err := Walk(child, fn); err != nil {
				return err
			}
			continue
		}

		ds, err := g.OpenDataset(name)
		if err != nil {
			err = fn(path.Join(g.Path(), name), nil, err)
		} else {
			err = fn(ds.Path(), ds, nil)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
