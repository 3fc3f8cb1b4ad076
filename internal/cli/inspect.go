package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/robert-malhotra/gridbench/grid"
	"github.com/robert-malhotra/gridbench/hdf5"
)

// inspect prints the dimensions and variables of path as seen through the
// configured interface, and optionally its HDF5 object tree.
func (cfg *Cfg) inspect(out io.Writer, path string) (err error) {
	open, err := grid.OpenerFor(cfg.GetString("interface"))
	if err != nil {
		return err
	}
	f, err := open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	fmt.Fprintf(out, "%s:\n", f.Path())
	fmt.Fprintln(out, "  dimensions:")
	for _, d := range f.Dimensions() {
		fmt.Fprintf(out, "    %s = %d\n", d, dimLen(f, d))
	}
	fmt.Fprintf(out, "  variables: %s\n", strings.Join(f.Variables(), ", "))

	if !cfg.GetBool("tree") {
		return nil
	}
	return printTree(out, path)
}

func dimLen(f grid.File, dim string) int {
	switch dim {
	case grid.DimTime:
		return f.ZLen()
	case grid.DimLat:
		return f.YLen()
	case grid.DimLon:
		return f.XLen()
	}
	return 0
}

// printTree lists every group and dataset of an HDF5 file with its
// attributes.
func printTree(out io.Writer, path string) error {
	h, err := hdf5.Open(path)
	if err != nil {
		return err
	}
	defer h.Close()

	fmt.Fprintf(out, "  tree (superblock v%d):\n", h.Version())
	return hdf5.Walk(h.Root(), func(p string, obj interface{}, err error) error {
		if err != nil {
			fmt.Fprintf(out, "    %s: %v\n", p, err)
			return nil
		}
		var attrs []string
		switch o := obj.(type) {
		case *hdf5.Group:
			fmt.Fprintf(out, "    group %s\n", p)
			for _, name := range o.Attrs() {
				attrs = append(attrs, attrLine(name, o.Attr(name)))
			}
		case *hdf5.Dataset:
			fmt.Fprintf(out, "    dataset %s %v\n", p, o.Shape())
			fmt.Fprintf(out, "      %s\n", storageLine(o))
			for _, name := range o.Attrs() {
				attrs = append(attrs, attrLine(name, o.Attr(name)))
			}
		}
		for _, a := range attrs {
			fmt.Fprintf(out, "      %s\n", a)
		}
		return nil
	})
}

func attrLine(name string, a *hdf5.Attribute) string {
	if a == nil {
		return "@" + name
	}
	v, err := a.Value()
	if err != nil {
		return fmt.Sprintf("@%s: %v", name, err)
	}
	return fmt.Sprintf("@%s = %v", name, v)
}

// storageLine describes the element type and storage of a dataset, for
// example "float32 chunked [6 2 2] shuffle+deflate".
func storageLine(ds *hdf5.Dataset) string {
	s := ds.Dtype() + " " + ds.Storage()
	if c := ds.ChunkDims(); c != nil {
		s += fmt.Sprintf(" %v", c)
	}
	if f := ds.Filters(); f != nil {
		s += " " + strings.Join(f, "+")
	}
	return s
}
