package hdf5

import (
	"errors"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

// writeFile creates path, lets fill add datasets to the root group, and
// closes the file.
func writeFile(t *testing.T, path string, fill func(root *Group)) {
	t.Helper()
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	fill(f.Root())
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func openDataset(t *testing.T, path, name string) (*File, *Dataset) {
	t.Helper()
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	ds, err := f.OpenDataset(name)
	if err != nil {
		f.Close()
		t.Fatalf("OpenDataset(%q) failed: %v", name, err)
	}
	return f, ds
}

func sequence(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = float32(i)
	}
	return v
}

func TestCreateDatasetInt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ints.h5")
	data := []int32{1, 2, 3, 4, 5}
	writeFile(t, path, func(root *Group) {
		if _, err := root.CreateDataset("integers", data); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})

	f, ds := openDataset(t, path, "integers")
	defer f.Close()

	if shape := ds.Shape(); !reflect.DeepEqual(shape, []uint64{5}) {
		t.Errorf("Shape = %v, want [5]", shape)
	}
	if ds.DtypeSize() != 4 {
		t.Errorf("DtypeSize = %d, want 4", ds.DtypeSize())
	}

	var got []int32
	if err := ds.Read(&got); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !reflect.DeepEqual(got, data) {
		t.Errorf("Read = %v, want %v", got, data)
	}
}

func TestCreateDatasetShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.h5")
	data := sequence(4 * 3 * 5)
	writeFile(t, path, func(root *Group) {
		if _, err := root.CreateDataset("cube", data, WithShape(4, 3, 5)); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})

	f, ds := openDataset(t, path, "cube")
	defer f.Close()

	if shape := ds.Shape(); !reflect.DeepEqual(shape, []uint64{4, 3, 5}) {
		t.Fatalf("Shape = %v, want [4 3 5]", shape)
	}
	if ds.NumElements() != 60 {
		t.Errorf("NumElements = %d, want 60", ds.NumElements())
	}

	all, err := ds.ReadFloat32()
	if err != nil {
		t.Fatalf("ReadFloat32 failed: %v", err)
	}
	if !reflect.DeepEqual(all, data) {
		t.Errorf("ReadFloat32 = %v, want %v", all, data)
	}

	// Column through every time step at (y=2, x=3).
	var col []float64
	if err := ds.ReadSlice([]uint64{0, 2, 3}, []uint64{4, 1, 1}, &col); err != nil {
		t.Fatalf("ReadSlice failed: %v", err)
	}
	want := []float64{13, 28, 43, 58}
	if !reflect.DeepEqual(col, want) {
		t.Errorf("column = %v, want %v", col, want)
	}
}

func TestCreateChunkedDataset(t *testing.T) {
	tests := []struct {
		name   string
		chunks []uint64
	}{
		{"single chunk", []uint64{4, 3, 5}},
		{"even chunks", []uint64{2, 3, 5}},
		{"partial chunks", []uint64{3, 2, 2}},
		{"point chunks", []uint64{1, 1, 1}},
	}

	data := sequence(4 * 3 * 5)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "chunked.h5")
			writeFile(t, path, func(root *Group) {
				_, err := root.CreateDataset("cube", data, WithShape(4, 3, 5), WithChunks(tt.chunks...))
				if err != nil {
					t.Fatalf("CreateDataset failed: %v", err)
				}
			})

			f, ds := openDataset(t, path, "cube")
			defer f.Close()

			all, err := ds.ReadFloat32()
			if err != nil {
				t.Fatalf("ReadFloat32 failed: %v", err)
			}
			if !reflect.DeepEqual(all, data) {
				t.Errorf("ReadFloat32 = %v, want %v", all, data)
			}

			for y := uint64(0); y < 3; y++ {
				for x := uint64(0); x < 5; x++ {
					var col []float32
					if err := ds.ReadSlice([]uint64{0, y, x}, []uint64{4, 1, 1}, &col); err != nil {
						t.Fatalf("ReadSlice(y=%d, x=%d) failed: %v", y, x, err)
					}
					for k, v := range col {
						if want := float32(uint64(k)*15 + y*5 + x); v != want {
							t.Errorf("(t=%d, y=%d, x=%d) = %v, want %v", k, y, x, v, want)
						}
					}
				}
			}
		})
	}
}

func TestReadSliceOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.h5")
	writeFile(t, path, func(root *Group) {
		if _, err := root.CreateDataset("cube", sequence(8), WithShape(2, 2, 2)); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})

	f, ds := openDataset(t, path, "cube")
	defer f.Close()

	var dst []float32
	cases := []struct{ start, count []uint64 }{
		{[]uint64{0, 0, 2}, []uint64{1, 1, 1}},
		{[]uint64{1, 0, 0}, []uint64{2, 1, 1}},
		{[]uint64{0, 0}, []uint64{1, 1}},
	}
	for _, c := range cases {
		if err := ds.ReadSlice(c.start, c.count, &dst); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ReadSlice(%v, %v) error = %v, want ErrOutOfRange", c.start, c.count, err)
		}
	}
}

func TestCreateDatasetAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attrs.h5")
	writeFile(t, path, func(root *Group) {
		_, err := root.CreateDataset("lat", []float64{-45, 0, 45},
			WithAttribute("units", "degrees_north"),
			WithAttribute("scale", 0.5),
			WithAttribute("valid_range", []int32{-90, 90}),
			WithAttribute("flags", uint16(3)),
			WithAttribute("names", []string{"south", "equator", "north"}),
		)
		if err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})

	f, ds := openDataset(t, path, "lat")
	defer f.Close()

	names := ds.Attrs()
	if len(names) != 5 {
		t.Fatalf("Attrs = %v, want 5 names", names)
	}
	if ds.Attr("missing") != nil {
		t.Error("Attr(missing) should be nil")
	}

	units, err := ds.Attr("units").ReadScalarString()
	if err != nil || units != "degrees_north" {
		t.Errorf("units = %q, %v", units, err)
	}

	tests := []struct {
		name string
		want interface{}
	}{
		{"units", "degrees_north"},
		{"scale", 0.5},
		{"valid_range", []int64{-90, 90}},
		{"flags", uint64(3)},
		{"names", []string{"south", "equator", "north"}},
	}
	for _, tt := range tests {
		a := ds.Attr(tt.name)
		if a == nil {
			t.Fatalf("Attr(%q) is nil", tt.name)
		}
		got, err := a.Value()
		if err != nil {
			t.Fatalf("Value(%q) failed: %v", tt.name, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Value(%q) = %#v, want %#v", tt.name, got, tt.want)
		}
	}

	if a := ds.Attr("valid_range"); a.IsScalar() || !reflect.DeepEqual(a.Shape(), []uint64{2}) {
		t.Errorf("valid_range shape = %v", a.Shape())
	}
}

func TestCreateMultipleDatasets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multi.h5")
	writeFile(t, path, func(root *Group) {
		for _, name := range []string{"time", "lat", "lon", "pr"} {
			if _, err := root.CreateDataset(name, sequence(6)); err != nil {
				t.Fatalf("CreateDataset(%q) failed: %v", name, err)
			}
		}
	})

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	members, err := f.Root().Members()
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	sort.Strings(members)
	if want := []string{"lat", "lon", "pr", "time"}; !reflect.DeepEqual(members, want) {
		t.Errorf("Members = %v, want %v", members, want)
	}

	for _, name := range members {
		ds, err := f.OpenDataset("/" + name)
		if err != nil {
			t.Fatalf("OpenDataset(%q) failed: %v", name, err)
		}
		if ds.Name() != name || ds.Path() != "/"+name {
			t.Errorf("dataset %q: Name=%q Path=%q", name, ds.Name(), ds.Path())
		}
	}
}

func TestCreateDatasetErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.h5")
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	root := f.Root()

	if _, err := root.CreateDataset("", sequence(4)); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := root.CreateDataset("bad_shape", sequence(4), WithShape(3, 2)); err == nil {
		t.Error("expected error for shape that does not match the data")
	}
	if _, err := root.CreateDataset("bad_chunks", sequence(4), WithShape(2, 2), WithChunks(2)); err == nil {
		t.Error("expected error for chunk rank mismatch")
	}
	if _, err := root.CreateDataset("data", sequence(4)); err != nil {
		t.Fatalf("CreateDataset failed: %v", err)
	}
	if _, err := root.CreateDataset("data", sequence(4)); err == nil {
		t.Error("expected error for duplicate name")
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	if _, err := r.Root().CreateDataset("more", sequence(4)); !errors.Is(err, ErrReadOnly) {
		t.Errorf("CreateDataset on read-only file: %v, want ErrReadOnly", err)
	}
}

func TestCreateFilteredDataset(t *testing.T) {
	data := sequence(6 * 5 * 4)
	tests := []struct {
		name    string
		opts    []DatasetOption
		filters []string
	}{
		{"deflate", []DatasetOption{WithDeflate(4)}, []string{"deflate"}},
		{"shuffle deflate", []DatasetOption{WithDeflate(9), WithShuffle()}, []string{"shuffle", "deflate"}},
		{"fletcher32", []DatasetOption{WithFletcher32()}, []string{"fletcher32"}},
		{"all", []DatasetOption{WithShuffle(), WithDeflate(1), WithFletcher32()}, []string{"shuffle", "deflate", "fletcher32"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "filtered.h5")
			writeFile(t, path, func(root *Group) {
				opts := append([]DatasetOption{WithShape(6, 5, 4), WithChunks(6, 2, 2)}, tt.opts...)
				if _, err := root.CreateDataset("pr", data, opts...); err != nil {
					t.Fatalf("CreateDataset failed: %v", err)
				}
			})

			f, ds := openDataset(t, path, "pr")
			defer f.Close()

			if ds.Storage() != "chunked" || !reflect.DeepEqual(ds.ChunkDims(), []uint64{6, 2, 2}) {
				t.Errorf("Storage = %s, ChunkDims = %v", ds.Storage(), ds.ChunkDims())
			}
			if !reflect.DeepEqual(ds.Filters(), tt.filters) {
				t.Errorf("Filters = %v, want %v", ds.Filters(), tt.filters)
			}
			all, err := ds.ReadFloat32()
			if err != nil {
				t.Fatalf("ReadFloat32 failed: %v", err)
			}
			if !reflect.DeepEqual(all, data) {
				t.Errorf("ReadFloat32 = %v, want %v", all, data)
			}

			var col []float32
			if err := ds.ReadSlice([]uint64{0, 2, 1}, []uint64{6, 1, 1}, &col); err != nil {
				t.Fatalf("ReadSlice failed: %v", err)
			}
			for k, v := range col {
				if want := float32(k*20 + 2*4 + 1); v != want {
					t.Errorf("column[%d] = %v, want %v", k, v, want)
				}
			}
		})
	}
}

func TestFiltersNeedChunks(t *testing.T) {
	f, err := Create(filepath.Join(t.TempDir(), "f.h5"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()
	if _, err := f.Root().CreateDataset("pr", sequence(4), WithDeflate(6)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported", err)
	}
	if members, _ := f.Root().Members(); len(members) != 0 {
		t.Errorf("Members = %v after failed create", members)
	}
}

func TestFillValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fill.h5")
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := f.Root().CreateDataset("x", sequence(3), WithFillValue(float64(-1))); err == nil {
		t.Error("expected error for float64 fill value on float32 data")
	}
	if _, err := f.Root().CreateDataset("x", sequence(3), WithFillValue(float32(-1))); err != nil {
		t.Fatalf("CreateDataset failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, ds := openDataset(t, path, "x")
	defer r.Close()
	got, err := ds.ReadFloat32()
	if err != nil || !reflect.DeepEqual(got, sequence(3)) {
		t.Errorf("ReadFloat32 = %v, %v", got, err)
	}
}

func TestReadBeforeClose(t *testing.T) {
	f, err := Create(filepath.Join(t.TempDir(), "live.h5"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()

	created, err := f.Root().CreateDataset("pr", sequence(12), WithShape(3, 4), WithChunks(2, 2))
	if err != nil {
		t.Fatalf("CreateDataset failed: %v", err)
	}
	got, err := created.ReadFloat32()
	if err != nil || !reflect.DeepEqual(got, sequence(12)) {
		t.Errorf("ReadFloat32 = %v, %v", got, err)
	}

	opened, err := f.OpenDataset("/pr")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	if opened != created {
		t.Error("OpenDataset should return the created dataset")
	}
	if _, err := f.OpenDataset("tas"); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenDataset(tas) error = %v, want ErrNotFound", err)
	}
}

func TestCreateGroups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.h5")
	writeFile(t, path, func(root *Group) {
		if err := root.SetAttribute("title", "synthetic grid"); err != nil {
			t.Fatalf("SetAttribute failed: %v", err)
		}
		if err := root.SetAttribute("title", "again"); err == nil {
			t.Error("expected error for duplicate attribute")
		}
		if names := root.Attrs(); len(names) != 1 || names[0] != "title" {
			t.Errorf("Attrs before close = %v", names)
		}
		if s, err := root.Attr("title").ReadScalarString(); err != nil || s != "synthetic grid" {
			t.Errorf("title before close = %q, %v", s, err)
		}
		model, err := root.CreateGroup("model")
		if err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		run, err := model.CreateGroup("run1")
		if err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if _, err := run.CreateDataset("pr", sequence(4)); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
		if _, err := root.CreateGroup("bad/name"); err == nil {
			t.Error("expected error for name with a slash")
		}
		if g, err := root.OpenGroup("model/run1"); err != nil || g != run {
			t.Errorf("OpenGroup(model/run1) = %v, %v", g, err)
		}
	})

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	title, err := f.Root().Attr("title").ReadScalarString()
	if err != nil || title != "synthetic grid" {
		t.Errorf("title = %q, %v", title, err)
	}
	ds, err := f.OpenDataset("/model/run1/pr")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	if ds.Path() != "/model/run1/pr" {
		t.Errorf("Path = %q", ds.Path())
	}
	g, err := f.OpenGroup("model")
	if err != nil {
		t.Fatalf("OpenGroup failed: %v", err)
	}
	if members, err := g.Members(); err != nil || !reflect.DeepEqual(members, []string{"run1"}) {
		t.Errorf("Members = %v, %v", members, err)
	}
}
