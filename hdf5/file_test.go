package hdf5

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestOpenNotHDF5(t *testing.T) {
	signature := []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty file", nil},
		{"random bytes", []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77}},
		{"almost valid signature", []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, 'X'}},
		{"netcdf classic", []byte("CDF\x01\x00\x00\x00\x00")},
		{"binary garbage", bytes.Repeat([]byte{0xFF}, 1024)},
		{"signature only", signature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.h5")
			if err := os.WriteFile(path, tt.content, 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Open(path); err == nil {
				t.Fatal("expected error for invalid HDF5 file")
			}
		})
	}

	path := filepath.Join(t.TempDir(), "text.h5")
	if err := os.WriteFile(path, []byte("This is not an HDF5 file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("Open(text) error = %v, want ErrNotHDF5", err)
	}
}

func TestOpenNonExistentFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.h5"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestOpenDirectory(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("expected error when opening directory as HDF5 file")
	}
}

func TestFileMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.h5")
	writeFile(t, path, func(root *Group) {
		if _, err := root.CreateDataset("pr", sequence(4)); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	if f.Path() != path {
		t.Errorf("Path = %q, want %q", f.Path(), path)
	}
	if v := f.Version(); v != 2 && v != 3 {
		t.Errorf("Version = %d, want 2 or 3", v)
	}
	root := f.Root()
	if root.Path() != "/" || root.Name() != "/" {
		t.Errorf("root Path=%q Name=%q", root.Path(), root.Name())
	}
	if len(root.Attrs()) != 0 {
		t.Errorf("root Attrs = %v, want none", root.Attrs())
	}
}

func TestOpenMissingObjects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objects.h5")
	writeFile(t, path, func(root *Group) {
		if _, err := root.CreateDataset("pr", sequence(4)); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	if _, err := f.OpenDataset("tas"); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenDataset(tas) error = %v, want ErrNotFound", err)
	}
	if _, err := f.OpenGroup("pr"); !errors.Is(err, ErrNotGroup) {
		t.Errorf("OpenGroup(pr) error = %v, want ErrNotGroup", err)
	}
	if _, err := f.OpenDataset("/"); !errors.Is(err, ErrNotDataset) {
		t.Errorf("OpenDataset(/) error = %v, want ErrNotDataset", err)
	}
	if _, err := f.OpenDataset("pr/deeper"); err == nil {
		t.Error("expected error for path through a dataset")
	}
}

func TestOperationsAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.h5")
	writeFile(t, path, func(root *Group) {
		if _, err := root.CreateDataset("pr", sequence(4)); err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if _, err := f.OpenDataset("pr"); err != ErrClosed {
		t.Errorf("OpenDataset after close: %v, want ErrClosed", err)
	}
	if _, err := f.OpenGroup("/"); err != ErrClosed {
		t.Errorf("OpenGroup after close: %v, want ErrClosed", err)
	}
	if _, err := f.Root().Members(); err != ErrClosed {
		t.Errorf("Members after close: %v, want ErrClosed", err)
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"/", nil},
		{"", nil},
		{"/pr", []string{"pr"}},
		{"pr", []string{"pr"}},
		{"/a/b/c", []string{"a", "b", "c"}},
		{"/a/b/", []string{"a", "b"}},
	}
	for _, tt := range tests {
		got := splitPath(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitPath(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
