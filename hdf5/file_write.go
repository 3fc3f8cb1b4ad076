package hdf5

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/robert-malhotra/gridbench/internal/alloc"
	binpkg "github.com/robert-malhotra/gridbench/internal/binary"
	"github.com/robert-malhotra/gridbench/internal/superblock"
)

var writeConfig = binpkg.Config{ByteOrder: binary.LittleEndian, OffsetSize: 8, LengthSize: 8}

// Create creates a new HDF5 file at path with a version 3 superblock and
// version 2 object headers. Raw data is written as datasets are created;
// group headers and the superblock are written by Close.
func Create(path string) (*File, error) {
	osFile, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	f := &File{
		path:       path,
		file:       osFile,
		reader:     binpkg.NewReader(osFile, writeConfig),
		superblock: superblock.New(),
		writable:   true,
		writer:     binpkg.NewWriter(osFile, writeConfig),
		allocator:  alloc.New(superblock.Size),
	}
	f.root = &Group{file: f, path: "/", pending: newPendingGroup()}
	return f, nil
}

// flush writes the group headers, root last, then the superblock.
func (f *File) flush() error {
	root, err := f.root.writeHeader()
	if err != nil {
		return err
	}
	f.superblock.RootGroupAddress = root
	f.superblock.EOFAddress = f.allocator.EOFAddr()
	if err := f.writer.At(0).WriteBytes(f.superblock.Encode()); err != nil {
		return fmt.Errorf("writing superblock: %w", err)
	}
	return f.file.Sync()
}
