// Package superblock reads and writes the HDF5 superblock, the block that
// identifies a file as HDF5 and locates its root group.
//
// [Read] looks for the signature at offset 0 and then at every power of two
// from 512 on, so files with a user block are found. Versions 0 and 1 name
// the root group through a symbol table entry whose scratch pad may also
// cache the root B-tree and local heap. Versions 2 and 3 point straight at
// the root object header and carry a checksum.
//
// Files are always written with a version 3 superblock using 8 byte
// offsets and lengths.
package superblock
