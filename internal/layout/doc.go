// Package layout reads and writes the raw data of HDF5 datasets.
//
// A dataset stores its elements in one of three layouts:
//
//   - Compact: the bytes live inside the layout message. See [Compact].
//   - Contiguous: one block in the file, row-major. See [Contiguous].
//   - Chunked: the dataset is cut into equal chunks, each stored (and
//     optionally filtered) on its own and found through a chunk index.
//     See [Chunked].
//
// # Chunk Indexes
//
// Version 4 layout messages name the index structure:
//
//   - Single chunk: the layout message holds the chunk address.
//   - Implicit: chunks sit back to back from one address.
//   - Fixed array ("FAHD"): one entry per chunk, for fixed size datasets.
//   - Extensible array ("EAHD"): grows along one unlimited dimension.
//   - Version 2 B-tree ("BTHD"): more than one unlimited dimension.
//
// Older layout messages always use a version 1 B-tree ("TREE").
//
// # Selections
//
// Every layout serves [Layout.ReadSlice], a rectangular selection given by
// a start and a count per dimension. A chunked read touches only the
// chunks that overlap the selection, and elements of chunks that were
// never written read as the fill value.
//
// Decoded chunks are kept in a small LRU cache, so reading a column one
// element at a time does not decompress the same chunk over and over.
package layout
