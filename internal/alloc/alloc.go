// Package alloc hands out file space for HDF5 writing. Space is only ever
// appended at the end of the file; nothing is reused.
package alloc

import "sync"

// Allocator tracks the end of an HDF5 file being written.
type Allocator struct {
	mu    sync.Mutex
	base  uint64
	eof   uint64
	count int
}

// New returns an allocator whose first block starts at base, usually the
// address just past the superblock and root group header.
func New(base uint64) *Allocator {
	return &Allocator{base: base, eof: base}
}

// Alloc reserves size bytes and returns their address. A zero size returns
// the current end of file and reserves nothing.
func (a *Allocator) Alloc(size uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	addr := a.eof
	if size > 0 {
		a.eof += size
		a.count++
	}
	return addr
}

// EOFAddr returns the address one past the last allocated byte.
func (a *Allocator) EOFAddr() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eof
}

// Used returns the number of bytes and blocks allocated since New.
func (a *Allocator) Used() (bytes uint64, blocks int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eof - a.base, a.count
}
