package layout

import (
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/gridbench/internal/binary"
)

// Array index client IDs.
const (
	clientChunk         = 0
	clientFilteredChunk = 1
)

// arrayHeader reads the signature, version and client ID that open every
// fixed and extensible array block.
func arrayHeader(r *binary.Reader, sig string) (client uint8, err error) {
	b, err := r.ReadBytes(6)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", sig, err)
	}
	if string(b[:4]) != sig {
		return 0, fmt.Errorf("invalid signature %q, want %s", b[:4], sig)
	}
	if b[4] != 0 {
		return 0, fmt.Errorf("unsupported %s version %d", sig, b[4])
	}
	if b[5] != clientChunk && b[5] != clientFilteredChunk {
		return 0, fmt.Errorf("%s client %d is not a chunk index", sig, b[5])
	}
	return b[5], nil
}

func bitSet(bitmap []byte, i uint64) bool {
	return bitmap[i/8]&(0x80>>(i%8)) != 0
}

// fixedArray is a fixed array chunk index. Entries are read as needed.
type fixedArray struct {
	r          *binary.Reader
	g          grid
	chunkBytes uint64
	filtered   bool
	entrySize  int
	nelmts     uint64
	pageN      uint64
	pageInit   []byte // nil when the data block is not paged
	first      uint64 // address of the first element or page
}

func openFixedArray(r *binary.Reader, address uint64, g grid, chunkBytes uint64) (chunkIndex, error) {
	hr := r.At(int64(address))
	client, err := arrayHeader(hr, "FAHD")
	if err != nil {
		return nil, err
	}
	b, err := hr.ReadBytes(2)
	if err != nil {
		return nil, err
	}
	a := &fixedArray{
		r:          r,
		g:          g,
		chunkBytes: chunkBytes,
		filtered:   client == clientFilteredChunk,
		entrySize:  int(b[0]),
		pageN:      1 << b[1],
	}
	if a.nelmts, err = hr.ReadLength(); err != nil {
		return nil, err
	}
	dblk, err := hr.ReadOffset()
	if err != nil {
		return nil, err
	}
	if r.IsUndefinedOffset(dblk) {
		return emptyIndex{}, nil
	}

	dr := r.At(int64(dblk))
	if _, err := arrayHeader(dr, "FADB"); err != nil {
		return nil, err
	}
	dr.Skip(int64(r.OffsetSize()))
	if a.nelmts > a.pageN {
		npages := ceilDiv(a.nelmts, a.pageN)
		if a.pageInit, err = dr.ReadBytes(int((npages + 7) / 8)); err != nil {
			return nil, err
		}
		dr.Skip(4)
	}
	a.first = uint64(dr.Pos())
	return a, nil
}

func (a *fixedArray) lookup(coords []uint64) (chunkRef, bool, error) {
	idx := a.g.arrayIndex(coords)
	if idx >= a.nelmts {
		return chunkRef{}, false, nil
	}
	pos := a.first + idx*uint64(a.entrySize)
	if a.pageInit != nil {
		page := idx / a.pageN
		if !bitSet(a.pageInit, page) {
			return chunkRef{}, false, nil
		}
		pos = a.first + page*(a.pageN*uint64(a.entrySize)+4) + idx%a.pageN*uint64(a.entrySize)
	}
	return readEntry(a.r, pos, a.entrySize, a.filtered, a.chunkBytes)
}

// superBlock describes the data blocks of one extensible array super
// block.
type superBlock struct {
	ndblks     uint64
	dblkNelmts uint64
	startIdx   uint64
	startDblk  uint64
}

// extensibleArray is an extensible array chunk index. The index block is
// read when it is opened; super and data blocks as they are needed.
type extensibleArray struct {
	r          *binary.Reader
	g          grid
	chunkBytes uint64
	filtered   bool
	elemSize   uint64
	idxElmts   uint64
	minElmts   uint64
	pageN      uint64
	arrOffSize int
	sblks      []superBlock

	elems     uint64 // address of the index block elements
	inIndex   int    // super blocks whose data blocks the index block lists
	dblkAddrs []uint64
	sblkAddrs []uint64
}

func log2(n uint64) int { return bits.Len64(n) - 1 }

func openExtensibleArray(r *binary.Reader, address uint64, g grid, chunkBytes uint64) (chunkIndex, error) {
	hr := r.At(int64(address))
	client, err := arrayHeader(hr, "EAHD")
	if err != nil {
		return nil, err
	}
	p, err := hr.ReadBytes(6)
	if err != nil {
		return nil, err
	}
	elemSize, maxBits, idxElmts, minElmts, minPtrs, pageBits := p[0], p[1], p[2], p[3], p[4], p[5]
	if minElmts == 0 || minElmts&(minElmts-1) != 0 || minPtrs == 0 || minPtrs&(minPtrs-1) != 0 {
		return nil, fmt.Errorf("invalid extensible array parameters %v", p)
	}
	hr.Skip(int64(6 * r.LengthSize()))
	iblock, err := hr.ReadOffset()
	if err != nil {
		return nil, err
	}
	if r.IsUndefinedOffset(iblock) {
		return emptyIndex{}, nil
	}

	a := &extensibleArray{
		r:          r,
		g:          g,
		chunkBytes: chunkBytes,
		filtered:   client == clientFilteredChunk,
		elemSize:   uint64(elemSize),
		idxElmts:   uint64(idxElmts),
		minElmts:   uint64(minElmts),
		pageN:      1 << pageBits,
		arrOffSize: (int(maxBits) + 7) / 8,
	}
	nsblks := 1 + int(maxBits) - log2(uint64(minElmts))
	if nsblks < 1 {
		return nil, fmt.Errorf("invalid extensible array parameters %v", p)
	}
	var idx, dblk uint64
	for u := 0; u < nsblks; u++ {
		sb := superBlock{
			ndblks:     1 << (u / 2),
			dblkNelmts: (1 << ((u + 1) / 2)) * a.minElmts,
			startIdx:   idx,
			startDblk:  dblk,
		}
		a.sblks = append(a.sblks, sb)
		idx += sb.ndblks * sb.dblkNelmts
		dblk += sb.ndblks
	}

	ir := r.At(int64(iblock))
	if _, err := arrayHeader(ir, "EAIB"); err != nil {
		return nil, err
	}
	ir.Skip(int64(r.OffsetSize()))
	a.elems = uint64(ir.Pos())
	ir.Skip(int64(a.idxElmts * a.elemSize))

	a.inIndex = 2 * log2(uint64(minPtrs))
	if a.inIndex > nsblks {
		a.inIndex = nsblks
	}
	if a.dblkAddrs, err = readAddrs(ir, 2*(int(minPtrs)-1)); err != nil {
		return nil, err
	}
	if a.sblkAddrs, err = readAddrs(ir, nsblks-a.inIndex); err != nil {
		return nil, err
	}
	return a, nil
}

func readAddrs(r *binary.Reader, n int) ([]uint64, error) {
	addrs := make([]uint64, n)
	for i := range addrs {
		var err error
		if addrs[i], err = r.ReadOffset(); err != nil {
			return nil, err
		}
	}
	return addrs, nil
}

func (a *extensibleArray) entry(pos uint64) (chunkRef, bool, error) {
	return readEntry(a.r, pos, int(a.elemSize), a.filtered, a.chunkBytes)
}

func (a *extensibleArray) lookup(coords []uint64) (chunkRef, bool, error) {
	idx := a.g.arrayIndex(coords)
	if idx < a.idxElmts {
		return a.entry(a.elems + idx*a.elemSize)
	}

	idx -= a.idxElmts
	s := log2(idx/a.minElmts + 1)
	if s >= len(a.sblks) {
		return chunkRef{}, false, nil
	}
	sb := a.sblks[s]
	elmt := idx - sb.startIdx
	paged := sb.dblkNelmts > a.pageN
	prefix := uint64(6 + a.r.OffsetSize() + a.arrOffSize)

	var dblk uint64
	if s < a.inIndex {
		i := sb.startDblk + elmt/sb.dblkNelmts
		if i >= uint64(len(a.dblkAddrs)) {
			return chunkRef{}, false, nil
		}
		dblk = a.dblkAddrs[i]
	} else {
		addr := a.sblkAddrs[s-a.inIndex]
		if a.r.IsUndefinedOffset(addr) {
			return chunkRef{}, false, nil
		}
		sr := a.r.At(int64(addr))
		if _, err := arrayHeader(sr, "EASB"); err != nil {
			return chunkRef{}, false, err
		}
		sr.Skip(int64(a.r.OffsetSize() + a.arrOffSize))
		var pageInit []byte
		npages := sb.dblkNelmts / a.pageN
		if paged {
			var err error
			if pageInit, err = sr.ReadBytes(int(sb.ndblks * ((npages + 7) / 8))); err != nil {
				return chunkRef{}, false, err
			}
		}
		addrs, err := readAddrs(sr, int(sb.ndblks))
		if err != nil {
			return chunkRef{}, false, err
		}
		i := elmt / sb.dblkNelmts
		dblk = addrs[i]
		if paged && !a.r.IsUndefinedOffset(dblk) && !bitSet(pageInit, i*npages+elmt%sb.dblkNelmts/a.pageN) {
			return chunkRef{}, false, nil
		}
	}
	if a.r.IsUndefinedOffset(dblk) {
		return chunkRef{}, false, nil
	}

	elmt %= sb.dblkNelmts
	if !paged {
		return a.entry(dblk + prefix + elmt*a.elemSize)
	}
	page := elmt / a.pageN
	return a.entry(dblk + prefix + 4 + page*(a.pageN*a.elemSize+4) + elmt%a.pageN*a.elemSize)
}
