package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeRead(t *testing.T) {
	sb := New()
	sb.EOFAddress = 4096
	sb.RootGroupAddress = Size
	b := sb.Encode()
	if len(b) != Size {
		t.Fatalf("len(Encode()) = %d, want %d", len(b), Size)
	}

	got, err := Read(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Version != 3 || got.OffsetSize != 8 || got.LengthSize != 8 {
		t.Errorf("version, sizes = %d, %d, %d", got.Version, got.OffsetSize, got.LengthSize)
	}
	if got.EOFAddress != 4096 || got.RootGroupAddress != Size || got.ExtensionAddress != ^uint64(0) {
		t.Errorf("addresses = %d, %d, %#x", got.EOFAddress, got.RootGroupAddress, got.ExtensionAddress)
	}
	if cfg := got.ReaderConfig(); cfg.OffsetSize != 8 || cfg.LengthSize != 8 {
		t.Errorf("ReaderConfig() = %+v", cfg)
	}
}

func TestReadUserBlock(t *testing.T) {
	sb := New()
	sb.BaseAddress = 1024
	b := append(make([]byte, 1024), sb.Encode()...)

	got, err := Read(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.FileOffset != 1024 || got.BaseAddress != 1024 {
		t.Errorf("FileOffset, BaseAddress = %d, %d", got.FileOffset, got.BaseAddress)
	}
}

func TestReadChecksum(t *testing.T) {
	b := New().Encode()
	b[20]++
	if _, err := Read(bytes.NewReader(b)); !errors.Is(err, ErrInvalidSuperblock) {
		t.Errorf("err = %v, want ErrInvalidSuperblock", err)
	}
}

func TestReadNotHDF5(t *testing.T) {
	if _, err := Read(bytes.NewReader(make([]byte, 4096))); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("err = %v, want ErrNotHDF5", err)
	}
	if _, err := Read(bytes.NewReader(nil)); !errors.Is(err, ErrNotHDF5) {
		t.Errorf("empty file: err = %v, want ErrNotHDF5", err)
	}
}

func TestReadUnsupportedVersion(t *testing.T) {
	b := append(append([]byte{}, Signature...), 9)
	b = append(b, make([]byte, 64)...)
	if _, err := Read(bytes.NewReader(b)); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("err = %v, want ErrUnsupportedVersion", err)
	}
}

// v0 builds a version 0 or 1 superblock with 8 byte offsets.
func v0(version uint8, cached bool) []byte {
	b := append([]byte{}, Signature...)
	b = append(b, version, 0, 0, 0, 0, 8, 8, 0)
	b = binary.LittleEndian.AppendUint16(b, 4)  // leaf K
	b = binary.LittleEndian.AppendUint16(b, 16) // internal K
	b = append(b, 0, 0, 0, 0)
	if version == 1 {
		b = binary.LittleEndian.AppendUint16(b, 32)
		b = append(b, 0, 0)
	}
	for _, a := range []uint64{0, ^uint64(0), 8192, ^uint64(0)} {
		b = binary.LittleEndian.AppendUint64(b, a)
	}
	b = binary.LittleEndian.AppendUint64(b, 0)   // link name offset
	b = binary.LittleEndian.AppendUint64(b, 800) // object header
	if cached {
		b = binary.LittleEndian.AppendUint32(b, 1)
		b = append(b, 0, 0, 0, 0)
		b = binary.LittleEndian.AppendUint64(b, 136)
		b = binary.LittleEndian.AppendUint64(b, 680)
	} else {
		b = append(b, make([]byte, 24)...)
	}
	return b
}

func TestReadV0(t *testing.T) {
	sb, err := Read(bytes.NewReader(v0(0, true)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if sb.Version != 0 || sb.GroupLeafNodeK != 4 || sb.GroupInternalNodeK != 16 {
		t.Errorf("version, K = %d, %d, %d", sb.Version, sb.GroupLeafNodeK, sb.GroupInternalNodeK)
	}
	if sb.EOFAddress != 8192 || sb.RootGroupAddress != 800 {
		t.Errorf("EOF, root = %d, %d", sb.EOFAddress, sb.RootGroupAddress)
	}
	if sb.RootGroupBTreeAddress != 136 || sb.RootGroupLocalHeapAddress != 680 {
		t.Errorf("cached root = %d, %d", sb.RootGroupBTreeAddress, sb.RootGroupLocalHeapAddress)
	}
}

func TestReadV1Uncached(t *testing.T) {
	sb, err := Read(bytes.NewReader(v0(1, false)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if sb.Version != 1 || sb.IndexedStorageK != 32 || sb.RootGroupAddress != 800 {
		t.Errorf("version, K, root = %d, %d, %d", sb.Version, sb.IndexedStorageK, sb.RootGroupAddress)
	}
	if sb.RootGroupBTreeAddress != 0 {
		t.Errorf("RootGroupBTreeAddress = %d, want 0", sb.RootGroupBTreeAddress)
	}
}

func TestReadInvalidSizes(t *testing.T) {
	b := v0(0, false)
	b[13] = 3
	if _, err := Read(bytes.NewReader(b)); !errors.Is(err, ErrInvalidSuperblock) {
		t.Errorf("err = %v, want ErrInvalidSuperblock", err)
	}
}
