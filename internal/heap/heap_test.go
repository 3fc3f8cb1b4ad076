package heap

import (
	"bytes"
	"encoding/binary"
	"testing"

	bin "github.com/robert-malhotra/gridbench/internal/binary"
)

func newReader(buf []byte) *bin.Reader {
	return bin.NewReader(bytes.NewReader(buf), bin.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: 8,
		LengthSize: 8,
	})
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// localHeap lays out a local heap header at 0 and its data segment at 32.
func localHeap(sig string, version byte, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(sig)
	buf.Write([]byte{version, 0, 0, 0})
	buf.Write(le64(uint64(len(data))))
	buf.Write(le64(1))
	buf.Write(le64(32))
	buf.Write(data)
	return buf.Bytes()
}

func TestLocalHeap(t *testing.T) {
	data := []byte("\x00pr\x00tasmax\x00\x00")
	h, err := ReadLocalHeap(newReader(localHeap("HEAP", 0, data)), 0)
	if err != nil {
		t.Fatalf("ReadLocalHeap failed: %v", err)
	}
	if h.DataAddress != 32 {
		t.Errorf("DataAddress = %d, want 32", h.DataAddress)
	}

	tests := []struct {
		offset uint64
		want   string
	}{
		{0, ""},
		{1, "pr"},
		{4, "tasmax"},
		{6, "smax"},
		{100, ""},
	}
	for _, tt := range tests {
		if got := h.GetString(tt.offset); got != tt.want {
			t.Errorf("GetString(%d) = %q, want %q", tt.offset, got, tt.want)
		}
	}
}

func TestLocalHeapUnterminated(t *testing.T) {
	h, err := ReadLocalHeap(newReader(localHeap("HEAP", 0, []byte("lat"))), 0)
	if err != nil {
		t.Fatalf("ReadLocalHeap failed: %v", err)
	}
	if got := h.GetString(0); got != "lat" {
		t.Errorf("GetString(0) = %q, want lat", got)
	}
}

func TestLocalHeapInvalid(t *testing.T) {
	if _, err := ReadLocalHeap(newReader(localHeap("HEAQ", 0, nil)), 0); err == nil {
		t.Error("expected error for bad signature")
	}
	if _, err := ReadLocalHeap(newReader(localHeap("HEAP", 1, nil)), 0); err == nil {
		t.Error("expected error for unsupported version")
	}
	if _, err := ReadLocalHeap(newReader([]byte("HE")), 0); err == nil {
		t.Error("expected error for truncated heap")
	}
}

// globalHeap builds a collection at address 16 holding objs under indices
// 1, 2, ...
func globalHeap(objs ...string) []byte {
	var body bytes.Buffer
	for i, o := range objs {
		binary.Write(&body, binary.LittleEndian, uint16(i+1))
		binary.Write(&body, binary.LittleEndian, uint16(1))
		body.Write([]byte{0, 0, 0, 0})
		body.Write(le64(uint64(len(o))))
		body.WriteString(o)
		body.Write(make([]byte, (8-len(o)%8)%8))
	}
	// Free space object.
	body.Write(make([]byte, 16))

	buf := make([]byte, 16)
	buf = append(buf, "GCOL"...)
	buf = append(buf, 1, 0, 0, 0)
	buf = append(buf, le64(uint64(16+body.Len()))...)
	return append(buf, body.Bytes()...)
}

func TestGlobalHeap(t *testing.T) {
	h, err := ReadGlobalHeap(newReader(globalHeap("degrees_north", "K", "kg m-2 s-1\x00")), 16)
	if err != nil {
		t.Fatalf("ReadGlobalHeap failed: %v", err)
	}

	for i, want := range []string{"degrees_north", "K", "kg m-2 s-1"} {
		got, err := h.GetString(uint16(i + 1))
		if err != nil {
			t.Fatalf("GetString(%d) failed: %v", i+1, err)
		}
		if got != want {
			t.Errorf("GetString(%d) = %q, want %q", i+1, got, want)
		}
	}

	if _, err := h.GetObject(9); err == nil {
		t.Error("expected error for missing object")
	}

	obj, err := h.GetObject(2)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	obj[0] = 'X'
	if again, _ := h.GetString(2); again != "K" {
		t.Errorf("GetObject returned shared storage: %q", again)
	}

	var nilHeap *GlobalHeap
	if _, err := nilHeap.GetObject(1); err == nil {
		t.Error("expected error from nil heap")
	}
}

func TestGlobalHeapInvalid(t *testing.T) {
	buf := globalHeap("x")
	if _, err := ReadGlobalHeap(newReader(buf), 0); err == nil {
		t.Error("expected error for address 0")
	}
	if _, err := ReadGlobalHeap(newReader(buf), ^uint64(0)); err == nil {
		t.Error("expected error for undefined address")
	}

	bad := append([]byte(nil), buf...)
	copy(bad[16:], "GCOX")
	if _, err := ReadGlobalHeap(newReader(bad), 16); err == nil {
		t.Error("expected error for bad signature")
	}

	bad = append([]byte(nil), buf...)
	bad[20] = 2
	if _, err := ReadGlobalHeap(newReader(bad), 16); err == nil {
		t.Error("expected error for unsupported version")
	}
}

func TestParseGlobalHeapID(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		offsetSize int
		want       GlobalHeapID
		wantErr    bool
	}{
		{"8-byte", append(le64(0x1234), 7, 0, 0, 0), 8, GlobalHeapID{0x1234, 7}, false},
		{"4-byte", []byte{0x78, 0x56, 0x34, 0x12, 2, 1, 0, 0}, 4, GlobalHeapID{0x12345678, 0x102}, false},
		{"2-byte", []byte{0x10, 0x00, 3, 0, 0, 0}, 2, GlobalHeapID{0x10, 3}, false},
		{"short", []byte{1, 2, 3}, 8, GlobalHeapID{}, true},
		{"odd size", make([]byte, 10), 3, GlobalHeapID{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGlobalHeapID(tt.data, tt.offsetSize)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
