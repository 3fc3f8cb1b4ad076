package filter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/robert-malhotra/gridbench/internal/message"
)

func TestShuffle(t *testing.T) {
	data := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x11, 0x12, 0x13, 0x14,
		0x21, 0x22, 0x23, 0x24,
		0xEE,
	}
	want := []byte{
		0x01, 0x11, 0x21,
		0x02, 0x12, 0x22,
		0x03, 0x13, 0x23,
		0x04, 0x14, 0x24,
		0xEE,
	}
	f := NewShuffle([]uint32{4})
	got, _ := f.Encode(data)
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode = %x, want %x", got, want)
	}
	back, _ := f.Decode(got)
	if !bytes.Equal(back, data) {
		t.Errorf("Decode = %x, want %x", back, data)
	}
}

func TestDeflate(t *testing.T) {
	data := bytes.Repeat([]byte("precipitation "), 64)
	f := NewDeflate([]uint32{9})
	packed, err := f.Encode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(packed) >= len(data) {
		t.Errorf("compressed %d bytes to %d", len(data), len(packed))
	}
	got, err := f.Decode(packed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("round trip changed the data")
	}
	if _, err := f.Decode([]byte("not zlib")); err == nil {
		t.Error("expected error decoding garbage")
	}
}

func TestFletcher32(t *testing.T) {
	var f Fletcher32
	data := []byte{1, 2, 3}
	sealed, _ := f.Encode(data)
	if !bytes.Equal(sealed, []byte{1, 2, 3, 0x02, 0x04, 0x04, 0x05}) {
		t.Fatalf("Encode = %x", sealed)
	}
	got, err := f.Decode(sealed)
	if err != nil || !bytes.Equal(got, data) {
		t.Errorf("Decode = %x, %v", got, err)
	}

	swapped := []byte{1, 2, 3, 0x05, 0x04, 0x04, 0x02}
	if _, err := f.Decode(swapped); err != nil {
		t.Errorf("byte swapped checksum: %v", err)
	}

	sealed[0] ^= 0xFF
	if _, err := f.Decode(sealed); !errors.Is(err, ErrChecksum) {
		t.Errorf("corrupt chunk: %v", err)
	}
}

func TestPipeline(t *testing.T) {
	msg := &message.FilterPipeline{Filters: []message.FilterInfo{
		{ID: message.FilterShuffle, ClientData: []uint32{4}},
		{ID: message.FilterDeflate, ClientData: []uint32{6}},
		{ID: message.FilterFletcher32},
	}}
	p, err := NewPipeline(msg)
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 3 || p.Empty() {
		t.Fatalf("Len = %d", p.Len())
	}

	data := make([]byte, 400)
	for i := range data {
		data[i] = byte(i % 7)
	}
	enc, mask, err := p.Encode(data)
	if err != nil || mask != 0 {
		t.Fatalf("Encode: mask %b, %v", mask, err)
	}
	dec, err := p.Decode(enc, mask)
	if err != nil || !bytes.Equal(dec, data) {
		t.Fatalf("Decode: %v", err)
	}

	// Skipping the deflate stage leaves shuffled bytes plus a checksum.
	sh, _ := NewShuffle([]uint32{4}).Encode(data)
	sealed, _ := Fletcher32{}.Encode(sh)
	dec, err = p.Decode(sealed, 1<<1)
	if err != nil || !bytes.Equal(dec, data) {
		t.Errorf("Decode with mask: %v", err)
	}
}

func TestPipelineUnavailable(t *testing.T) {
	_, err := NewPipeline(&message.FilterPipeline{Filters: []message.FilterInfo{{ID: message.FilterSZIP}}})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("szip: %v", err)
	}

	// An optional unknown filter keeps its mask bit.
	p, err := NewPipeline(&message.FilterPipeline{Filters: []message.FilterInfo{
		{ID: 32015, Name: "zstd", Flags: message.FilterOptional},
		{ID: message.FilterFletcher32},
	}})
	if err != nil {
		t.Fatal(err)
	}
	sealed, _ := Fletcher32{}.Encode([]byte{9, 9})
	if _, err := p.Decode(sealed, 1<<1); err != nil {
		t.Fatal(err)
	}
	got, err := p.Decode(sealed, 0)
	if err != nil || !bytes.Equal(got, []byte{9, 9}) {
		t.Errorf("Decode = %v, %v", got, err)
	}

	if Name(message.FilterInfo{ID: 32015, Name: "zstd"}) != "zstd" || Name(message.FilterInfo{ID: 4}) != "szip" {
		t.Error("unexpected filter names")
	}
}
