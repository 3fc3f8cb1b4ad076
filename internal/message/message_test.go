package message

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	bin "github.com/robert-malhotra/gridbench/internal/binary"
)

var cfg = bin.Config{ByteOrder: binary.LittleEndian, OffsetSize: 8, LengthSize: 8}

func roundTrip(t *testing.T, m Encoder) Message {
	t.Helper()
	data, err := Encode(m, cfg)
	if err != nil {
		t.Fatalf("Encode(%s): %v", m.Type(), err)
	}
	got, err := Parse(m.Type(), data, 0, bin.NewReader(nil, cfg))
	if err != nil {
		t.Fatalf("Parse(%s): %v", m.Type(), err)
	}
	return got
}

func parse(t *testing.T, typ Type, data []byte) Message {
	t.Helper()
	m, err := Parse(typ, data, 0, bin.NewReader(nil, cfg))
	if err != nil {
		t.Fatalf("Parse(%s): %v", typ, err)
	}
	return m
}

// le concatenates little endian encodings of its arguments.
func le(vals ...interface{}) []byte {
	var buf bytes.Buffer
	for _, v := range vals {
		switch v := v.(type) {
		case string:
			buf.WriteString(v)
		case []byte:
			buf.Write(v)
		default:
			binary.Write(&buf, binary.LittleEndian, v)
		}
	}
	return buf.Bytes()
}

func TestDataspace(t *testing.T) {
	ds := roundTrip(t, NewDataspace([]uint64{6, 5, 4}, []uint64{Unlimited, 5, 4})).(*Dataspace)
	if !reflect.DeepEqual(ds.Dimensions, []uint64{6, 5, 4}) || ds.MaxDims[0] != Unlimited {
		t.Errorf("dims = %v, max = %v", ds.Dimensions, ds.MaxDims)
	}
	if ds.NumElements() != 120 || ds.IsScalar() || ds.Rank() != 3 {
		t.Errorf("NumElements = %d, IsScalar = %v", ds.NumElements(), ds.IsScalar())
	}

	scalar := roundTrip(t, NewScalarDataspace()).(*Dataspace)
	if !scalar.IsScalar() || scalar.NumElements() != 1 {
		t.Errorf("scalar: %+v", scalar)
	}

	// Version 1 with reserved bytes and no maximum dimensions.
	v1 := parse(t, TypeDataspace, le(uint8(1), uint8(2), uint8(0), make([]byte, 5), uint64(3), uint64(7))).(*Dataspace)
	if v1.SpaceType != DataspaceSimple || !reflect.DeepEqual(v1.Dimensions, []uint64{3, 7}) {
		t.Errorf("v1 = %+v", v1)
	}
}

func TestDatatype(t *testing.T) {
	tests := []*Datatype{
		NewFixedPointDatatype(4, true, OrderLE),
		NewFixedPointDatatype(2, false, OrderBE),
		NewFloatDatatype(4, OrderLE),
		NewFloatDatatype(8, OrderLE),
		NewStringDatatype(12, PadNullTerm, CharsetUTF8),
	}
	for _, want := range tests {
		got := roundTrip(t, want).(*Datatype)
		if got.Class != want.Class || got.Size != want.Size || got.ByteOrder != want.ByteOrder ||
			got.Signed != want.Signed || got.Charset != want.Charset || got.ClassBits != want.ClassBits {
			t.Errorf("%s: got %+v", want, got)
		}
	}

	f64 := roundTrip(t, NewFloatDatatype(8, OrderLE)).(*Datatype)
	if f64.ExponentLocation != 52 || f64.ExponentSize != 11 || f64.MantissaSize != 52 || f64.ExponentBias != 1023 {
		t.Errorf("float64 properties: %+v", f64)
	}
	if f64.String() != "float64" {
		t.Errorf("String() = %q", f64.String())
	}

	if _, err := Encode(&Datatype{Class: ClassCompound}, cfg); !errors.Is(err, ErrUnsupported) {
		t.Errorf("encoding compound: %v", err)
	}
}

func TestDatatypeCompound(t *testing.T) {
	i32 := le(uint8(0x10), []byte{0x08, 0, 0}, uint32(4), uint16(0), uint16(32))
	f64 := le(uint8(0x11), []byte{0x20, 0x3F, 0}, uint32(8), uint16(0), uint16(64),
		[]byte{52, 11, 0, 52}, uint32(1023))

	// Version 1 members: padded name, offset, 28 bytes of array info.
	data := le(uint8(0x16), []byte{2, 0, 0}, uint32(12),
		"id\x00\x00\x00\x00\x00\x00", uint32(0), make([]byte, 28), i32,
		"value\x00\x00\x00", uint32(4), make([]byte, 28), f64)
	dt := parse(t, TypeDatatype, data).(*Datatype)
	if len(dt.Members) != 2 {
		t.Fatalf("members = %d", len(dt.Members))
	}
	if dt.Members[0].Name != "id" || dt.Members[0].Type.Class != ClassFixedPoint || !dt.Members[0].Type.Signed {
		t.Errorf("member 0 = %+v", dt.Members[0])
	}
	if dt.Members[1].Name != "value" || dt.Members[1].Offset != 4 || dt.Members[1].Type.Size != 8 {
		t.Errorf("member 1 = %+v", dt.Members[1])
	}

	// Version 3 members: unpadded name, one byte offset for a 12 byte type.
	data = le(uint8(0x36), []byte{2, 0, 0}, uint32(12),
		"id\x00", uint8(0), i32, "value\x00", uint8(4), f64)
	dt = parse(t, TypeDatatype, data).(*Datatype)
	if dt.Members[1].Name != "value" || dt.Members[1].Offset != 4 {
		t.Errorf("v3 member 1 = %+v", dt.Members[1])
	}
}

func TestDatatypeNested(t *testing.T) {
	u8 := le(uint8(0x10), []byte{0, 0, 0}, uint32(1), uint16(0), uint16(8))

	enum := parse(t, TypeDatatype, le(uint8(0x38), []byte{2, 0, 0}, uint32(1), u8,
		"LOW\x00", "HIGH\x00", uint8(0), uint8(1))).(*Datatype)
	if !reflect.DeepEqual(enum.EnumNames, []string{"LOW", "HIGH"}) || enum.EnumValues[1][0] != 1 {
		t.Errorf("enum = %+v", enum)
	}

	vlen := parse(t, TypeDatatype, le(uint8(0x19), []byte{0x01, 0x01, 0}, uint32(16), u8)).(*Datatype)
	if !vlen.IsVarLenString || vlen.Charset != CharsetUTF8 || vlen.Base.Size != 1 {
		t.Errorf("vlen = %+v", vlen)
	}

	array := parse(t, TypeDatatype, le(uint8(0x3A), []byte{0, 0, 0}, uint32(6), uint8(2),
		uint32(2), uint32(3), u8)).(*Datatype)
	if !reflect.DeepEqual(array.ArrayDims, []uint32{2, 3}) || array.Base.Class != ClassFixedPoint {
		t.Errorf("array = %+v", array)
	}

	opaque := parse(t, TypeDatatype, le(uint8(0x15), []byte{8, 0, 0}, uint32(4), "tag\x00\x00\x00\x00\x00")).(*Datatype)
	if opaque.Tag != "tag" {
		t.Errorf("opaque tag = %q", opaque.Tag)
	}
}

func TestDataLayout(t *testing.T) {
	contig := roundTrip(t, NewContiguousLayout(2048, 480)).(*DataLayout)
	if contig.Class != LayoutContiguous || contig.Address != 2048 || contig.Size != 480 {
		t.Errorf("contiguous = %+v", contig)
	}

	fa := roundTrip(t, NewChunkedLayout([]uint64{3, 2, 300}, 4, ChunkIndexFixedArray, 4096)).(*DataLayout)
	if fa.IndexType != ChunkIndexFixedArray || fa.PageBits != FixedArrayDefaultPageBits || fa.Address != 4096 {
		t.Errorf("fixed array = %+v", fa)
	}
	if !reflect.DeepEqual(fa.ChunkDims, []uint64{3, 2, 300}) || fa.ElementSize != 4 || fa.ChunkBytes() != 7200 {
		t.Errorf("chunk dims = %v x %d", fa.ChunkDims, fa.ElementSize)
	}

	single := NewChunkedLayout([]uint64{6, 5}, 8, ChunkIndexSingle, 512)
	single.FilteredSize, single.FilterMask = 77, 0x2
	got := roundTrip(t, single).(*DataLayout)
	if got.Flags&LayoutFlagSingleFiltered == 0 || got.FilteredSize != 77 || got.FilterMask != 2 || got.Address != 512 {
		t.Errorf("filtered single chunk = %+v", got)
	}

	compact := roundTrip(t, &DataLayout{Class: LayoutCompact, CompactData: []byte{1, 2, 3}}).(*DataLayout)
	if !bytes.Equal(compact.CompactData, []byte{1, 2, 3}) {
		t.Errorf("compact data = %v", compact.CompactData)
	}
}

func TestDataLayoutOldVersions(t *testing.T) {
	// Version 3 chunked: rank+1 four byte dimensions after the address.
	v3 := parse(t, TypeDataLayout, le(uint8(3), uint8(LayoutChunked), uint8(3), uint64(800),
		uint32(10), uint32(20), uint32(4))).(*DataLayout)
	if v3.IndexType != ChunkIndexBTreeV1 || v3.Address != 800 ||
		!reflect.DeepEqual(v3.ChunkDims, []uint64{10, 20}) || v3.ElementSize != 4 {
		t.Errorf("v3 chunked = %+v", v3)
	}

	// Version 1 chunked: five reserved bytes before the address.
	v1 := parse(t, TypeDataLayout, le(uint8(1), uint8(2), uint8(LayoutChunked), make([]byte, 5),
		uint64(900), uint32(16), uint32(8))).(*DataLayout)
	if v1.Address != 900 || !reflect.DeepEqual(v1.ChunkDims, []uint64{16}) || v1.ElementSize != 8 {
		t.Errorf("v1 chunked = %+v", v1)
	}

	// Version 1 contiguous leaves the size to the dataspace.
	v1c := parse(t, TypeDataLayout, le(uint8(1), uint8(2), uint8(LayoutContiguous), make([]byte, 5),
		uint64(1000), uint32(3), uint32(4))).(*DataLayout)
	if v1c.Address != 1000 || v1c.Size != 0 {
		t.Errorf("v1 contiguous = %+v", v1c)
	}

	if _, err := Parse(TypeDataLayout, le(uint8(3), uint8(LayoutChunked), uint8(3), uint64(800)), 0,
		bin.NewReader(nil, cfg)); !errors.Is(err, ErrTruncated) {
		t.Errorf("truncated layout: %v", err)
	}
}

func TestFilterPipeline(t *testing.T) {
	want := &FilterPipeline{Filters: []FilterInfo{
		{ID: FilterShuffle, ClientData: []uint32{4}},
		{ID: FilterDeflate, Flags: FilterOptional, ClientData: []uint32{6}},
		{ID: 32015, Name: "zstd", ClientData: []uint32{}},
	}}
	got := roundTrip(t, want).(*FilterPipeline)
	if len(got.Filters) != 3 {
		t.Fatalf("filters = %d", len(got.Filters))
	}
	if !got.Filters[1].Optional() || got.Filters[1].ClientData[0] != 6 {
		t.Errorf("deflate = %+v", got.Filters[1])
	}
	if got.Filters[2].Name != "zstd" || got.Filters[2].ID != 32015 {
		t.Errorf("named filter = %+v", got.Filters[2])
	}

	// Version 1 pads names to eight bytes and odd client data to an even
	// count.
	v1 := parse(t, TypeFilterPipeline, le(uint8(1), uint8(2), make([]byte, 6),
		uint16(FilterDeflate), uint16(8), uint16(0), uint16(1), "deflate\x00", uint32(9), uint32(0),
		uint16(FilterFletcher32), uint16(0), uint16(0), uint16(0))).(*FilterPipeline)
	if len(v1.Filters) != 2 || v1.Filters[0].Name != "deflate" || v1.Filters[0].ClientData[0] != 9 ||
		v1.Filters[1].ID != FilterFletcher32 {
		t.Errorf("v1 = %+v", v1)
	}
}

func TestAttribute(t *testing.T) {
	data := le(int32(-1), int32(2))
	want := NewAttribute("valid_range", NewFixedPointDatatype(4, true, OrderLE), NewDataspace([]uint64{2}, nil), data)
	got := roundTrip(t, want).(*Attribute)
	if got.Name != "valid_range" || !bytes.Equal(got.Data, data) || got.Datatype.Size != 4 || got.Dataspace.NumElements() != 2 {
		t.Errorf("attribute = %+v", got)
	}

	// Version 1 pads each part to eight bytes.
	dt := le(uint8(0x10), []byte{0, 0, 0}, uint32(1), uint16(0), uint16(8))
	ds := le(uint8(1), uint8(0), uint8(0), make([]byte, 5))
	v1 := parse(t, TypeAttribute, le(uint8(1), uint8(0), uint16(2), uint16(len(dt)), uint16(len(ds)),
		"x\x00", make([]byte, 6), dt, make([]byte, 4), ds, uint8(42))).(*Attribute)
	if v1.Name != "x" || !v1.Dataspace.IsScalar() || !bytes.Equal(v1.Data, []byte{42}) {
		t.Errorf("v1 = %+v", v1)
	}
}

func TestLinks(t *testing.T) {
	link := roundTrip(t, NewHardLink("tasmax", 1234)).(*Link)
	if !link.IsHard() || link.Name != "tasmax" || link.ObjectAddress != 1234 {
		t.Errorf("hard link = %+v", link)
	}

	soft := parse(t, TypeLink, le(uint8(1), uint8(0x08), uint8(LinkSoft), uint8(1), "a", uint16(4), "/b/c")).(*Link)
	if !soft.IsSoft() || soft.Name != "a" || soft.SoftLinkValue != "/b/c" {
		t.Errorf("soft link = %+v", soft)
	}

	ext := parse(t, TypeLink, le(uint8(1), uint8(0x08), uint8(LinkExternal), uint8(1), "e",
		uint16(9), uint8(0), "f.h5\x00", "/x\x00")).(*Link)
	if !ext.IsExternal() || ext.ExternalFile != "f.h5" || ext.ExternalPath != "/x" {
		t.Errorf("external link = %+v", ext)
	}

	info := roundTrip(t, NewLinkInfo()).(*LinkInfo)
	if info.Dense() {
		t.Errorf("new link info is dense: %+v", info)
	}
	dense := parse(t, TypeLinkInfo, le(uint8(0), uint8(0), uint64(4096), uint64(8192))).(*LinkInfo)
	if !dense.Dense() || dense.NameIndexAddress != 8192 {
		t.Errorf("dense link info = %+v", dense)
	}

	gi, err := Encode(NewGroupInfo(), cfg)
	if err != nil || !bytes.Equal(gi, []byte{0, 0}) {
		t.Errorf("group info = %v, %v", gi, err)
	}
}

func TestFillValue(t *testing.T) {
	fv := roundTrip(t, NewFillValue(le(float32(-999)))).(*FillValue)
	if !bytes.Equal(fv.Value, le(float32(-999))) || fv.AllocTime != AllocIncremental {
		t.Errorf("fill value = %+v", fv)
	}
	if none := roundTrip(t, NewFillValue(nil)).(*FillValue); none.Value != nil {
		t.Errorf("undefined fill value = %v", none.Value)
	}

	v2 := parse(t, TypeFillValue, le(uint8(2), uint8(2), uint8(2), uint8(1), uint32(2), uint16(7))).(*FillValue)
	if !bytes.Equal(v2.Value, []byte{7, 0}) {
		t.Errorf("v2 value = %v", v2.Value)
	}
	old := parse(t, TypeFillValueOld, le(uint32(1), uint8(5))).(*FillValue)
	if !bytes.Equal(old.Value, []byte{5}) {
		t.Errorf("old value = %v", old.Value)
	}
}

func TestParseMisc(t *testing.T) {
	cont := parse(t, TypeContinuation, le(uint64(100), uint64(200))).(*Continuation)
	if cont.Offset != 100 || cont.Length != 200 {
		t.Errorf("continuation = %+v", cont)
	}
	st := parse(t, TypeSymbolTable, le(uint64(136), uint64(680))).(*SymbolTable)
	if st.BTreeAddress != 136 || st.LocalHeapAddress != 680 {
		t.Errorf("symbol table = %+v", st)
	}

	unk := parse(t, Type(0x16), []byte{1, 2}).(*Unknown)
	if unk.Type() != Type(0x16) || !bytes.Equal(unk.Data(), []byte{1, 2}) {
		t.Errorf("unknown = %+v", unk)
	}

	if _, err := Parse(TypeDatatype, nil, FlagShared, bin.NewReader(nil, cfg)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("shared message: %v", err)
	}

	// Four byte addresses with the undefined marker.
	small := bin.Config{ByteOrder: binary.LittleEndian, OffsetSize: 4, LengthSize: 4}
	m, err := Parse(TypeLinkInfo, le(uint8(0), uint8(0), uint32(0xFFFFFFFF), uint32(0xFFFFFFFF)), 0, bin.NewReader(nil, small))
	if err != nil || m.(*LinkInfo).Dense() {
		t.Errorf("compact link info with 4 byte addresses: %+v, %v", m, err)
	}
}
