package core

import (
	"bytes"
	"testing"
)

func TestStreamDecodeFilters(t *testing.T) {
	plain := []byte("BT (Hi) Tj ET")
	flated, err := NewStream(nil, plain, true)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		stream *Stream
		want   []byte
	}{
		{"no filter", &Stream{Dict: Dict{}, Data: plain}, plain},
		{"flate", flated, plain},
		{"abbreviated flate", &Stream{Dict: Dict{"Filter": Name("Fl")}, Data: flated.Data}, plain},
		{"hex", &Stream{Dict: Dict{"Filter": Name("ASCIIHexDecode")}, Data: []byte("48 69>")}, []byte("Hi")},
		{"ascii85", &Stream{Dict: Dict{"Filter": Name("A85")}, Data: []byte("87cURD]i,\"Ebo80~>")}, []byte("Hello World!")},
		{"run length", &Stream{Dict: Dict{"Filter": Name("RunLengthDecode")}, Data: []byte{1, 'o', 'k', 128}}, []byte("ok")},
		{"chain", &Stream{
			Dict: Dict{"Filter": Array{Name("ASCIIHexDecode"), Name("FlateDecode")}},
			Data: []byte(hexOf(flated.Data) + ">"),
		}, plain},
		{"jpeg passthrough", &Stream{Dict: Dict{"Filter": Name("DCTDecode")}, Data: []byte{0xff, 0xd8}}, []byte{0xff, 0xd8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.stream.Decode()
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func hexOf(b []byte) string {
	const digits = "0123456789ABCDEF"
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, digits[c>>4], digits[c&15])
	}
	return string(out)
}

func TestStreamDecodeErrors(t *testing.T) {
	tests := []*Stream{
		{Dict: Dict{"Filter": Name("Bogus")}, Data: []byte("x")},
		{Dict: Dict{"Filter": Int(3)}, Data: []byte("x")},
		{Dict: Dict{"Filter": Name("Crypt")}, Data: []byte("x")},
	}
	for i, s := range tests {
		if _, err := s.Decode(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

// refTable resolves references to object numbers in the map
type refTable map[int]Object

func (t refTable) Resolve(obj Object) Object {
	if ref, ok := obj.(IndirectRef); ok {
		if v, ok := t[ref.Number]; ok {
			return v
		}
		return Null{}
	}
	return obj
}

func TestStreamDecodeWithIndirectEntries(t *testing.T) {
	plain := []byte("BT (Hi) Tj ET")
	flated, err := NewStream(nil, plain, true)
	if err != nil {
		t.Fatal(err)
	}
	row := []byte{0, 1, 2, 3, 0, 4, 5, 6}
	predicted, err := NewStream(nil, row, true)
	if err != nil {
		t.Fatal(err)
	}
	refs := refTable{
		2: Name("FlateDecode"),
		3: Array{IndirectRef{Number: 4}, Name("FlateDecode")},
		4: Name("ASCIIHexDecode"),
		5: Dict{"Predictor": IndirectRef{Number: 6}, "Columns": Int(3)},
		6: Int(12),
	}

	tests := []struct {
		name   string
		stream *Stream
		want   []byte
	}{
		{"indirect filter", &Stream{Dict: Dict{"Filter": IndirectRef{Number: 2}}, Data: flated.Data}, plain},
		{"indirect filter array and element", &Stream{
			Dict: Dict{"Filter": IndirectRef{Number: 3}},
			Data: []byte(hexOf(flated.Data) + ">"),
		}, plain},
		{"indirect params and value", &Stream{
			Dict: Dict{"Filter": Name("FlateDecode"), "DecodeParms": IndirectRef{Number: 5}},
			Data: predicted.Data,
		}, []byte{1, 2, 3, 4, 5, 6}},
		{"filter resolving to null", &Stream{Dict: Dict{"Filter": IndirectRef{Number: 9}}, Data: plain}, plain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.stream.DecodeWith(refs)
			if err != nil {
				t.Fatalf("DecodeWith failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := (&Stream{Dict: Dict{"Filter": IndirectRef{Number: 2}}, Data: flated.Data}).Decode(); err == nil {
		t.Error("Decode without a resolver should reject an indirect filter")
	}
}

func TestSetDecodedData(t *testing.T) {
	s := &Stream{Dict: Dict{"Filter": Name("DCTDecode"), "DecodeParms": Dict{}}, Data: []byte("old")}
	if err := s.SetDecodedData([]byte("new content"), false); err != nil {
		t.Fatal(err)
	}
	if s.Dict.Has("Filter") || s.Dict.Has("DecodeParms") {
		t.Error("filter entries should be removed")
	}
	if n, _ := s.Dict.GetInt("Length"); n != 11 {
		t.Errorf("Length = %d", n)
	}

	if err := s.SetDecodedData([]byte("new content"), true); err != nil {
		t.Fatal(err)
	}
	got, err := s.Decode()
	if err != nil || string(got) != "new content" {
		t.Errorf("Decode after compress = %q, %v", got, err)
	}
}

func TestIsImageCodec(t *testing.T) {
	tests := []struct {
		filter Object
		want   bool
	}{
		{nil, false},
		{Name("DCTDecode"), true},
		{Array{Name("ASCII85Decode"), Name("DCTDecode")}, true},
		{Name("FlateDecode"), false},
	}
	for _, tt := range tests {
		d := Dict{}
		if tt.filter != nil {
			d["Filter"] = tt.filter
		}
		if got := (&Stream{Dict: d}).IsImageCodec(); got != tt.want {
			t.Errorf("filter %v: got %v, want %v", tt.filter, got, tt.want)
		}
	}
}
