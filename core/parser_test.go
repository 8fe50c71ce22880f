package core

import (
	"testing"
)

func TestParserScalars(t *testing.T) {
	tests := []struct {
		input string
		want  Object
	}{
		{"null", Null{}},
		{"true", Bool(true)},
		{"false", Bool(false)},
		{"42", Int(42)},
		{"-17", Int(-17)},
		{"3.25", Real(3.25)},
		{"(text)", String("text")},
		{"<48656C6C6F>", String("Hello")},
		{"/Name", Name("Name")},
		{"12 0 R", IndirectRef{Number: 12, Generation: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			obj, err := NewParser([]byte(tt.input)).ParseObject()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if obj != tt.want {
				t.Errorf("got %#v, want %#v", obj, tt.want)
			}
		})
	}
}

func TestParserIntegersAreNotReferences(t *testing.T) {
	obj, err := NewParser([]byte("[1 2 3 0 R 4]")).ParseObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	arr := obj.(Array)
	want := Array{Int(1), Int(2), IndirectRef{Number: 3, Generation: 0}, Int(4)}
	if len(arr) != len(want) {
		t.Fatalf("expected %d elements, got %d: %v", len(want), len(arr), arr)
	}
	for i := range want {
		if arr[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, arr[i], want[i])
		}
	}
}

func TestParserDictionary(t *testing.T) {
	input := "<< /Type /Page /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Gone null >>"
	obj, err := NewParser([]byte(input)).ParseObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, ok := obj.(Dict)
	if !ok {
		t.Fatalf("expected Dict, got %T", obj)
	}
	if name, _ := d.GetName("Type"); name != "Page" {
		t.Errorf("Type = %q", name)
	}
	box, _ := d.GetArray("MediaBox")
	nums, ok := box.Numbers()
	if !ok || nums[3] != 792 {
		t.Errorf("MediaBox = %v", box)
	}
	res, _ := d.GetDict("Resources")
	fonts, _ := res.GetDict("Font")
	if ref, ok := fonts.GetIndirectRef("F1"); !ok || ref.Number != 5 {
		t.Errorf("F1 = %v", fonts["F1"])
	}
	if d.Has("Gone") {
		t.Error("null-valued key should be absent")
	}
}

func TestParserIndirectStream(t *testing.T) {
	input := "7 0 obj\n<< /Length 5 >>\nstream\nhello\nendstream\nendobj"
	ind, err := NewParser([]byte(input)).ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ind.Ref.Number != 7 {
		t.Errorf("Ref = %v", ind.Ref)
	}
	s, ok := ind.Object.(*Stream)
	if !ok {
		t.Fatalf("expected stream, got %T", ind.Object)
	}
	if string(s.Data) != "hello" {
		t.Errorf("Data = %q", s.Data)
	}
}

func TestParserStreamWithWrongLength(t *testing.T) {
	input := "1 0 obj\n<< /Length 99 >>\nstream\r\nabc\r\nendstream\nendobj"
	ind, err := NewParser([]byte(input)).ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := ind.Object.(*Stream)
	if string(s.Data) != "abc" {
		t.Errorf("Data = %q, want %q", s.Data, "abc")
	}
	if n, _ := s.Dict.GetInt("Length"); n != 3 {
		t.Errorf("Length = %d, want 3", n)
	}
}

type mapResolver map[int]Object

func (m mapResolver) ResolveReference(ref IndirectRef) (Object, error) {
	return m[ref.Number], nil
}

func TestParserIndirectLength(t *testing.T) {
	input := "1 0 obj\n<< /Length 2 0 R >>\nstream\nxy\nendstream\nendobj"
	p := NewParser([]byte(input))
	p.SetReferenceResolver(mapResolver{2: Int(2)})
	ind, err := p.ParseIndirectObject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := string(ind.Object.(*Stream).Data); got != "xy" {
		t.Errorf("Data = %q", got)
	}
}

func TestParserErrors(t *testing.T) {
	tests := []string{
		"[1 2",
		"<< /A 1",
		"<< 1 2 >>",
		"endobj",
		"",
		"1 0 foo",
	}
	for _, input := range tests {
		p := NewParser([]byte(input))
		var err error
		if input == "1 0 foo" {
			_, err = p.ParseIndirectObject()
		} else {
			_, err = p.ParseObject()
		}
		if err == nil {
			t.Errorf("%q: expected error", input)
		}
	}
}

func TestParserNestingLimit(t *testing.T) {
	deep := make([]byte, 0, 1000)
	for i := 0; i < 500; i++ {
		deep = append(deep, '[')
	}
	if _, err := NewParser(deep).ParseObject(); err == nil {
		t.Error("expected nesting error")
	}
}
