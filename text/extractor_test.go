package text

import (
	"math"
	"testing"

	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/model"
)

func helvetica() core.Dict {
	return core.Dict{
		"Font": core.Dict{
			"F1": core.Dict{
				"Type":     core.Name("Font"),
				"Subtype":  core.Name("Type1"),
				"BaseFont": core.Name("Helvetica"),
			},
		},
	}
}

func TestExtract(t *testing.T) {
	content := "BT /F1 12 Tf 72 720 Td (Hello) Tj [(Wor) -100 (ld)] TJ () Tj ET"
	frags, err := Extract([]byte(content), helvetica(), nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"Hello", "Wor", "ld"}
	if len(frags) != len(want) {
		t.Fatalf("got %d fragments, want %d: %+v", len(frags), len(want), frags)
	}
	for i, w := range want {
		if frags[i].Text != w {
			t.Errorf("fragment %d text = %q, want %q", i, frags[i].Text, w)
		}
		if frags[i].FontName != "F1" || frags[i].FontSize != 12 {
			t.Errorf("fragment %d font = %s %v", i, frags[i].FontName, frags[i].FontSize)
		}
	}
	if frags[0].BBox.Left() != 72 {
		t.Errorf("first fragment left = %v, want 72", frags[0].BBox.Left())
	}
	if frags[1].BBox.Left() < frags[0].BBox.Right() {
		t.Error("fragments should advance left to right")
	}
	// Helvetica space is 278/1000 em
	if math.Abs(frags[0].SpaceWidth-12*0.278) > 1e-9 {
		t.Errorf("space width = %v", frags[0].SpaceWidth)
	}
}

func TestExtractUndecodableRun(t *testing.T) {
	// a Type0 font without ToUnicode shows codes that map to no text
	resources := core.Dict{
		"Font": core.Dict{
			"F2": core.Dict{
				"Subtype":  core.Name("Type0"),
				"BaseFont": core.Name("Custom"),
				"Encoding": core.Name("Identity-H"),
			},
		},
	}
	frags, err := Extract([]byte("BT /F2 10 Tf <00410042> Tj ET"), resources, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(frags) != 1 {
		t.Fatalf("got %d fragments, want 1", len(frags))
	}
	if frags[0].BBox.Width <= 0 || frags[0].BBox.Height <= 0 {
		t.Errorf("fragment should have an extent, got %+v", frags[0].BBox)
	}
}

func frag(text string, x, width float64) Fragment {
	return Fragment{
		Text:       text,
		BBox:       model.NewBBox(x, 0, width, 10),
		FontSize:   10,
		Direction:  DetectDirection(text),
		SpaceWidth: 2.78,
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name string
		line []Fragment
		want string
	}{
		{"empty", nil, ""},
		{"tight", []Fragment{frag("Wor", 0, 20), frag("ld", 20.2, 10)}, "World"},
		{"word gap", []Fragment{frag("Hello", 0, 30), frag("World", 33, 30)}, "Hello World"},
		{"out of order", []Fragment{frag("World", 33, 30), frag("Hello", 0, 30)}, "Hello World"},
		{"explicit space", []Fragment{frag("Hello ", 0, 33), frag("World", 40, 30)}, "Hello World"},
		{"rtl", []Fragment{frag("שלום", 0, 20), frag("עולם", 30, 20)}, "עולם שלום"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Join(tt.line); got != tt.want {
				t.Errorf("Join() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractorReset(t *testing.T) {
	e := NewExtractor()
	e.fragments = append(e.fragments, frag("x", 0, 1))
	e.Reset()
	if len(e.Fragments()) != 0 {
		t.Error("Reset should discard fragments")
	}
}
