package textstrip

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsawler/textstrip/blocks"
	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/document"
	"github.com/tsawler/textstrip/internal/pdftest"
	"github.com/tsawler/textstrip/model"
	"github.com/tsawler/textstrip/redact"
)

// writeFixture stores a built document in a temporary directory
func writeFixture(t *testing.T, b *pdftest.Builder) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.pdf")
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// pageBlocks opens path and extracts the blocks of every page
func pageBlocks(t *testing.T, path string) [][]model.Block {
	t.Helper()
	doc, err := document.Open(path)
	if err != nil {
		t.Fatalf("document.Open(%s): %v", path, err)
	}
	defer doc.Close()
	all, err := doc.Pages()
	if err != nil {
		t.Fatal(err)
	}
	out := make([][]model.Block, len(all))
	for i, p := range all {
		out[i], err = blocks.Extract(doc, p)
		if err != nil {
			t.Fatalf("page %d: %v", i+1, err)
		}
	}
	return out
}

func strip(t *testing.T, in string, opts ...Option) (string, *Result) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "output_cleaned.pdf")
	result, err := StripFile(context.Background(), in, out, opts...)
	if err != nil {
		t.Fatalf("StripFile: %v", err)
	}
	return out, result
}

// threePages builds a text-only page, an image-only page and a mixed page
func threePages() *pdftest.Builder {
	b := pdftest.New()
	font := b.Add(pdftest.Helvetica())
	im1 := b.Add(pdftest.GrayImage(4, 2, pdftest.Gradient(4, 2)))
	im2 := b.Add(pdftest.GrayImage(3, 3, []byte{9, 8, 7, 6, 5, 4, 3, 2, 1}))
	fonts := map[string]core.Object{"F1": font}

	b.AddPage(`BT /F1 18 Tf 72 720 Td (Quarterly report) Tj ET
BT /F1 12 Tf 72 690 Td [(Revenue) -250 (grew)] TJ 0 -14 Td (by ten percent) Tj ET`,
		pdftest.Resources(fonts, nil))
	b.AddPage("q 200 0 0 100 50 500 cm /Im1 Do Q", pdftest.Resources(nil, map[string]core.Object{"Im1": im1}))
	b.AddPage(`BT /F1 12 Tf 72 720 Td (Figure 1) Tj ET
q 90 0 0 90 300 300 cm /Im2 Do Q
BT /F1 10 Tf 72 100 Td (Caption) ' ET`,
		pdftest.Resources(fonts, map[string]core.Object{"Im2": im2}))
	return b
}

func imagesOf(bl []model.Block) []model.Block {
	var out []model.Block
	for _, b := range bl {
		if b.Kind == model.BlockImage {
			out = append(out, b)
		}
	}
	return out
}

func TestStripThreePageDocument(t *testing.T) {
	in := writeFixture(t, threePages())
	before := pageBlocks(t, in)
	out, result := strip(t, in)
	after := pageBlocks(t, out)

	if len(after) != 3 {
		t.Fatalf("page count = %d, want 3", len(after))
	}
	if result.PageCount != 3 || len(result.Pages) != 3 {
		t.Fatalf("result = %+v", result)
	}
	if got := result.TextBlocks(); got != blocks.Count(before[0], model.BlockText)+blocks.Count(before[2], model.BlockText) {
		t.Errorf("TextBlocks() = %d", got)
	}

	// page 1 had only text and is now empty
	if len(after[0]) != 0 {
		t.Errorf("page 1 still has blocks: %+v", after[0])
	}
	// page 2 had only an image and is unchanged
	if len(after[1]) != 1 || after[1][0] != before[1][0] {
		t.Errorf("page 2 changed: before %+v, after %+v", before[1], after[1])
	}
	// page 3 keeps exactly its image
	if len(after[2]) != 1 || after[2][0] != imagesOf(before[2])[0] {
		t.Errorf("page 3 = %+v, want only %+v", after[2], imagesOf(before[2]))
	}
	if result.Pages[2].ImagesKept != 1 || result.Pages[1].TextBlocks != 0 {
		t.Errorf("page results = %+v", result.Pages)
	}
}

func TestStripProperties(t *testing.T) {
	fixtures := map[string]func() *pdftest.Builder{
		"three pages": threePages,
		"object streams": func() *pdftest.Builder {
			b := threePages()
			b.ObjectStreams = true
			return b
		},
		"rotated and invisible text": func() *pdftest.Builder {
			b := pdftest.New()
			font := b.Add(pdftest.Helvetica())
			b.AddPage(`BT /F1 12 Tf 0 1 -1 0 300 200 Tm (Sideways) Tj ET
BT 3 Tr /F1 12 Tf 72 600 Td (Hidden layer) Tj ET
BT /F1 12 Tf 72 500 Td 10 TL (one) ' 1 2 (two) " ET`,
				pdftest.Resources(map[string]core.Object{"F1": font}, nil))
			return b
		},
		"text in a form": func() *pdftest.Builder {
			b := pdftest.New()
			font := b.Add(pdftest.Helvetica())
			form := b.Add(&core.Stream{
				Dict: core.Dict{
					"Type":      core.Name("XObject"),
					"Subtype":   core.Name("Form"),
					"BBox":      core.Array{core.Int(0), core.Int(0), core.Int(200), core.Int(50)},
					"Resources": pdftest.Resources(map[string]core.Object{"F1": font}, nil),
				},
				Data: []byte("BT /F1 12 Tf 10 10 Td (Inside form) Tj ET 0 0 50 5 re f"),
			})
			res := pdftest.Resources(nil, map[string]core.Object{"Fm1": form})
			b.AddPage("q 1 0 0 1 100 400 cm /Fm1 Do Q", res)
			b.AddPage("q 1 0 0 1 100 200 cm /Fm1 Do Q", res)
			return b
		},
	}

	for name, build := range fixtures {
		t.Run(name, func(t *testing.T) {
			in := writeFixture(t, build())
			before := pageBlocks(t, in)
			once, _ := strip(t, in)
			after := pageBlocks(t, once)

			// P3
			if len(after) != len(before) {
				t.Fatalf("page count %d -> %d", len(before), len(after))
			}
			for i := range after {
				// P1
				if n := blocks.Count(after[i], model.BlockText); n != 0 {
					t.Errorf("page %d: %d text blocks left: %+v", i+1, n, after[i])
				}
				// P2 and P5: same images at the same place on the same page
				want, got := imagesOf(before[i]), imagesOf(after[i])
				if len(got) != len(want) {
					t.Fatalf("page %d: images %+v, want %+v", i+1, got, want)
				}
				for j := range want {
					if got[j] != want[j] {
						t.Errorf("page %d image %d = %+v, want %+v", i+1, j, got[j], want[j])
					}
				}
			}

			// P4: a second pass finds nothing and changes nothing visible
			twice, result := strip(t, once)
			if n := result.TextBlocks(); n != 0 {
				t.Errorf("second pass removed %d text blocks", n)
			}
			again := pageBlocks(t, twice)
			for i := range again {
				if len(again[i]) != len(after[i]) {
					t.Fatalf("page %d: second pass blocks %+v, first %+v", i+1, again[i], after[i])
				}
				for j := range again[i] {
					if again[i][j] != after[i][j] {
						t.Errorf("page %d block %d: %+v != %+v", i+1, j, again[i][j], after[i][j])
					}
				}
			}
		})
	}
}

func TestStripEmptyDocument(t *testing.T) {
	in := writeFixture(t, pdftest.New())
	out, result := strip(t, in)

	if result.PageCount != 0 || len(result.Pages) != 0 || result.Failed() {
		t.Errorf("result = %+v", result)
	}
	doc, err := document.Open(out)
	if err != nil {
		t.Fatalf("output is not a valid PDF: %v", err)
	}
	defer doc.Close()
	if n, err := doc.PageCount(); err != nil || n != 0 {
		t.Errorf("PageCount = %d, %v; want 0", n, err)
	}
}

// enclosingPage places an image inside the box of a large line of text
func enclosingPage() *pdftest.Builder {
	b := pdftest.New()
	font := b.Add(pdftest.Helvetica())
	img := b.Add(pdftest.GrayImage(2, 2, []byte{10, 20, 30, 40}))
	b.AddPage(`BT /F1 48 Tf 100 100 Td (WWWWWW) Tj ET
q 20 0 0 20 140 110 cm /Im1 Do Q`,
		pdftest.Resources(map[string]core.Object{"F1": font}, map[string]core.Object{"Im1": img}))
	return b
}

func TestStripTextEnclosingImage(t *testing.T) {
	in := writeFixture(t, enclosingPage())
	before := pageBlocks(t, in)[0]
	if len(before) != 2 || !before[0].BBox.ContainsBBox(before[1].BBox) {
		t.Fatalf("fixture: text block should enclose the image: %+v", before)
	}

	tests := []struct {
		name       string
		policy     redact.ImagePolicy
		wantImages int
	}{
		{"images untouched", redact.ImagesNone, 1},
		{"overlapping images removed", redact.ImagesRemoveOverlapping, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, result := strip(t, in, WithImagePolicy(tt.policy))
			after := pageBlocks(t, out)[0]
			if len(after) != tt.wantImages {
				t.Fatalf("blocks = %+v, want %d image(s)", after, tt.wantImages)
			}
			if tt.wantImages == 1 && after[0] != before[1] {
				t.Errorf("image = %+v, want %+v", after[0], before[1])
			}
			if got := result.Pages[0].ImagesKept; got != tt.wantImages {
				t.Errorf("ImagesKept = %d, want %d", got, tt.wantImages)
			}
		})
	}
}

func TestStripIndirectFilterEntries(t *testing.T) {
	b := pdftest.New()
	font := b.Add(pdftest.Helvetica())
	flate := b.Add(core.Name("FlateDecode"))
	chain := b.Add(core.Array{flate})

	form, err := core.NewStream(core.Dict{
		"Type":      core.Name("XObject"),
		"Subtype":   core.Name("Form"),
		"BBox":      core.Array{core.Int(0), core.Int(0), core.Int(612), core.Int(792)},
		"Resources": pdftest.Resources(map[string]core.Object{"F1": font}, nil),
	}, []byte("BT /F1 12 Tf 72 400 Td (Inside the form) Tj ET"), true)
	if err != nil {
		t.Fatal(err)
	}
	form.Dict["Filter"] = chain
	fm1 := b.Add(form)

	content, err := core.NewStream(core.Dict{}, []byte("BT /F1 12 Tf 72 700 Td (Page text) Tj ET /Fm1 Do"), true)
	if err != nil {
		t.Fatal(err)
	}
	content.Dict["Filter"] = flate
	b.AddPageDict("", core.Dict{
		"Resources": pdftest.Resources(map[string]core.Object{"F1": font}, map[string]core.Object{"Fm1": fm1}),
		"Contents":  b.Add(content),
	})
	in := writeFixture(t, b)

	if got := blocks.Count(pageBlocks(t, in)[0], model.BlockText); got != 2 {
		t.Fatalf("input has %d text blocks, want 2", got)
	}
	out, result := strip(t, in)
	if result.TextBlocks() != 2 {
		t.Errorf("TextBlocks() = %d, want 2", result.TextBlocks())
	}
	if got := blocks.Count(pageBlocks(t, out)[0], model.BlockText); got != 0 {
		t.Errorf("output still has %d text blocks", got)
	}
}
