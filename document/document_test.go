package document

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/internal/pdftest"
)

func twoPages(objectStreams bool) []byte {
	b := pdftest.New()
	b.ObjectStreams = objectStreams
	b.SetInfo(core.Dict{"Title": core.String("fixture")})
	font := b.Add(pdftest.Helvetica())
	res := pdftest.Resources(map[string]core.Object{"F1": font}, nil)
	b.AddPage("BT /F1 12 Tf 72 720 Td (Page one) Tj ET", res)
	b.AddPage("BT /F1 12 Tf 72 720 Td (Page two) Tj ET", res)
	return b.Bytes()
}

func TestOpenBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"classic xref", twoPages(false)},
		{"object streams", twoPages(true)},
		{"broken startxref", regexp.MustCompile(`startxref\n\d+`).ReplaceAll(twoPages(false), []byte("startxref\n0"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := OpenBytes(tt.data)
			if err != nil {
				t.Fatalf("OpenBytes: %v", err)
			}
			defer doc.Close()

			if doc.Version().String() != "1.7" {
				t.Errorf("Version = %s", doc.Version())
			}
			n, err := doc.PageCount()
			if err != nil || n != 2 {
				t.Fatalf("PageCount = %d, %v; want 2", n, err)
			}
			for i, want := range []string{"Page one", "Page two"} {
				p, err := doc.Page(i)
				if err != nil {
					t.Fatal(err)
				}
				data, err := p.ContentData()
				if err != nil {
					t.Fatal(err)
				}
				if !strings.Contains(string(data), want) {
					t.Errorf("page %d content %q does not contain %q", i, data, want)
				}
			}
			if title, _ := doc.Info().GetString("Title"); title != "fixture" {
				t.Errorf("Info title = %q", title)
			}
		})
	}
}

func TestOpenErrors(t *testing.T) {
	encrypted := bytes.Replace(twoPages(false), []byte("trailer\n<<"), []byte("trailer\n<</Encrypt 1 0 R "), 1)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"not a pdf", []byte("hello world"), ErrNotPDF},
		{"empty", nil, ErrNotPDF},
		{"no xref", []byte("%PDF-1.4\nnothing to see\n%%EOF"), ErrNoXRef},
		{"encrypted", encrypted, ErrEncrypted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenBytes(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("OpenBytes error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.pdf")
	if err := os.WriteFile(path, twoPages(false), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()
	if doc.Path() != path {
		t.Errorf("Path = %q", doc.Path())
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestObjectStore(t *testing.T) {
	doc, err := OpenBytes(twoPages(false))
	if err != nil {
		t.Fatal(err)
	}

	before := doc.ObjectNumbers()
	ref := doc.AddObject(core.String("new"))
	if ref.Number <= before[len(before)-1] {
		t.Errorf("new object number %d collides with existing objects %v", ref.Number, before)
	}
	if got := doc.Resolve(ref); got != core.String("new") {
		t.Errorf("Resolve(new) = %v", got)
	}

	doc.SetObject(ref.Number, core.Int(7))
	if got, _ := doc.GetObject(ref.Number); got != core.Int(7) {
		t.Errorf("after SetObject got %v", got)
	}
	if nums := doc.ObjectNumbers(); nums[len(nums)-1] != ref.Number {
		t.Errorf("ObjectNumbers should include the new object: %v", nums)
	}

	if _, ok := doc.Resolve(core.IndirectRef{Number: 9999}).(core.Null); !ok {
		t.Error("missing objects should resolve to null")
	}
	if got := doc.Resolve(core.Int(3)); got != core.Int(3) {
		t.Error("direct objects resolve to themselves")
	}

	doc.Close()
	if _, err := doc.GetObject(1); !errors.Is(err, ErrClosed) {
		t.Errorf("GetObject after Close = %v, want ErrClosed", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	doc, err := OpenBytes(twoPages(true))
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()

	nums := doc.ObjectNumbers()
	refs := make(chan int, 50)
	var wg sync.WaitGroup
	for g := 0; g < 50; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, n := range nums {
				doc.GetObject(n)
			}
			refs <- doc.AddObject(core.Null{}).Number
		}()
	}
	wg.Wait()
	close(refs)

	seen := make(map[int]bool)
	for n := range refs {
		if seen[n] {
			t.Fatalf("object number %d allocated twice", n)
		}
		seen[n] = true
	}
}

func TestPageImages(t *testing.T) {
	b := pdftest.New()
	img := b.Add(pdftest.GrayImage(4, 2, pdftest.Gradient(4, 2)))
	b.AddPage("q 40 0 0 20 100 100 cm /Im1 Do Q", pdftest.Resources(nil, map[string]core.Object{
		"Im1": img,
		"Fm1": b.Add(&core.Stream{Dict: core.Dict{"Subtype": core.Name("Form")}}),
	}))
	doc, err := OpenBytes(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	page, _ := doc.Page(0)

	images, err := doc.PageImages(page)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 1 {
		t.Fatalf("got %d images, want 1", len(images))
	}
	im := images[0]
	if im.Name != "Im1" || im.Ref != img || im.Width != 4 || im.Height != 2 || im.Components != 1 {
		t.Errorf("unexpected image %+v", im)
	}

	goImg, err := im.ToImage()
	if err != nil {
		t.Fatal(err)
	}
	if goImg.Bounds().Dx() != 4 || goImg.Bounds().Dy() != 2 {
		t.Errorf("bounds = %v", goImg.Bounds())
	}
	png, err := im.ToPNG()
	if err != nil || !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("ToPNG = %d bytes, %v", len(png), err)
	}
}

func TestImageConversion(t *testing.T) {
	tests := []struct {
		name string
		img  Image
		ok   bool
	}{
		{"1-bit", Image{Width: 9, Height: 1, ColorSpace: "DeviceGray", BitsPerComponent: 1, Data: []byte{0xAA, 0x80}}, true},
		{"4-bit", Image{Width: 3, Height: 1, ColorSpace: "DeviceGray", BitsPerComponent: 4, Data: []byte{0x0F, 0x80}}, true},
		{"rgb", Image{Width: 1, Height: 1, ColorSpace: "DeviceRGB", BitsPerComponent: 8, Data: []byte{1, 2, 3}}, true},
		{"cmyk", Image{Width: 1, Height: 1, ColorSpace: "DeviceCMYK", BitsPerComponent: 8, Data: []byte{0, 0, 0, 0}}, true},
		{"short data", Image{Width: 4, Height: 4, ColorSpace: "DeviceGray", BitsPerComponent: 8, Data: []byte{1}}, false},
		{"16-bit rgb", Image{Width: 1, Height: 1, ColorSpace: "DeviceRGB", BitsPerComponent: 16, Data: make([]byte, 6)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.img.ToImage()
			if (err == nil) != tt.ok {
				t.Errorf("ToImage error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestColorSpace(t *testing.T) {
	icc := &core.Stream{Dict: core.Dict{"N": core.Int(3)}}
	tests := []struct {
		obj  core.Object
		name string
		n    int
	}{
		{nil, "DeviceGray", 1},
		{core.Name("DeviceRGB"), "DeviceRGB", 3},
		{core.Name("DeviceCMYK"), "DeviceCMYK", 4},
		{core.Array{core.Name("ICCBased"), icc}, "DeviceRGB", 3},
		{core.Array{core.Name("Indexed"), core.Name("DeviceRGB"), core.Int(255), core.String("")}, "Indexed", 1},
		{core.Array{core.Name("CalRGB"), core.Dict{}}, "DeviceRGB", 3},
	}
	doc, _ := OpenBytes(twoPages(false))
	for _, tt := range tests {
		name, n := colorSpace(doc, tt.obj, 0)
		if name != tt.name || n != tt.n {
			t.Errorf("colorSpace(%v) = %s %d, want %s %d", tt.obj, name, n, tt.name, tt.n)
		}
	}
}
