package pages

import (
	"testing"

	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/model"
)

// mockResolver resolves references from a map
type mockResolver struct {
	objects map[int]core.Object
}

func newMockResolver() *mockResolver {
	return &mockResolver{
		objects: make(map[int]core.Object),
	}
}

func (m *mockResolver) AddObject(num int, obj core.Object) {
	m.objects[num] = obj
}

func (m *mockResolver) Resolve(obj core.Object) core.Object {
	if ref, ok := obj.(core.IndirectRef); ok {
		if o, ok := m.objects[ref.Number]; ok {
			return o
		}
		return core.Null{}
	}
	return obj
}

func letter() core.Array {
	return core.Array{core.Int(0), core.Int(0), core.Int(612), core.Int(792)}
}

func ref(n int) core.IndirectRef {
	return core.IndirectRef{Number: n}
}

func TestCatalogPages(t *testing.T) {
	resolver := newMockResolver()
	resolver.AddObject(2, core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{}})

	catalog := NewCatalog(core.Dict{"Type": core.Name("Catalog"), "Pages": ref(2), "Version": core.Name("1.7")}, resolver)
	root, err := catalog.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if name, _ := root.GetName("Type"); name != "Pages" {
		t.Errorf("unexpected root %v", root)
	}
	if catalog.Version() != "1.7" {
		t.Errorf("Version = %q", catalog.Version())
	}

	if _, err := NewCatalog(core.Dict{}, resolver).Pages(); err == nil {
		t.Error("expected error for catalog without /Pages")
	}
	if _, err := NewCatalog(core.Dict{"Pages": ref(99)}, resolver).Pages(); err == nil {
		t.Error("expected error for dangling /Pages")
	}
}

func TestPageTreeFlatStructure(t *testing.T) {
	resolver := newMockResolver()
	for n := 10; n <= 12; n++ {
		resolver.AddObject(n, core.Dict{"Type": core.Name("Page"), "MediaBox": letter()})
	}

	tree := NewPageTree(core.Dict{
		"Type":  core.Name("Pages"),
		"Count": core.Int(7), // wrong on purpose; the walk decides
		"Kids":  core.Array{ref(10), ref(11), ref(12)},
	}, resolver)

	count, err := tree.Count()
	if err != nil {
		t.Fatalf("failed to get count: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count=3, got %d", count)
	}

	for i, want := range []int{10, 11, 12} {
		page, err := tree.GetPage(i)
		if err != nil {
			t.Fatalf("failed to get page %d: %v", i, err)
		}
		if page.Ref().Number != want {
			t.Errorf("page %d ref = %v, want %d", i, page.Ref(), want)
		}
	}
}

// TestPageTreeNestedStructure checks document order and inheritance through
// several levels
func TestPageTreeNestedStructure(t *testing.T) {
	resolver := newMockResolver()
	fonts := core.Dict{"Font": core.Dict{}}

	resolver.AddObject(10, core.Dict{"Type": core.Name("Page")})
	resolver.AddObject(11, core.Dict{"Type": core.Name("Page"), "Rotate": core.Int(90)})
	// no /Type on either node
	resolver.AddObject(12, core.Dict{"MediaBox": core.Array{core.Int(0), core.Int(0), core.Int(100), core.Int(200)}})
	resolver.AddObject(20, core.Dict{
		"Kids":   core.Array{ref(10), ref(11)},
		"Rotate": core.Int(180),
	})

	tree := NewPageTree(core.Dict{
		"Type":      core.Name("Pages"),
		"Kids":      core.Array{ref(20), ref(12)},
		"MediaBox":  letter(),
		"Resources": fonts,
	}, resolver)

	pages, err := tree.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}

	tests := []struct {
		page   int
		ref    int
		rotate int
		box    model.BBox
	}{
		{0, 10, 180, model.NewBBox(0, 0, 612, 792)},
		{1, 11, 90, model.NewBBox(0, 0, 612, 792)},
		{2, 12, 0, model.NewBBox(0, 0, 100, 200)},
	}
	for _, tt := range tests {
		p := pages[tt.page]
		if p.Ref().Number != tt.ref {
			t.Errorf("page %d ref = %d, want %d", tt.page, p.Ref().Number, tt.ref)
		}
		if p.Rotate() != tt.rotate {
			t.Errorf("page %d rotate = %d, want %d", tt.page, p.Rotate(), tt.rotate)
		}
		box, err := p.MediaBox()
		if err != nil || box != tt.box {
			t.Errorf("page %d MediaBox = %+v, %v; want %+v", tt.page, box, err, tt.box)
		}
		res, err := p.Resources()
		if err != nil || res == nil || !res.Has("Font") {
			t.Errorf("page %d did not inherit resources: %v %v", tt.page, res, err)
		}
	}
}

func TestPageTreeCycle(t *testing.T) {
	resolver := newMockResolver()
	resolver.AddObject(2, core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(3)}})
	resolver.AddObject(3, core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(2)}})

	tree := NewPageTree(resolver.objects[2].(core.Dict), resolver)
	if _, err := tree.Pages(); err == nil {
		t.Error("expected error for cyclic page tree")
	}
}

func TestPageTreeOutOfBounds(t *testing.T) {
	resolver := newMockResolver()
	resolver.AddObject(10, core.Dict{"Type": core.Name("Page")})
	tree := NewPageTree(core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(10)}}, resolver)

	for _, idx := range []int{-1, 1} {
		if _, err := tree.GetPage(idx); err == nil {
			t.Errorf("expected error for index %d", idx)
		}
	}
}

func TestPageBoxes(t *testing.T) {
	resolver := newMockResolver()
	resolver.AddObject(5, core.Real(300))

	tests := []struct {
		name    string
		dict    core.Dict
		media   model.BBox
		crop    model.BBox
		wantErr bool
	}{
		{
			name:  "media only",
			dict:  core.Dict{"MediaBox": letter()},
			media: model.NewBBox(0, 0, 612, 792),
			crop:  model.NewBBox(0, 0, 612, 792),
		},
		{
			name: "crop box and swapped corners",
			dict: core.Dict{
				"MediaBox": core.Array{core.Int(612), core.Int(792), core.Int(0), core.Int(0)},
				"CropBox":  core.Array{core.Int(10), core.Int(10), ref(5), core.Real(400.5)},
			},
			media: model.NewBBox(0, 0, 612, 792),
			crop:  model.NewBBox(10, 10, 290, 390.5),
		},
		{
			name:    "missing",
			dict:    core.Dict{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(core.IndirectRef{}, tt.dict, core.Dict{}, resolver)
			media, err := p.MediaBox()
			if (err != nil) != tt.wantErr {
				t.Fatalf("MediaBox error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			crop, _ := p.CropBox()
			if media != tt.media || crop != tt.crop {
				t.Errorf("boxes = %+v %+v, want %+v %+v", media, crop, tt.media, tt.crop)
			}
			if w, _ := p.Width(); w != tt.media.Width {
				t.Errorf("Width = %v", w)
			}
			if h, _ := p.Height(); h != tt.media.Height {
				t.Errorf("Height = %v", h)
			}
		})
	}
}

func TestPageRotateNormalized(t *testing.T) {
	for in, want := range map[int]int{0: 0, 90: 90, -90: 270, 450: 90, 45: 0} {
		p := NewPage(core.IndirectRef{}, core.Dict{"Rotate": core.Int(in)}, core.Dict{}, newMockResolver())
		if got := p.Rotate(); got != want {
			t.Errorf("Rotate(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestPageContents(t *testing.T) {
	resolver := newMockResolver()
	resolver.AddObject(4, &core.Stream{Dict: core.Dict{}, Data: []byte("BT")})
	resolver.AddObject(5, &core.Stream{Dict: core.Dict{}, Data: []byte("ET")})

	p := NewPage(ref(1), core.Dict{"Contents": core.Array{ref(4), ref(99), ref(5)}}, core.Dict{}, resolver)
	streams, err := p.Contents()
	if err != nil {
		t.Fatal(err)
	}
	if len(streams) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(streams))
	}
	data, err := p.ContentData()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "BT\nET\n" {
		t.Errorf("ContentData = %q", data)
	}

	empty := NewPage(ref(1), core.Dict{}, core.Dict{}, resolver)
	if s, err := empty.Contents(); err != nil || s != nil {
		t.Errorf("page without contents: %v %v", s, err)
	}
}

func TestPageSetters(t *testing.T) {
	resolver := newMockResolver()
	dict := core.Dict{"Type": core.Name("Page"), "Contents": core.Array{ref(4), ref(5)}}
	inherited := core.Dict{"Resources": core.Dict{"Old": core.Bool(true)}}
	p := NewPage(ref(3), dict, inherited, resolver)

	p.SetContents(ref(9))
	if dict["Contents"] != ref(9) {
		t.Errorf("SetContents did not update the page dictionary: %v", dict["Contents"])
	}

	p.SetResources(core.Dict{"New": core.Bool(true)})
	res, err := p.Resources()
	if err != nil || !res.Has("New") {
		t.Errorf("SetResources should override inherited resources, got %v", res)
	}
}
