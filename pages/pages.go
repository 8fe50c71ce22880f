package pages

import (
	"fmt"

	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/model"
)

// inheritable page attributes, looked up through the Pages ancestors
var inheritable = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// maxTreeDepth bounds Pages nesting in hostile files
const maxTreeDepth = 256

// Catalog represents the PDF document catalog (root of document structure)
type Catalog struct {
	dict     core.Dict
	resolver core.Resolver
}

// NewCatalog creates a new catalog from a dictionary
func NewCatalog(dict core.Dict, resolver core.Resolver) *Catalog {
	return &Catalog{
		dict:     dict,
		resolver: resolver,
	}
}

// Dict returns the catalog dictionary
func (c *Catalog) Dict() core.Dict {
	return c.dict
}

// Pages returns the page tree root
func (c *Catalog) Pages() (core.Dict, error) {
	pagesRef := c.dict.Get("Pages")
	if pagesRef == nil {
		return nil, fmt.Errorf("catalog missing /Pages entry")
	}
	pagesDict, ok := core.ResolveDict(c.resolver, pagesRef)
	if !ok {
		return nil, fmt.Errorf("invalid /Pages type: %T", c.resolver.Resolve(pagesRef))
	}
	return pagesDict, nil
}

// Version returns the version entry if present
func (c *Catalog) Version() string {
	if name, ok := c.dict.GetName("Version"); ok {
		return string(name)
	}
	return ""
}

// PageTree represents the PDF page tree
type PageTree struct {
	root     core.Dict
	resolver core.Resolver
	pages    []*Page // Cached flattened page list
}

// NewPageTree creates a new page tree from the root pages dictionary
func NewPageTree(root core.Dict, resolver core.Resolver) *PageTree {
	return &PageTree{
		root:     root,
		resolver: resolver,
	}
}

// Count returns the number of pages found by walking the tree. The /Count
// entries are not trusted.
func (t *PageTree) Count() (int, error) {
	pages, err := t.Pages()
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}

// GetPage returns the page at the given index (0-based)
func (t *PageTree) GetPage(index int) (*Page, error) {
	pages, err := t.Pages()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(pages))
	}
	return pages[index], nil
}

// Pages returns all pages in document order
func (t *PageTree) Pages() ([]*Page, error) {
	if t.pages == nil {
		if err := t.loadPages(); err != nil {
			return nil, err
		}
	}
	return t.pages, nil
}

// loadPages traverses the page tree and builds the flattened page list
func (t *PageTree) loadPages() error {
	pages := make([]*Page, 0)
	visited := make(map[core.IndirectRef]bool)
	if err := t.traversePageNode(t.root, core.IndirectRef{}, core.Dict{}, visited, 0, &pages); err != nil {
		return fmt.Errorf("failed to traverse page tree: %w", err)
	}
	t.pages = pages
	return nil
}

// traversePageNode walks one node. inherited holds the inheritable
// attributes collected from the node's ancestors.
func (t *PageTree) traversePageNode(node core.Dict, ref core.IndirectRef, inherited core.Dict,
	visited map[core.IndirectRef]bool, depth int, pages *[]*Page) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("page tree nested deeper than %d levels", maxTreeDepth)
	}

	typeName, _ := node.GetName("Type")
	if typeName == "" {
		// writers sometimes omit /Type; a node with kids is an interior node
		typeName = "Page"
		if node.Has("Kids") {
			typeName = "Pages"
		}
	}

	switch typeName {
	case "Pages":
		scope := inherited.Clone()
		for _, key := range inheritable {
			if v := node.Get(key); v != nil {
				scope[key] = v
			}
		}

		kids, ok := t.resolver.Resolve(node.Get("Kids")).(core.Array)
		if !ok {
			return fmt.Errorf("Pages node missing /Kids array")
		}
		for i, kidObj := range kids {
			kidRef, isRef := kidObj.(core.IndirectRef)
			if isRef {
				if visited[kidRef] {
					return fmt.Errorf("page tree cycle at object %s", kidRef)
				}
				visited[kidRef] = true
			}
			kidDict, ok := t.resolver.Resolve(kidObj).(core.Dict)
			if !ok {
				return fmt.Errorf("invalid kid %d type: %T", i, t.resolver.Resolve(kidObj))
			}
			if err := t.traversePageNode(kidDict, kidRef, scope, visited, depth+1, pages); err != nil {
				return err
			}
		}

	case "Page":
		*pages = append(*pages, NewPage(ref, node, inherited, t.resolver))

	default:
		return fmt.Errorf("unexpected page node type: %s", typeName)
	}

	return nil
}

// Page represents a single PDF page. The page dictionary is shared with the
// document's object store, so setters mutate the document.
type Page struct {
	ref       core.IndirectRef
	dict      core.Dict
	inherited core.Dict // inheritable attributes from the Pages ancestors
	resolver  core.Resolver
}

// NewPage creates a new page from a dictionary
func NewPage(ref core.IndirectRef, dict, inherited core.Dict, resolver core.Resolver) *Page {
	return &Page{
		ref:       ref,
		dict:      dict,
		inherited: inherited,
		resolver:  resolver,
	}
}

// Ref returns the page object's reference. It is zero for a page dictionary
// embedded directly in its parent's /Kids.
func (p *Page) Ref() core.IndirectRef {
	return p.ref
}

// Dict returns the page dictionary
func (p *Page) Dict() core.Dict {
	return p.dict
}

// attr returns an inheritable attribute
func (p *Page) attr(name string) core.Object {
	if v := p.dict.Get(name); v != nil {
		return v
	}
	return p.inherited.Get(name)
}

// MediaBox returns the page media box
func (p *Page) MediaBox() (model.BBox, error) {
	return p.getBox("MediaBox")
}

// CropBox returns the page crop box, defaulting to the MediaBox
func (p *Page) CropBox() (model.BBox, error) {
	box, err := p.getBox("CropBox")
	if err != nil {
		return p.MediaBox()
	}
	return box, nil
}

// getBox retrieves a box attribute (inheritable)
func (p *Page) getBox(name string) (model.BBox, error) {
	boxObj := p.attr(name)
	if boxObj == nil {
		return model.BBox{}, fmt.Errorf("%s not found", name)
	}

	boxArr, ok := p.resolver.Resolve(boxObj).(core.Array)
	if !ok || len(boxArr) != 4 {
		return model.BBox{}, fmt.Errorf("invalid %s: %v", name, boxObj)
	}
	nums := make([]float64, 4)
	for i, elem := range boxArr {
		n, ok := core.Number(p.resolver.Resolve(elem))
		if !ok {
			return model.BBox{}, fmt.Errorf("invalid %s element type: %T", name, elem)
		}
		nums[i] = n
	}
	// corners may be given in any order
	return model.NewBBoxFromEdges(
		min(nums[0], nums[2]), min(nums[1], nums[3]),
		max(nums[0], nums[2]), max(nums[1], nums[3]),
	), nil
}

// Resources returns the page resources dictionary (inheritable). A page
// without resources yields nil.
func (p *Page) Resources() (core.Dict, error) {
	obj := p.attr("Resources")
	if obj == nil {
		return nil, nil
	}
	d, ok := p.resolver.Resolve(obj).(core.Dict)
	if !ok {
		if _, null := p.resolver.Resolve(obj).(core.Null); null {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid Resources type: %T", p.resolver.Resolve(obj))
	}
	return d, nil
}

// SetResources replaces the page's resources. The value is stored on the
// page itself and no longer inherited.
func (p *Page) SetResources(res core.Object) {
	p.dict["Resources"] = res
}

// Contents returns the page content streams in order. Missing or
// unresolvable entries are skipped.
func (p *Page) Contents() ([]*core.Stream, error) {
	obj := p.dict.Get("Contents")
	if obj == nil {
		return nil, nil
	}

	switch v := p.resolver.Resolve(obj).(type) {
	case *core.Stream:
		return []*core.Stream{v}, nil
	case core.Array:
		streams := make([]*core.Stream, 0, len(v))
		for _, elem := range v {
			if s, ok := p.resolver.Resolve(elem).(*core.Stream); ok {
				streams = append(streams, s)
			}
		}
		return streams, nil
	case core.Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid Contents type: %T", v)
	}
}

// ContentData returns the decoded content of all content streams,
// concatenated with a newline so tokens cannot merge across streams
func (p *Page) ContentData() ([]byte, error) {
	streams, err := p.Contents()
	if err != nil {
		return nil, err
	}
	var data []byte
	for i, s := range streams {
		decoded, err := s.DecodeWith(p.resolver)
		if err != nil {
			return nil, fmt.Errorf("content stream %d: %w", i, err)
		}
		data = append(data, decoded...)
		data = append(data, '\n')
	}
	return data, nil
}

// SetContents points the page at a single content stream object
func (p *Page) SetContents(ref core.IndirectRef) {
	p.dict["Contents"] = ref
}

// Rotate returns the page rotation normalized to 0, 90, 180 or 270
func (p *Page) Rotate() int {
	n, ok := core.Number(p.resolver.Resolve(p.attr("Rotate")))
	if !ok {
		return 0
	}
	r := int(n) % 360
	if r < 0 {
		r += 360
	}
	return r / 90 * 90
}

// Width returns the page width (from MediaBox)
func (p *Page) Width() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box.Width, nil
}

// Height returns the page height (from MediaBox)
func (p *Page) Height() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box.Height, nil
}
