package redact

import (
	"context"
	"fmt"
	"sync"

	"github.com/tsawler/textstrip/contentstream"
	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/document"
	"github.com/tsawler/textstrip/graphicsstate"
	"github.com/tsawler/textstrip/model"
	"github.com/tsawler/textstrip/pages"
)

// ImagePolicy selects what happens to images under a mark
type ImagePolicy int

const (
	// ImagesNone never touches image operations
	ImagesNone ImagePolicy = iota
	// ImagesRemoveOverlapping drops image invocations overlapping a mark
	ImagesRemoveOverlapping
	// ImagesBlankPixels clears the covered pixels of 8-bit gray and RGB
	// images; other images are left unchanged
	ImagesBlankPixels
)

func (p ImagePolicy) String() string {
	switch p {
	case ImagesNone:
		return "none"
	case ImagesRemoveOverlapping:
		return "remove"
	case ImagesBlankPixels:
		return "pixels"
	}
	return fmt.Sprintf("ImagePolicy(%d)", int(p))
}

// ParseImagePolicy reads the names returned by ImagePolicy.String
func ParseImagePolicy(s string) (ImagePolicy, error) {
	switch s {
	case "none", "":
		return ImagesNone, nil
	case "remove":
		return ImagesRemoveOverlapping, nil
	case "pixels":
		return ImagesBlankPixels, nil
	}
	return ImagesNone, fmt.Errorf("unknown image policy %q (want none, remove or pixels)", s)
}

// GraphicsPolicy selects what happens to vector graphics under a mark
type GraphicsPolicy int

const (
	// GraphicsNone keeps every path and shading
	GraphicsNone GraphicsPolicy = iota
	// GraphicsRemoveContained removes paints lying entirely inside a mark
	GraphicsRemoveContained
)

func (p GraphicsPolicy) String() string {
	switch p {
	case GraphicsNone:
		return "none"
	case GraphicsRemoveContained:
		return "contained"
	}
	return fmt.Sprintf("GraphicsPolicy(%d)", int(p))
}

// ParseGraphicsPolicy reads the names returned by GraphicsPolicy.String
func ParseGraphicsPolicy(s string) (GraphicsPolicy, error) {
	switch s {
	case "none", "":
		return GraphicsNone, nil
	case "contained":
		return GraphicsRemoveContained, nil
	}
	return GraphicsNone, fmt.Errorf("unknown graphics policy %q (want none or contained)", s)
}

// Policy controls how Apply treats non-text content under marks. Text
// under a mark is always removed.
type Policy struct {
	Images   ImagePolicy
	Graphics GraphicsPolicy
}

// ApplyStats counts what Apply changed
type ApplyStats struct {
	Marks         int // marks consumed
	TextRemoved   int // text-showing operations rewritten
	ImagesRemoved int
	ImagesBlanked int
	PathsRemoved  int
	FormsCopied   int // form XObjects rewritten copy-on-write
}

// Page queues redaction marks for one page of a document
type Page struct {
	doc  *document.Document
	page *pages.Page

	mu    sync.Mutex
	marks []model.Mark
}

// NewPage prepares a page for redaction
func NewPage(doc *document.Document, page *pages.Page) *Page {
	return &Page{doc: doc, page: page}
}

// AddMark queues a mark. Marks with an empty rectangle are accepted and
// match only content touching that point or line.
func (p *Page) AddMark(m model.Mark) {
	p.mu.Lock()
	p.marks = append(p.marks, m)
	p.mu.Unlock()
}

// Marks returns a copy of the queued marks
func (p *Page) Marks() []model.Mark {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Mark(nil), p.marks...)
}

// Apply removes the content under the queued marks and empties the queue.
// Text whose glyph box intersects a mark is removed while the positions of
// the remaining glyphs are preserved. When nothing is queued the page is
// left untouched.
func (p *Page) Apply(ctx context.Context, policy Policy) (ApplyStats, error) {
	p.mu.Lock()
	marks := p.marks
	p.marks = nil
	p.mu.Unlock()

	stats := ApplyStats{Marks: len(marks)}
	if len(marks) == 0 {
		return stats, nil
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	content, err := p.page.ContentData()
	if err != nil {
		return stats, fmt.Errorf("failed to read page content: %w", err)
	}
	resources, err := p.page.Resources()
	if err != nil {
		return stats, fmt.Errorf("failed to read page resources: %w", err)
	}
	if resources == nil {
		resources = core.Dict{}
	}
	ops, err := contentstream.NewParser(content).Parse()
	if err != nil {
		return stats, fmt.Errorf("failed to parse page content: %w", err)
	}

	root := &graphicsstate.Frame{Ops: ops, Resources: resources}
	plan := newPlanner(p.doc, marks, policy, &stats)
	if err := graphicsstate.NewWalker(p.doc).Walk(root, plan); err != nil {
		return stats, fmt.Errorf("failed to walk page content: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	rewritten, newResources, err := plan.commit(root)
	if err != nil {
		return stats, err
	}

	fills := fillOps(marks)
	if rewritten == nil && len(fills) == 0 {
		return stats, nil
	}
	if rewritten == nil {
		rewritten = ops
	}
	if len(fills) > 0 {
		// isolate the original graphics state so fills land in page space
		wrapped := make([]contentstream.Operation, 0, len(rewritten)+len(fills)+2)
		wrapped = append(wrapped, contentstream.Operation{Operator: "q"})
		wrapped = append(wrapped, rewritten...)
		wrapped = append(wrapped, contentstream.Operation{Operator: "Q"})
		rewritten = append(wrapped, fills...)
	}

	if newResources != nil {
		p.page.SetResources(newResources)
	}
	ref := p.doc.AddObject(&core.Stream{Dict: core.Dict{}, Data: contentstream.Write(rewritten)})
	p.page.SetContents(ref)
	return stats, nil
}

// fillOps paints every mark that carries a fill color
func fillOps(marks []model.Mark) []contentstream.Operation {
	var ops []contentstream.Operation
	num := contentstream.Number
	for _, m := range marks {
		if m.Fill == nil {
			continue
		}
		r := m.Rect
		ops = append(ops,
			contentstream.Operation{Operator: "q"},
			contentstream.Operation{Operator: "rg", Operands: []core.Object{num(m.Fill.R), num(m.Fill.G), num(m.Fill.B)}},
			contentstream.Operation{Operator: "re", Operands: []core.Object{num(r.X), num(r.Y), num(r.Width), num(r.Height)}},
			contentstream.Operation{Operator: "f"},
			contentstream.Operation{Operator: "Q"},
		)
	}
	return ops
}
