package redact

import (
	"fmt"
	"sort"

	"github.com/tsawler/textstrip/contentstream"
	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/document"
	"github.com/tsawler/textstrip/graphicsstate"
	"github.com/tsawler/textstrip/model"
)

// frameEdits holds the replacements planned for one executed content
// stream. A replacement with no operations deletes the original.
type frameEdits struct {
	frame    *graphicsstate.Frame
	edits    map[int][]contentstream.Operation
	xobjects map[string]core.Object // XObjects added to the frame's resources
}

// planner is the walker handler deciding what to change. Nothing is
// written to the document until commit.
type planner struct {
	doc    *document.Document
	marks  []model.Mark
	policy Policy
	stats  *ApplyStats
	frames map[*graphicsstate.Frame]*frameEdits
}

func newPlanner(doc *document.Document, marks []model.Mark, policy Policy, stats *ApplyStats) *planner {
	return &planner{
		doc:    doc,
		marks:  marks,
		policy: policy,
		stats:  stats,
		frames: make(map[*graphicsstate.Frame]*frameEdits),
	}
}

func (p *planner) edits(f *graphicsstate.Frame) *frameEdits {
	fe, ok := p.frames[f]
	if !ok {
		fe = &frameEdits{frame: f, edits: make(map[int][]contentstream.Operation)}
		p.frames[f] = fe
	}
	return fe
}

// touches reports whether bbox shares at least a point with a mark
func (p *planner) touches(bbox model.BBox) bool {
	for _, m := range p.marks {
		if m.Rect.Intersects(bbox) {
			return true
		}
	}
	return false
}

func (p *planner) overlapping(bbox model.BBox) []model.Mark {
	var hits []model.Mark
	for _, m := range p.marks {
		if m.Rect.Overlaps(bbox) {
			hits = append(hits, m)
		}
	}
	return hits
}

func (p *planner) ShowText(f *graphicsstate.Frame, i int, ts *graphicsstate.TextShow) {
	ops, changed := rewriteText(f.Ops[i], ts, p.touches)
	if !changed {
		return
	}
	p.edits(f).edits[i] = ops
	p.stats.TextRemoved++
}

func (p *planner) PaintImage(f *graphicsstate.Frame, i int, img *graphicsstate.ImagePaint) {
	if p.policy.Images == ImagesNone {
		return
	}
	hits := p.overlapping(img.BBox)
	if len(hits) == 0 {
		return
	}

	switch p.policy.Images {
	case ImagesRemoveOverlapping:
		p.edits(f).edits[i] = nil
		p.stats.ImagesRemoved++
	case ImagesBlankPixels:
		if img.Stream == nil || img.Name == "" {
			return
		}
		blanked, ok := blankImage(p.doc, img, hits)
		if !ok {
			return
		}
		fe := p.edits(f)
		name := fe.addXObject(p.doc, img.Name, p.doc.AddObject(blanked))
		fe.edits[i] = []contentstream.Operation{{Operator: "Do", Operands: []core.Object{core.Name(name)}}}
		p.stats.ImagesBlanked++
	}
}

func (p *planner) PaintPath(f *graphicsstate.Frame, i int, pp *graphicsstate.PathPaint) {
	if p.policy.Graphics != GraphicsRemoveContained || pp.Unbounded {
		return
	}
	for _, m := range p.marks {
		if !m.Rect.ContainsBBox(pp.BBox) {
			continue
		}
		if pp.Shading {
			p.edits(f).edits[i] = nil
		} else {
			// end the path without painting it; a pending clip still applies
			p.edits(f).edits[i] = []contentstream.Operation{{Operator: "n"}}
		}
		p.stats.PathsRemoved++
		return
	}
}

// commit writes copies of every changed form, deepest first, and returns
// the rewritten page operations together with the page resources to use.
// Both are nil when the page content is unchanged.
func (p *planner) commit(root *graphicsstate.Frame) ([]contentstream.Operation, core.Dict, error) {
	for f, fe := range p.frames {
		if len(fe.edits) == 0 && len(fe.xobjects) == 0 {
			continue
		}
		for parent := f.Parent; parent != nil; parent = parent.Parent {
			p.edits(parent)
		}
	}

	pending := make([]*frameEdits, 0, len(p.frames))
	for _, fe := range p.frames {
		pending = append(pending, fe)
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].frame.Depth > pending[j].frame.Depth })

	for _, fe := range pending {
		f := fe.frame
		if f.Form == nil || (len(fe.edits) == 0 && len(fe.xobjects) == 0) {
			continue
		}
		stream, err := fe.copyForm(p.doc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to copy form %s: %w", f.Form.Name, err)
		}
		parent := p.edits(f.Parent)
		name := parent.addXObject(p.doc, f.Form.Name, p.doc.AddObject(stream))
		parent.edits[f.ParentOp] = []contentstream.Operation{{Operator: "Do", Operands: []core.Object{core.Name(name)}}}
		p.stats.FormsCopied++
	}

	fe, ok := p.frames[root]
	if !ok || (len(fe.edits) == 0 && len(fe.xobjects) == 0) {
		return nil, nil, nil
	}
	var resources core.Dict
	if len(fe.xobjects) > 0 {
		resources = fe.mergedResources(p.doc)
	}
	return fe.apply(), resources, nil
}

// apply returns the frame's operations with the replacements spliced in
func (fe *frameEdits) apply() []contentstream.Operation {
	out := make([]contentstream.Operation, 0, len(fe.frame.Ops))
	for i, op := range fe.frame.Ops {
		if repl, ok := fe.edits[i]; ok {
			out = append(out, repl...)
			continue
		}
		out = append(out, op)
	}
	return out
}

// addXObject registers ref under a fresh name derived from base
func (fe *frameEdits) addXObject(r core.Resolver, base string, ref core.IndirectRef) string {
	existing, _ := core.ResolveDict(r, fe.frame.Resources.Get("XObject"))
	if fe.xobjects == nil {
		fe.xobjects = make(map[string]core.Object)
	}
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s_r%d", base, n)
		if existing.Has(name) {
			continue
		}
		if _, taken := fe.xobjects[name]; taken {
			continue
		}
		fe.xobjects[name] = ref
		return name
	}
}

// mergedResources returns a copy of the frame's resources including the
// added XObjects. The original dictionaries are not modified, so pages
// and forms sharing them are unaffected.
func (fe *frameEdits) mergedResources(r core.Resolver) core.Dict {
	res := fe.frame.Resources.Clone()
	xobjects := core.Dict{}
	if existing, ok := core.ResolveDict(r, res.Get("XObject")); ok {
		xobjects = existing.Clone()
	}
	for name, ref := range fe.xobjects {
		xobjects[name] = ref
	}
	res["XObject"] = xobjects
	return res
}

// copyForm builds a new form XObject running the rewritten operations
func (fe *frameEdits) copyForm(r core.Resolver) (*core.Stream, error) {
	dict := fe.frame.Form.Stream.Dict.Clone()
	if len(fe.xobjects) > 0 {
		dict["Resources"] = fe.mergedResources(r)
	}
	return core.NewStream(dict, contentstream.Write(fe.apply()), false)
}
