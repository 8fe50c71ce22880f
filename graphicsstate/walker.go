package graphicsstate

import (
	"fmt"
	"math"

	"github.com/tsawler/textstrip/contentstream"
	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/font"
	"github.com/tsawler/textstrip/model"
)

// DefaultMaxDepth bounds form XObject nesting
const DefaultMaxDepth = 32

// FormInfo identifies the form XObject a frame executes
type FormInfo struct {
	// Name is the XObject resource name used by the invoking Do
	Name   string
	Ref    core.IndirectRef
	Stream *core.Stream
}

// Frame is one content stream being interpreted: the page content, or a
// form XObject invoked from its parent frame.
type Frame struct {
	Ops       []contentstream.Operation
	Resources core.Dict
	// Form is nil for page content
	Form *FormInfo
	// Parent and ParentOp locate the Do that invoked this frame
	Parent   *Frame
	ParentOp int
	Depth    int
}

// TextRun is the geometry of one shown string: the operand of Tj, ' and
// ", or one string element of a TJ array.
type TextRun struct {
	// Element is the index of the string within the TJ array, 0 otherwise
	Element int
	Raw     []byte
	Text    string
	// Codes is the number of character codes in Raw
	Codes int
	// BBox is the run's extent in page space
	BBox model.BBox
	// Advance is the displacement the run applies to the text matrix along
	// the writing direction, in text space
	Advance float64
}

// TextShow is emitted for every text showing operator
type TextShow struct {
	Runs          []TextRun
	FontName      string
	Font          *font.Font
	FontSize      float64
	// EffectiveSize is the font size as rendered in page space
	EffectiveSize float64
	Scale         float64 // horizontal scaling factor, Tz/100
	RenderingMode int
	Vertical      bool
}

// ImagePaint is emitted for Do on an image XObject and for inline images
type ImagePaint struct {
	// Name is the XObject resource name; empty for inline images
	Name   string
	Ref    core.IndirectRef
	Stream *core.Stream
	Inline *contentstream.InlineImage
	// BBox is the unit square mapped through the CTM
	BBox model.BBox
	CTM  model.Matrix
}

// PathPaint is emitted for path painting operators and sh
type PathPaint struct {
	Operator string
	BBox     model.BBox
	Shading  bool
	// Unbounded is set for shadings without a /BBox; they cover the
	// clipping region
	Unbounded bool
}

// Handler receives drawing events. i is the index of the operation in
// f.Ops.
type Handler interface {
	ShowText(f *Frame, i int, ts *TextShow)
	PaintImage(f *Frame, i int, img *ImagePaint)
	PaintPath(f *Frame, i int, p *PathPaint)
}

// Walker interprets content streams with a graphics state and reports
// what each operation draws. Form XObjects are entered recursively.
type Walker struct {
	resolver core.Resolver
	MaxDepth int

	fonts map[core.IndirectRef]*font.Font
}

// NewWalker creates a walker resolving references through r
func NewWalker(r core.Resolver) *Walker {
	return &Walker{
		resolver: r,
		MaxDepth: DefaultMaxDepth,
		fonts:    make(map[core.IndirectRef]*font.Font),
	}
}

// WalkContent parses page content and walks it
func (w *Walker) WalkContent(data []byte, resources core.Dict, h Handler) error {
	ops, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return fmt.Errorf("parse content: %w", err)
	}
	return w.Walk(&Frame{Ops: ops, Resources: resources}, h)
}

// Walk interprets a frame starting from the identity CTM
func (w *Walker) Walk(f *Frame, h Handler) error {
	return w.walk(f, NewGraphicsState(), h, map[core.IndirectRef]bool{})
}

type walkState struct {
	w      *Walker
	f      *Frame
	gs     *GraphicsState
	h      Handler
	path   *Path
	active map[core.IndirectRef]bool
}

func (w *Walker) walk(f *Frame, gs *GraphicsState, h Handler, active map[core.IndirectRef]bool) error {
	s := &walkState{w: w, f: f, gs: gs, h: h, path: NewPath(), active: active}
	base := gs.Depth()
	for i := range f.Ops {
		if err := s.do(i); err != nil {
			return err
		}
	}
	// unbalanced q inside a stream must not leak into the caller
	for gs.Depth() > base {
		gs.Restore()
	}
	return nil
}

func (s *walkState) do(i int) error {
	op := s.f.Ops[i]
	gs := s.gs
	args, _ := numbers(op.Operands)

	switch op.Operator {
	case "q":
		gs.Save()
	case "Q":
		// stray Q: ignored, as viewers do
		gs.Restore()
	case "cm":
		if len(args) == 6 {
			gs.Transform(model.Matrix{args[0], args[1], args[2], args[3], args[4], args[5]})
		}
	case "w":
		if len(args) == 1 {
			gs.LineWidth = args[0]
		}

	case "BT":
		gs.BeginText()
	case "ET":
	case "Tf":
		if len(op.Operands) == 2 {
			name, _ := op.Operands[0].(core.Name)
			size, _ := core.Number(op.Operands[1])
			gs.SetFont(string(name), s.loadFont(string(name)), size)
		}
	case "Tc":
		if len(args) == 1 {
			gs.Text.CharSpacing = args[0]
		}
	case "Tw":
		if len(args) == 1 {
			gs.Text.WordSpacing = args[0]
		}
	case "Tz":
		if len(args) == 1 {
			gs.Text.HorizontalScaling = args[0]
		}
	case "TL":
		if len(args) == 1 {
			gs.Text.Leading = args[0]
		}
	case "Tr":
		if len(args) == 1 {
			gs.Text.RenderingMode = int(args[0])
		}
	case "Ts":
		if len(args) == 1 {
			gs.Text.Rise = args[0]
		}
	case "Td":
		if len(args) == 2 {
			gs.TranslateText(args[0], args[1])
		}
	case "TD":
		if len(args) == 2 {
			gs.TranslateTextSetLeading(args[0], args[1])
		}
	case "Tm":
		if len(args) == 6 {
			gs.SetTextMatrix(model.Matrix{args[0], args[1], args[2], args[3], args[4], args[5]})
		}
	case "T*":
		gs.NextLine()

	case "Tj":
		if len(op.Operands) >= 1 {
			s.showText(i, op.Operands[:1])
		}
	case "'":
		if len(op.Operands) >= 1 {
			gs.NextLine()
			s.showText(i, op.Operands[len(op.Operands)-1:])
		}
	case "\"":
		if len(op.Operands) == 3 {
			aw, _ := core.Number(op.Operands[0])
			ac, _ := core.Number(op.Operands[1])
			gs.Text.WordSpacing = aw
			gs.Text.CharSpacing = ac
			gs.NextLine()
			s.showText(i, op.Operands[2:])
		}
	case "TJ":
		if len(op.Operands) >= 1 {
			if arr, ok := op.Operands[0].(core.Array); ok {
				s.showText(i, arr)
			}
		}

	case "m", "l", "c", "v", "y", "re", "h":
		s.construct(op.Operator, args)
	case "S", "s", "f", "F", "f*", "B", "B*", "b", "b*":
		if !s.path.IsEmpty() {
			width := 0.0
			if op.Operator != "f" && op.Operator != "F" && op.Operator != "f*" {
				width = gs.LineWidth * math.Sqrt(math.Abs(gs.CTM.Determinant()))
			}
			s.h.PaintPath(s.f, i, &PathPaint{Operator: op.Operator, BBox: s.path.BBox(width)})
		}
		s.path.Clear()
	case "n":
		s.path.Clear()
	case "sh":
		s.shading(i, op)

	case "BI":
		if op.Inline != nil {
			s.h.PaintImage(s.f, i, &ImagePaint{
				Inline: op.Inline,
				BBox:   gs.CTM.TransformBBox(unitSquare),
				CTM:    gs.CTM,
			})
		}
	case "Do":
		if len(op.Operands) == 1 {
			if name, ok := op.Operands[0].(core.Name); ok {
				return s.xobject(i, string(name))
			}
		}
	}
	return nil
}

var unitSquare = model.NewBBox(0, 0, 1, 1)

func (s *walkState) construct(operator string, a []float64) {
	p := s.path
	p.SetCTM(s.gs.CTM)
	switch {
	case operator == "m" && len(a) == 2:
		p.MoveTo(a[0], a[1])
	case operator == "l" && len(a) == 2:
		p.LineTo(a[0], a[1])
	case operator == "c" && len(a) == 6:
		p.CurveTo(a[0], a[1], a[2], a[3], a[4], a[5])
	case operator == "v" && len(a) == 4:
		p.CurveToV(a[0], a[1], a[2], a[3])
	case operator == "y" && len(a) == 4:
		p.CurveToY(a[0], a[1], a[2], a[3])
	case operator == "re" && len(a) == 4:
		p.Rectangle(a[0], a[1], a[2], a[3])
	case operator == "h":
		p.ClosePath()
	}
}

func (s *walkState) showText(i int, elements []core.Object) {
	gs := s.gs
	f := gs.Text.Font
	if f == nil {
		// text shown before any Tf; measure with the default font
		f = font.Load(nil, nil)
	}
	ts := &TextShow{
		FontName:      gs.Text.FontName,
		Font:          f,
		FontSize:      gs.Text.FontSize,
		EffectiveSize: gs.GetEffectiveFontSize(),
		Scale:         gs.Scale(),
		RenderingMode: gs.Text.RenderingMode,
		Vertical:      f.Vertical(),
	}

	tfs, th := gs.Text.FontSize, gs.Scale()
	for idx, el := range elements {
		switch v := el.(type) {
		case core.String:
			ts.Runs = append(ts.Runs, s.run(idx, []byte(v), f))
		case core.Int, core.Real:
			n, _ := core.Number(v)
			if ts.Vertical {
				gs.Advance(0, -n/1000*tfs)
			} else {
				gs.Advance(-n/1000*tfs*th, 0)
			}
		}
	}
	s.h.ShowText(s.f, i, ts)
}

// run measures one string and advances the text matrix past it
func (s *walkState) run(idx int, raw []byte, f *font.Font) TextRun {
	gs := s.gs
	t := gs.Text
	tfs, th := t.FontSize, gs.Scale()
	codes := f.Codes(raw)

	var box model.BBox
	advance := 0.0
	if f.Vertical() {
		maxW := 0.0
		for _, c := range codes {
			ty := -tfs + t.CharSpacing
			if f.IsSpace(c) {
				ty += t.WordSpacing
			}
			advance += ty
			maxW = math.Max(maxW, f.Width(c)*tfs)
		}
		box = model.NewBBoxFromEdges(-maxW/2, advance, maxW/2, 0)
		box = gs.TextToPage().TransformBBox(box)
		gs.Advance(0, advance)
	} else {
		for _, c := range codes {
			tx := f.Width(c)*tfs + t.CharSpacing
			if f.IsSpace(c) {
				tx += t.WordSpacing
			}
			advance += tx * th
		}
		box = model.NewBBoxFromEdges(0, t.Rise+f.Descent()*tfs, advance, t.Rise+f.Ascent()*tfs)
		box = gs.TextToPage().TransformBBox(box)
		gs.Advance(advance, 0)
	}

	return TextRun{
		Element: idx,
		Raw:     raw,
		Text:    f.Decode(raw),
		Codes:   len(codes),
		BBox:    box,
		Advance: advance,
	}
}

func (s *walkState) shading(i int, op contentstream.Operation) {
	paint := &PathPaint{Operator: "sh", Shading: true, Unbounded: true}
	if len(op.Operands) == 1 {
		name, _ := op.Operands[0].(core.Name)
		if sh, ok := s.resource("Shading", string(name)); ok {
			if bbox, ok := s.w.resolve(sh.Get("BBox")).(core.Array); ok {
				if v, ok := bbox.Numbers(); ok && len(v) == 4 {
					paint.BBox = s.gs.CTM.TransformBBox(model.NewBBoxFromEdges(v[0], v[1], v[2], v[3]))
					paint.Unbounded = false
				}
			}
		}
	}
	s.h.PaintPath(s.f, i, paint)
}

func (s *walkState) xobject(i int, name string) error {
	xobjects, ok := core.ResolveDict(s.w.resolver, s.f.Resources.Get("XObject"))
	if !ok {
		return nil
	}
	entry := xobjects.Get(name)
	ref, _ := entry.(core.IndirectRef)
	stream, ok := s.w.resolve(entry).(*core.Stream)
	if !ok {
		return nil
	}

	switch subtype, _ := stream.Dict.GetName("Subtype"); subtype {
	case "Image":
		s.h.PaintImage(s.f, i, &ImagePaint{
			Name:   name,
			Ref:    ref,
			Stream: stream,
			BBox:   s.gs.CTM.TransformBBox(unitSquare),
			CTM:    s.gs.CTM,
		})
	case "Form":
		return s.form(i, name, ref, stream)
	}
	return nil
}

func (s *walkState) form(i int, name string, ref core.IndirectRef, stream *core.Stream) error {
	if s.f.Depth+1 > s.w.MaxDepth {
		return nil
	}
	if !ref.IsZero() {
		if s.active[ref] {
			// self-referencing form
			return nil
		}
		s.active[ref] = true
		defer delete(s.active, ref)
	}

	data, err := stream.DecodeWith(s.w.resolver)
	if err != nil {
		return fmt.Errorf("form %s: %w", name, err)
	}
	ops, err := contentstream.NewParser(data).Parse()
	if err != nil {
		return fmt.Errorf("form %s: %w", name, err)
	}

	resources, ok := core.ResolveDict(s.w.resolver, stream.Dict.Get("Resources"))
	if !ok {
		resources = s.f.Resources
	}
	child := &Frame{
		Ops:       ops,
		Resources: resources,
		Form:      &FormInfo{Name: name, Ref: ref, Stream: stream},
		Parent:    s.f,
		ParentOp:  i,
		Depth:     s.f.Depth + 1,
	}

	gs := s.gs
	gs.Save()
	defer gs.Restore()
	if m, ok := s.w.resolve(stream.Dict.Get("Matrix")).(core.Array); ok {
		if v, ok := m.Numbers(); ok && len(v) == 6 {
			gs.Transform(model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]})
		}
	}
	return s.w.walk(child, gs, s.h, s.active)
}

// loadFont loads the named font of the current resources, cached by reference
func (s *walkState) loadFont(name string) *font.Font {
	fonts, ok := core.ResolveDict(s.w.resolver, s.f.Resources.Get("Font"))
	if !ok {
		return nil
	}
	entry := fonts.Get(name)
	ref, isRef := entry.(core.IndirectRef)
	if isRef {
		if f, ok := s.w.fonts[ref]; ok {
			return f
		}
	}
	dict, ok := core.ResolveDict(s.w.resolver, entry)
	if !ok {
		return nil
	}
	f := font.Load(dict, s.w.resolver)
	if isRef {
		s.w.fonts[ref] = f
	}
	return f
}

func (s *walkState) resource(category, name string) (core.Dict, bool) {
	res, ok := core.ResolveDict(s.w.resolver, s.f.Resources.Get(category))
	if !ok {
		return nil, false
	}
	return core.ResolveDict(s.w.resolver, res.Get(name))
}

func (w *Walker) resolve(obj core.Object) core.Object {
	if w.resolver == nil {
		return obj
	}
	return w.resolver.Resolve(obj)
}

// numbers converts numeric operands; ok is false if any operand is not a
// number
func numbers(operands []core.Object) ([]float64, bool) {
	out := make([]float64, 0, len(operands))
	for _, o := range operands {
		n, ok := core.Number(o)
		if !ok {
			return out, false
		}
		out = append(out, n)
	}
	return out, true
}
