package text

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/font"
	"github.com/tsawler/textstrip/graphicsstate"
	"github.com/tsawler/textstrip/model"
)

// Fragment is a piece of shown text with its page-space extent. One
// fragment is produced per glyph run, even when the run's codes do not
// decode to any Unicode text.
type Fragment struct {
	Text      string
	BBox      model.BBox
	FontName  string
	FontSize  float64 // effective size in page space
	Direction Direction
	Vertical  bool

	// SpaceWidth is the width of a space in the fragment's font, in page units
	SpaceWidth float64
}

// Extractor collects text fragments from walker events. It implements
// graphicsstate.Handler; image and path events are ignored.
type Extractor struct {
	fragments []Fragment
}

// NewExtractor creates a new text extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ShowText records one fragment per run that shows at least one code
func (e *Extractor) ShowText(_ *graphicsstate.Frame, _ int, ts *graphicsstate.TextShow) {
	space := spaceWidth(ts)
	for _, run := range ts.Runs {
		if run.Codes == 0 {
			continue
		}
		e.fragments = append(e.fragments, Fragment{
			Text:       run.Text,
			BBox:       run.BBox,
			FontName:   ts.FontName,
			FontSize:   ts.EffectiveSize,
			Direction:  DetectDirection(run.Text),
			Vertical:   ts.Vertical,
			SpaceWidth: space,
		})
	}
}

// PaintImage is a no-op
func (e *Extractor) PaintImage(*graphicsstate.Frame, int, *graphicsstate.ImagePaint) {}

// PaintPath is a no-op
func (e *Extractor) PaintPath(*graphicsstate.Frame, int, *graphicsstate.PathPaint) {}

// Fragments returns the fragments collected so far, in content order
func (e *Extractor) Fragments() []Fragment {
	return e.fragments
}

// Reset discards collected fragments
func (e *Extractor) Reset() {
	e.fragments = e.fragments[:0]
}

// Extract walks a content stream and returns its text fragments
func Extract(content []byte, resources core.Dict, r core.Resolver) ([]Fragment, error) {
	e := NewExtractor()
	if err := graphicsstate.NewWalker(r).WalkContent(content, resources, e); err != nil {
		return nil, err
	}
	return e.Fragments(), nil
}

func spaceWidth(ts *graphicsstate.TextShow) float64 {
	if ts.Font != nil && !ts.Font.Composite() {
		if w := ts.Font.Width(font.Code{Value: ' ', Len: 1}); w > 0 {
			return w * ts.EffectiveSize * ts.Scale
		}
	}
	// 25% of the font size is a reasonable estimate for proportional fonts
	return ts.EffectiveSize * 0.25
}

// Join assembles the text of fragments that belong to one line, inserting
// a space where the gap between neighbours is at least half a space wide.
// RTL lines are assembled right to left.
func Join(line []Fragment) string {
	if len(line) == 0 {
		return ""
	}

	ordered := make([]Fragment, len(line))
	copy(ordered, line)
	rtl := lineDirection(ordered) == RTL
	sort.SliceStable(ordered, func(i, j int) bool {
		if rtl {
			return ordered[i].BBox.Right() > ordered[j].BBox.Right()
		}
		return ordered[i].BBox.Left() < ordered[j].BBox.Left()
	})

	var sb strings.Builder
	for i, frag := range ordered {
		sb.WriteString(frag.Text)
		if i == len(ordered)-1 {
			break
		}
		next := ordered[i+1]
		gap := next.BBox.Left() - frag.BBox.Right()
		if rtl {
			gap = frag.BBox.Left() - next.BBox.Right()
		}
		if shouldInsertSpace(frag, next, gap) {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

func shouldInsertSpace(frag, next Fragment, gap float64) bool {
	if strings.HasSuffix(frag.Text, " ") || strings.HasPrefix(next.Text, " ") {
		return false
	}
	if gap < 0 || gap < frag.FontSize*0.05 {
		return false
	}
	return gap >= math.Max(frag.SpaceWidth, 0)*0.5
}

func lineDirection(line []Fragment) Direction {
	var ltr, rtl int
	for _, f := range line {
		switch f.Direction {
		case LTR:
			ltr++
		case RTL:
			rtl++
		}
	}
	if rtl > ltr {
		return RTL
	}
	return LTR
}
