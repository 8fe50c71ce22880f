package graphicsstate

import (
	"math"

	"github.com/tsawler/textstrip/model"
)

// Path accumulates the current path in page space. Points are transformed
// by the CTM in effect when they are added, as PDF path construction does.
// Only the extent is kept: the bounding box of all points, control points
// included, which always encloses the painted curve.
type Path struct {
	ctm model.Matrix

	// CurrentPoint is the current point in user space
	CurrentPoint model.Point

	// SubpathStart is the start of the current subpath (for closepath)
	SubpathStart model.Point

	// HasCurrentPoint indicates if a current point has been set
	HasCurrentPoint bool

	minX, minY, maxX, maxY float64
	points                 int
}

// NewPath creates a new empty path
func NewPath() *Path {
	return &Path{ctm: model.Identity()}
}

// SetCTM sets the matrix applied to subsequently added points
func (p *Path) SetCTM(m model.Matrix) {
	p.ctm = m
}

func (p *Path) add(x, y float64) {
	pt := p.ctm.Transform(model.Point{X: x, Y: y})
	if p.points == 0 {
		p.minX, p.maxX, p.minY, p.maxY = pt.X, pt.X, pt.Y, pt.Y
	} else {
		p.minX = math.Min(p.minX, pt.X)
		p.maxX = math.Max(p.maxX, pt.X)
		p.minY = math.Min(p.minY, pt.Y)
		p.maxY = math.Max(p.maxY, pt.Y)
	}
	p.points++
}

// MoveTo starts a new subpath at the specified point (m operator)
func (p *Path) MoveTo(x, y float64) {
	p.add(x, y)
	p.CurrentPoint = model.Point{X: x, Y: y}
	p.SubpathStart = p.CurrentPoint
	p.HasCurrentPoint = true
}

// LineTo appends a line segment from current point to (x, y) (l operator)
func (p *Path) LineTo(x, y float64) {
	if !p.HasCurrentPoint {
		// Treat as moveto if no current point
		p.MoveTo(x, y)
		return
	}
	p.add(x, y)
	p.CurrentPoint = model.Point{X: x, Y: y}
}

// CurveTo appends a cubic Bézier curve (c operator)
// Control points (x1, y1) and (x2, y2), end point (x3, y3)
func (p *Path) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	if !p.HasCurrentPoint {
		p.MoveTo(x1, y1)
	}
	p.add(x1, y1)
	p.add(x2, y2)
	p.add(x3, y3)
	p.CurrentPoint = model.Point{X: x3, Y: y3}
}

// CurveToV appends a cubic Bézier curve with first control point = current point (v operator)
func (p *Path) CurveToV(x2, y2, x3, y3 float64) {
	if !p.HasCurrentPoint {
		return
	}
	p.CurveTo(p.CurrentPoint.X, p.CurrentPoint.Y, x2, y2, x3, y3)
}

// CurveToY appends a cubic Bézier curve with second control point = end point (y operator)
func (p *Path) CurveToY(x1, y1, x3, y3 float64) {
	if !p.HasCurrentPoint {
		return
	}
	p.CurveTo(x1, y1, x3, y3, x3, y3)
}

// ClosePath closes the current subpath (h operator)
func (p *Path) ClosePath() {
	if p.HasCurrentPoint {
		p.CurrentPoint = p.SubpathStart
	}
}

// Rectangle appends a rectangle as a complete subpath (re operator)
func (p *Path) Rectangle(x, y, width, height float64) {
	p.MoveTo(x, y)
	p.LineTo(x+width, y)
	p.LineTo(x+width, y+height)
	p.LineTo(x, y+height)
	p.ClosePath()
}

// Clear resets the path
func (p *Path) Clear() {
	p.points = 0
	p.HasCurrentPoint = false
}

// IsEmpty returns true if the path has no points
func (p *Path) IsEmpty() bool {
	return p.points == 0
}

// BBox returns the page-space extent of the path, grown by half the stroke
// width when the path is stroked
func (p *Path) BBox(strokeWidth float64) model.BBox {
	b := model.NewBBoxFromEdges(p.minX, p.minY, p.maxX, p.maxY)
	if strokeWidth > 0 {
		b = b.Expand(strokeWidth / 2)
	}
	return b
}
