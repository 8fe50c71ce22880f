package graphicsstate

import (
	"fmt"
	"math"

	"github.com/tsawler/textstrip/font"
	"github.com/tsawler/textstrip/model"
)

// GraphicsState represents the PDF graphics state
type GraphicsState struct {
	// Current Transformation Matrix, mapping user space to page space
	CTM model.Matrix

	// Text state
	Text TextState

	LineWidth float64

	// Graphics state stack (for q/Q operators)
	stack []savedState
}

type savedState struct {
	ctm       model.Matrix
	text      TextState
	lineWidth float64
}

// TextState represents text-specific state. The text and line matrices are
// not part of the saved graphics state but are reset by BT.
type TextState struct {
	// Font and size
	Font     *font.Font
	FontName string
	FontSize float64

	// Character and word spacing
	CharSpacing float64
	WordSpacing float64

	// Horizontal scaling (percentage)
	HorizontalScaling float64

	// Leading (line spacing)
	Leading float64

	// Text rendering mode
	RenderingMode int

	// Text rise
	Rise float64

	// Text matrices
	TextMatrix     model.Matrix
	TextLineMatrix model.Matrix
}

// NewGraphicsState creates a new graphics state with default values
func NewGraphicsState() *GraphicsState {
	return NewGraphicsStateWithCTM(model.Identity())
}

// NewGraphicsStateWithCTM creates a graphics state starting from ctm, as
// for the content of a form XObject
func NewGraphicsStateWithCTM(ctm model.Matrix) *GraphicsState {
	return &GraphicsState{
		CTM:       ctm,
		LineWidth: 1.0,
		Text: TextState{
			HorizontalScaling: 100.0,
			TextMatrix:        model.Identity(),
			TextLineMatrix:    model.Identity(),
		},
	}
}

// Depth returns the number of saved states
func (gs *GraphicsState) Depth() int {
	return len(gs.stack)
}

// Save pushes the current graphics state onto the stack (q operator)
func (gs *GraphicsState) Save() {
	gs.stack = append(gs.stack, savedState{ctm: gs.CTM, text: gs.Text, lineWidth: gs.LineWidth})
}

// Restore pops a graphics state from the stack (Q operator). The text
// matrices survive a restore.
func (gs *GraphicsState) Restore() error {
	if len(gs.stack) == 0 {
		return fmt.Errorf("graphics state stack underflow")
	}

	saved := gs.stack[len(gs.stack)-1]
	gs.stack = gs.stack[:len(gs.stack)-1]

	tm, tlm := gs.Text.TextMatrix, gs.Text.TextLineMatrix
	gs.CTM = saved.ctm
	gs.LineWidth = saved.lineWidth
	gs.Text = saved.text
	gs.Text.TextMatrix, gs.Text.TextLineMatrix = tm, tlm
	return nil
}

// Transform concatenates m onto the CTM (cm operator): CTM' = m × CTM
func (gs *GraphicsState) Transform(m model.Matrix) {
	gs.CTM = m.Multiply(gs.CTM)
}

// SetFont sets the current font (Tf operator)
func (gs *GraphicsState) SetFont(name string, f *font.Font, size float64) {
	gs.Text.FontName = name
	gs.Text.Font = f
	gs.Text.FontSize = size
}

// BeginText initializes text state (BT operator)
func (gs *GraphicsState) BeginText() {
	gs.Text.TextMatrix = model.Identity()
	gs.Text.TextLineMatrix = model.Identity()
}

// SetTextMatrix sets the text matrix (Tm operator)
func (gs *GraphicsState) SetTextMatrix(m model.Matrix) {
	gs.Text.TextMatrix = m
	gs.Text.TextLineMatrix = m
}

// TranslateText moves to the start of the next line offset by (tx, ty)
// (Td operator): Tlm' = T(tx, ty) × Tlm
func (gs *GraphicsState) TranslateText(tx, ty float64) {
	gs.Text.TextLineMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextLineMatrix)
	gs.Text.TextMatrix = gs.Text.TextLineMatrix
}

// TranslateTextSetLeading translates text and sets leading (TD operator)
func (gs *GraphicsState) TranslateTextSetLeading(tx, ty float64) {
	gs.Text.Leading = -ty
	gs.TranslateText(tx, ty)
}

// NextLine moves to next line (T* operator)
func (gs *GraphicsState) NextLine() {
	gs.TranslateText(0, -gs.Text.Leading)
}

// Scale returns the horizontal scaling as a factor (Tz/100)
func (gs *GraphicsState) Scale() float64 {
	return gs.Text.HorizontalScaling / 100
}

// Advance moves the text matrix by a displacement in text space
func (gs *GraphicsState) Advance(tx, ty float64) {
	gs.Text.TextMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextMatrix)
}

// TextToPage returns the matrix mapping unscaled text space (before font
// size and horizontal scaling) to page space: Tm × CTM
func (gs *GraphicsState) TextToPage() model.Matrix {
	return gs.Text.TextMatrix.Multiply(gs.CTM)
}

// GetTextPosition returns the current text origin in page space
func (gs *GraphicsState) GetTextPosition() (x, y float64) {
	p := gs.TextToPage().Transform(model.Point{X: 0, Y: gs.Text.Rise})
	return p.X, p.Y
}

// GetEffectiveFontSize returns the font size as rendered on the page,
// accounting for text matrix and CTM scaling
func (gs *GraphicsState) GetEffectiveFontSize() float64 {
	m := gs.TextToPage()
	// length of the transformed unit vertical vector
	return math.Abs(gs.Text.FontSize) * math.Hypot(m[2], m[3])
}
