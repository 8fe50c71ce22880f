package graphicsstate

import (
	"math"
	"testing"

	"github.com/tsawler/textstrip/model"
)

// TestNewGraphicsState tests initial state
func TestNewGraphicsState(t *testing.T) {
	gs := NewGraphicsState()

	if gs.LineWidth != 1.0 {
		t.Errorf("expected line width 1.0, got %f", gs.LineWidth)
	}
	if gs.Text.HorizontalScaling != 100.0 {
		t.Errorf("expected horizontal scaling 100.0, got %f", gs.Text.HorizontalScaling)
	}
	if !gs.CTM.IsIdentity() {
		t.Error("expected CTM to be identity matrix")
	}
}

// TestSaveRestore tests q/Q operators
func TestSaveRestore(t *testing.T) {
	gs := NewGraphicsState()
	gs.LineWidth = 2.5
	gs.SetFont("F1", nil, 14)
	gs.Save()

	gs.LineWidth = 5
	gs.SetFont("F2", nil, 18)
	gs.Transform(model.Scale(2, 2))
	gs.SetTextMatrix(model.Translate(50, 60))

	if err := gs.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if gs.LineWidth != 2.5 || gs.Text.FontName != "F1" || gs.Text.FontSize != 14 {
		t.Errorf("state not restored: width %v font %s %v", gs.LineWidth, gs.Text.FontName, gs.Text.FontSize)
	}
	if !gs.CTM.IsIdentity() {
		t.Errorf("CTM not restored: %v", gs.CTM)
	}
	// the text matrix is not part of the saved state
	if gs.Text.TextMatrix[4] != 50 || gs.Text.TextMatrix[5] != 60 {
		t.Errorf("text matrix should survive Q, got %v", gs.Text.TextMatrix)
	}

	if err := gs.Restore(); err == nil {
		t.Error("expected underflow error")
	}
}

func TestTransformOrder(t *testing.T) {
	gs := NewGraphicsState()
	gs.Transform(model.Translate(10, 20))
	gs.Transform(model.Scale(2, 2))

	// the later cm applies first to user space coordinates
	p := gs.CTM.Transform(model.Point{X: 1, Y: 1})
	if p.X != 12 || p.Y != 22 {
		t.Errorf("got (%v, %v), want (12, 22)", p.X, p.Y)
	}
}

func TestTextPositioning(t *testing.T) {
	tests := []struct {
		name  string
		apply func(gs *GraphicsState)
		wantX float64
		wantY float64
	}{
		{"Td", func(gs *GraphicsState) { gs.TranslateText(100, 700) }, 100, 700},
		{"Td in scaled Tm", func(gs *GraphicsState) {
			gs.SetTextMatrix(model.Matrix{2, 0, 0, 2, 100, 100})
			gs.TranslateText(10, 5)
		}, 120, 110},
		{"TD sets leading", func(gs *GraphicsState) {
			gs.TranslateTextSetLeading(0, -14)
			gs.NextLine()
		}, 0, -28},
		{"advance", func(gs *GraphicsState) {
			gs.SetTextMatrix(model.Matrix{0, 1, -1, 0, 300, 300})
			gs.Advance(10, 0)
		}, 300, 310},
		{"rise", func(gs *GraphicsState) {
			gs.Text.Rise = 3
			gs.TranslateText(5, 5)
		}, 5, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := NewGraphicsState()
			gs.BeginText()
			tt.apply(gs)
			x, y := gs.GetTextPosition()
			if math.Abs(x-tt.wantX) > 1e-9 || math.Abs(y-tt.wantY) > 1e-9 {
				t.Errorf("position (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestEffectiveFontSize(t *testing.T) {
	gs := NewGraphicsState()
	gs.SetFont("F1", nil, 1)
	gs.SetTextMatrix(model.Matrix{12, 0, 0, 12, 0, 0})
	gs.Transform(model.Scale(2, 2))
	if got := gs.GetEffectiveFontSize(); math.Abs(got-24) > 1e-9 {
		t.Errorf("effective size %v, want 24", got)
	}
}
