package model

import (
	"math"
	"testing"
)

// ============================================================================
// Point Tests
// ============================================================================

func TestPointDistance(t *testing.T) {
	tests := []struct {
		name     string
		p1, p2   Point
		expected float64
	}{
		{"same point", Point{0, 0}, Point{0, 0}, 0},
		{"horizontal", Point{0, 0}, Point{3, 0}, 3},
		{"vertical", Point{0, 0}, Point{0, 4}, 4},
		{"diagonal 3-4-5", Point{0, 0}, Point{3, 4}, 5},
		{"negative coords", Point{-1, -1}, Point{2, 3}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.p1.Distance(tt.p2)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("Distance() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// ============================================================================
// BBox Tests
// ============================================================================

func TestNewBBox(t *testing.T) {
	bbox := NewBBox(10, 20, 100, 50)
	if bbox.X != 10 || bbox.Y != 20 || bbox.Width != 100 || bbox.Height != 50 {
		t.Errorf("NewBBox() = %+v, want {10, 20, 100, 50}", bbox)
	}
}

func TestNewBBoxFromPoints(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 Point
		want   BBox
	}{
		{"normal", Point{10, 20}, Point{50, 70}, BBox{10, 20, 40, 50}},
		{"reversed", Point{50, 70}, Point{10, 20}, BBox{10, 20, 40, 50}},
		{"same point", Point{10, 10}, Point{10, 10}, BBox{10, 10, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewBBoxFromPoints(tt.p1, tt.p2)
			if got != tt.want {
				t.Errorf("NewBBoxFromPoints() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBBoxEdges(t *testing.T) {
	bbox := NewBBox(10, 20, 100, 50)

	if bbox.Left() != 10 {
		t.Errorf("Left() = %v, want 10", bbox.Left())
	}
	if bbox.Right() != 110 {
		t.Errorf("Right() = %v, want 110", bbox.Right())
	}
	if bbox.Bottom() != 20 {
		t.Errorf("Bottom() = %v, want 20", bbox.Bottom())
	}
	if bbox.Top() != 70 {
		t.Errorf("Top() = %v, want 70", bbox.Top())
	}
}

func TestBBoxCenter(t *testing.T) {
	bbox := NewBBox(0, 0, 100, 50)
	center := bbox.Center()

	if center.X != 50 || center.Y != 25 {
		t.Errorf("Center() = %+v, want {50, 25}", center)
	}
}

func TestBBoxContains(t *testing.T) {
	bbox := NewBBox(0, 0, 100, 100)

	tests := []struct {
		name     string
		point    Point
		expected bool
	}{
		{"inside", Point{50, 50}, true},
		{"on left edge", Point{0, 50}, true},
		{"on right edge", Point{100, 50}, true},
		{"outside left", Point{-1, 50}, false},
		{"outside right", Point{101, 50}, false},
		{"outside top", Point{50, 101}, false},
		{"outside bottom", Point{50, -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := bbox.Contains(tt.point)
			if result != tt.expected {
				t.Errorf("Contains(%+v) = %v, want %v", tt.point, result, tt.expected)
			}
		})
	}
}

func TestBBoxIntersects(t *testing.T) {
	bbox := NewBBox(0, 0, 100, 100)

	tests := []struct {
		name     string
		other    BBox
		expected bool
	}{
		{"overlapping", NewBBox(50, 50, 100, 100), true},
		{"touching edge", NewBBox(100, 0, 50, 50), true},
		{"inside", NewBBox(25, 25, 50, 50), true},
		{"containing", NewBBox(-10, -10, 200, 200), true},
		{"no overlap right", NewBBox(150, 0, 50, 50), false},
		{"no overlap left", NewBBox(-100, 0, 50, 50), false},
		{"no overlap above", NewBBox(0, 150, 50, 50), false},
		{"no overlap below", NewBBox(0, -100, 50, 50), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := bbox.Intersects(tt.other)
			if result != tt.expected {
				t.Errorf("Intersects(%+v) = %v, want %v", tt.other, result, tt.expected)
			}
		})
	}
}

func TestBBoxIntersection(t *testing.T) {
	bbox := NewBBox(0, 0, 100, 100)

	t.Run("overlapping boxes", func(t *testing.T) {
		other := NewBBox(50, 50, 100, 100)
		result := bbox.Intersection(other)

		if result.X != 50 || result.Y != 50 || result.Width != 50 || result.Height != 50 {
			t.Errorf("Intersection() = %+v, want {50, 50, 50, 50}", result)
		}
	})

	t.Run("non-overlapping boxes", func(t *testing.T) {
		other := NewBBox(200, 200, 50, 50)
		result := bbox.Intersection(other)

		if result != (BBox{}) {
			t.Errorf("Intersection() = %+v, want empty BBox", result)
		}
	})
}

func TestBBoxUnion(t *testing.T) {
	bbox1 := NewBBox(0, 0, 50, 50)
	bbox2 := NewBBox(25, 25, 75, 75)

	result := bbox1.Union(bbox2)

	if result.X != 0 || result.Y != 0 || result.Width != 100 || result.Height != 100 {
		t.Errorf("Union() = %+v, want {0, 0, 100, 100}", result)
	}
}

func TestBBoxArea(t *testing.T) {
	bbox := NewBBox(0, 0, 10, 20)
	if bbox.Area() != 200 {
		t.Errorf("Area() = %v, want 200", bbox.Area())
	}
}

func TestBBoxExpand(t *testing.T) {
	bbox := NewBBox(10, 10, 50, 50)
	expanded := bbox.Expand(5)

	if expanded.X != 5 || expanded.Y != 5 || expanded.Width != 60 || expanded.Height != 60 {
		t.Errorf("Expand(5) = %+v, want {5, 5, 60, 60}", expanded)
	}
}

func TestBBoxOverlapRatio(t *testing.T) {
	bbox := NewBBox(0, 0, 100, 100)

	t.Run("complete overlap", func(t *testing.T) {
		other := NewBBox(0, 0, 100, 100)
		ratio := bbox.OverlapRatio(other)
		if ratio != 1.0 {
			t.Errorf("OverlapRatio() = %v, want 1.0", ratio)
		}
	})

	t.Run("half overlap", func(t *testing.T) {
		other := NewBBox(50, 0, 100, 100)
		ratio := bbox.OverlapRatio(other)
		if ratio != 0.5 {
			t.Errorf("OverlapRatio() = %v, want 0.5", ratio)
		}
	})

	t.Run("no overlap", func(t *testing.T) {
		other := NewBBox(200, 200, 50, 50)
		ratio := bbox.OverlapRatio(other)
		if ratio != 0 {
			t.Errorf("OverlapRatio() = %v, want 0", ratio)
		}
	})

	t.Run("zero area box", func(t *testing.T) {
		other := NewBBox(0, 0, 0, 0)
		ratio := bbox.OverlapRatio(other)
		if ratio != 0 {
			t.Errorf("OverlapRatio() = %v, want 0", ratio)
		}
	})
}

func TestBBoxIsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		bbox     BBox
		expected bool
	}{
		{"valid box", NewBBox(0, 0, 10, 10), false},
		{"zero width", NewBBox(0, 0, 0, 10), true},
		{"zero height", NewBBox(0, 0, 10, 0), true},
		{"negative width", NewBBox(0, 0, -10, 10), true},
		{"negative height", NewBBox(0, 0, 10, -10), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.bbox.IsEmpty() != tt.expected {
				t.Errorf("IsEmpty() = %v, want %v", tt.bbox.IsEmpty(), tt.expected)
			}
		})
	}
}

func TestBBoxIsValid(t *testing.T) {
	tests := []struct {
		name     string
		bbox     BBox
		expected bool
	}{
		{"valid box", NewBBox(0, 0, 10, 10), true},
		{"zero width", NewBBox(0, 0, 0, 10), false},
		{"zero height", NewBBox(0, 0, 10, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.bbox.IsValid() != tt.expected {
				t.Errorf("IsValid() = %v, want %v", tt.bbox.IsValid(), tt.expected)
			}
		})
	}
}

// ============================================================================
// Matrix Tests
// ============================================================================

func TestIdentity(t *testing.T) {
	m := Identity()
	expected := Matrix{1, 0, 0, 1, 0, 0}
	if m != expected {
		t.Errorf("Identity() = %v, want %v", m, expected)
	}
}

func TestMatrixTransform(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		m := Identity()
		p := Point{10, 20}
		result := m.Transform(p)
		if result != p {
			t.Errorf("Identity.Transform(%v) = %v, want %v", p, result, p)
		}
	})

	t.Run("translation", func(t *testing.T) {
		m := Translate(100, 50)
		p := Point{10, 20}
		result := m.Transform(p)
		expected := Point{110, 70}
		if result != expected {
			t.Errorf("Translate.Transform(%v) = %v, want %v", p, result, expected)
		}
	})

	t.Run("scale", func(t *testing.T) {
		m := Scale(2, 3)
		p := Point{10, 20}
		result := m.Transform(p)
		expected := Point{20, 60}
		if result != expected {
			t.Errorf("Scale.Transform(%v) = %v, want %v", p, result, expected)
		}
	})
}

func TestMatrixMultiply(t *testing.T) {
	// Test matrix multiplication
	// The Multiply method computes m * other
	// So translate.Multiply(scale) means apply translate first, then scale
	translate := Translate(10, 20)
	scale := Scale(2, 2)
	combined := translate.Multiply(scale)

	p := Point{5, 5}
	result := combined.Transform(p)

	// With translate.Multiply(scale):
	// First translate (5+10, 5+20) = (15, 25), then scale (15*2, 25*2) = (30, 50)
	expected := Point{30, 50}
	if result != expected {
		t.Errorf("Combined transform(%v) = %v, want %v", p, result, expected)
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(100, 200)
	expected := Matrix{1, 0, 0, 1, 100, 200}
	if m != expected {
		t.Errorf("Translate(100, 200) = %v, want %v", m, expected)
	}
}

func TestScale(t *testing.T) {
	m := Scale(2, 3)
	expected := Matrix{2, 0, 0, 3, 0, 0}
	if m != expected {
		t.Errorf("Scale(2, 3) = %v, want %v", m, expected)
	}
}

func TestRotate(t *testing.T) {
	// Rotate 90 degrees
	m := Rotate(math.Pi / 2)
	p := Point{1, 0}
	result := m.Transform(p)

	// After 90 degree rotation, (1,0) -> (0,1)
	if math.Abs(result.X) > 0.0001 || math.Abs(result.Y-1) > 0.0001 {
		t.Errorf("Rotate(Pi/2).Transform(1,0) = %v, want ~(0,1)", result)
	}
}

func TestMatrixIsIdentity(t *testing.T) {
	tests := []struct {
		name     string
		matrix   Matrix
		expected bool
	}{
		{"identity", Identity(), true},
		{"translated", Translate(1, 0), false},
		{"scaled", Scale(2, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.matrix.IsIdentity() != tt.expected {
				t.Errorf("IsIdentity() = %v, want %v", tt.matrix.IsIdentity(), tt.expected)
			}
		})
	}
}
