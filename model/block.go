package model

import "fmt"

// BlockKind classifies a region of page content
type BlockKind int

const (
	BlockText BlockKind = iota
	BlockImage
	BlockOther
)

func (k BlockKind) String() string {
	switch k {
	case BlockText:
		return "text"
	case BlockImage:
		return "image"
	case BlockOther:
		return "other"
	default:
		return fmt.Sprintf("BlockKind(%d)", int(k))
	}
}

// Block is a classified region of a page. BBox is in page user space
// (points, origin bottom-left, y up).
type Block struct {
	Kind BlockKind
	BBox BBox

	// Text holds the block's text, lines separated by newlines (text blocks)
	Text string
	// Lines is the number of text lines grouped into the block
	Lines int
	// Name is the XObject resource name, empty for inline images (image blocks)
	Name string
	// Width and Height are the image's pixel dimensions (image blocks)
	Width, Height int
	// Fingerprint is a hex SHA-256 of the image's stored stream bytes
	Fingerprint string
}

// Mark is a page-scoped request to remove content within Rect. Fill, when
// set, paints the rectangle after removal.
type Mark struct {
	Rect BBox
	Fill *Color
}

// Color is an RGB color with components in 0..1
type Color struct {
	R, G, B float64
}

// ParseColor reads "r,g,b" with components in 0..1, or a name among black,
// white, red, green, blue
func ParseColor(s string) (Color, error) {
	switch s {
	case "black":
		return Color{}, nil
	case "white":
		return Color{R: 1, G: 1, B: 1}, nil
	case "red":
		return Color{R: 1}, nil
	case "green":
		return Color{G: 1}, nil
	case "blue":
		return Color{B: 1}, nil
	}
	var c Color
	if _, err := fmt.Sscanf(s, "%g,%g,%g", &c.R, &c.G, &c.B); err != nil {
		return Color{}, fmt.Errorf("invalid color %q: want r,g,b or a color name", s)
	}
	for _, v := range []float64{c.R, c.G, c.B} {
		if v < 0 || v > 1 {
			return Color{}, fmt.Errorf("invalid color %q: components must be within 0..1", s)
		}
	}
	return c, nil
}
