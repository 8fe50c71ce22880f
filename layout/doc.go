// Package layout groups positioned text fragments into text blocks.
//
// The [BlockDetector] sorts fragments into lines by their vertical
// position, splits lines at column-sized horizontal gaps, and stacks lines
// into blocks while the vertical gap stays below a multiple of the line
// height and consecutive lines overlap horizontally:
//
//	blocks := layout.NewBlockDetector().Detect(fragments)
//
// No fragment is ever discarded. Each fragment belongs to exactly one
// [Block], and a block's BBox is the union of its fragments' boxes, so the
// blocks together cover every glyph that was shown.
package layout
