// Package graphicsstate interprets PDF content streams.
//
// [GraphicsState] tracks the current transformation matrix, the text state
// and the q/Q stack. [Walker] runs a content stream through it and reports
// what each operation draws to a [Handler]:
//
//   - text showing operators (Tj, TJ, ', ") as a [TextShow] with the page
//     space bounding box of every shown string
//   - image XObjects and inline images as an [ImagePaint]
//   - painted paths and shadings as a [PathPaint]
//
// Form XObjects invoked with Do are walked recursively with their /Matrix
// and /Resources. Each content stream is a [Frame]; a form's frame points
// back at the Do operation that invoked it, so callers can rewrite forms
// individually.
//
// Example usage:
//
//	w := graphicsstate.NewWalker(doc)
//	err := w.WalkContent(content, page.Resources, handler)
//
// # Coordinates
//
// Matrices follow the PDF convention of row vectors: cm computes
// CTM' = M × CTM, and a glyph run's box is mapped by Tm × CTM. All boxes
// handed to a Handler are axis-aligned boxes in page space enclosing the
// transformed geometry, so rotated text and images are covered.
package graphicsstate
