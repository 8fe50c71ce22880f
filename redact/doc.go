// Package redact removes page content lying under rectangular marks.
//
// Marks are queued on a [Page] and consumed by [Page.Apply]:
//
//	rp := redact.NewPage(doc, page)
//	rp.AddMark(model.Mark{Rect: block.BBox})
//	stats, err := rp.Apply(ctx, redact.Policy{Images: redact.ImagesNone})
//
// Apply interprets the page content and rewrites every text-showing
// operation whose glyph runs touch a mark. Removed strings are replaced by
// TJ displacements of the same width, so the remaining glyphs keep their
// positions. The ' and " operators keep their line and spacing effects.
//
// Images and vector graphics follow the [Policy]. Form XObjects that need
// changes are copied to new objects and only the redacted page is pointed
// at the copies, leaving other pages that share the form intact.
//
// The rewritten content is stored as a single new stream object. The old
// streams stay in the document until the writer drops unreferenced
// objects.
package redact
