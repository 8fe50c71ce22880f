// Package text turns text-showing operations into positioned fragments.
//
// The [Extractor] is a graphicsstate.Handler: feed it to a Walker and it
// records one [Fragment] per glyph run, carrying the run's page-space
// bounding box, its decoded text and its font size as rendered:
//
//	fragments, err := text.Extract(content, resources, doc)
//
// Runs whose codes have no Unicode mapping still yield a fragment with empty
// text, so every shown glyph is accounted for geometrically.
//
// # Text Direction
//
// [DetectDirection] classifies text as [LTR], [RTL] or [Neutral] from the
// Unicode scripts of its characters. [Join] uses it to assemble a line of
// fragments in reading order, inserting spaces at word-sized gaps.
package text
