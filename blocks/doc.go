// Package blocks describes what a page draws as a list of classified
// regions.
//
// [Extract] runs the content interpreter over a page. Shown text is
// turned into fragments and grouped by the layout package into Text
// blocks. Every image invocation, XObject or inline, becomes one Image
// block carrying a fingerprint of its samples. Every painted path or
// shading becomes one Other block.
//
// Since the block detector never drops a fragment, the union of the Text
// block rectangles covers every glyph the page shows.
package blocks
