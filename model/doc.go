// Package model defines the geometry and result types shared by the
// extraction and redaction packages.
//
// [BBox] and [Matrix] describe positions in PDF user space: points, origin
// at the bottom-left, y growing upwards. Matrices use the PDF row-vector
// convention, so m.Multiply(n) applies m first and n second.
//
// A [Block] is a classified region of a page (text, image or other
// graphics) and a [Mark] is a request to remove whatever lies inside a
// rectangle, optionally painting it with a [Color] afterwards.
package model
