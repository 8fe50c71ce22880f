// Package font provides the font metrics and character decoding needed to
// place text on a page.
//
// A [Font] is loaded from a font dictionary with [Load], which never fails:
// missing entries fall back to the standard 14 metrics or to defaults.
//
//	f := font.Load(fontDict, resolver)
//	for _, c := range f.Codes(shown) {
//		w0 := f.Width(c) // text space units per unit font size
//	}
//	text := f.Decode(shown)
//
// # Widths
//
// Simple fonts take widths from /FirstChar and /Widths, falling back to
// built-in tables for the standard 14 fonts and then to /MissingWidth.
// Composite (Type0) fonts use the descendant's /W array and /DW. Type3
// widths are scaled by the font matrix.
//
// # Decoding
//
// Codes map to Unicode through the ToUnicode [CMap] when present, else
// through the simple font's [Encoding] (WinAnsi, MacRoman or Standard,
// with /Differences applied). Decoded text is normalized to NFC.
package font
