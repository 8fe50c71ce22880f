package font

import (
	"strings"
	"unicode/utf8"

	"github.com/tsawler/textstrip/core"
)

// Code is one character code of a shown string together with its length
// in bytes (1 for simple fonts, usually 2 for composite fonts)
type Code struct {
	Value uint32
	Len   int
}

// Font holds what text geometry needs from a PDF font dictionary: how to
// split strings into codes, how wide each glyph is, and how to map codes
// to Unicode.
type Font struct {
	BaseFont string
	Subtype  string

	encoding  *Encoding
	toUnicode *CMap

	// Type0 only
	composite bool
	vertical  bool
	cmap      *CMap
	cidWidths map[uint32]float64

	firstChar    int
	widths       []float64
	missingWidth float64
	standard     *[95]float64

	// glyph units to text space; 1/1000 except for Type3 fonts
	scale float64

	ascent, descent float64
}

const (
	defaultAscent  = 0.8
	defaultDescent = -0.2
)

// Load builds a Font from a font dictionary. Missing or malformed entries
// fall back to defaults, so Load never fails.
func Load(dict core.Dict, r core.Resolver) *Font {
	f := &Font{
		encoding: WinAnsiEncoding,
		scale:    0.001,
		ascent:   defaultAscent,
		descent:  defaultDescent,
	}
	if dict == nil {
		f.standard = &helveticaWidths
		return f
	}

	subtype, _ := dict.GetName("Subtype")
	baseFont, _ := dict.GetName("BaseFont")
	f.Subtype = string(subtype)
	f.BaseFont = string(baseFont)

	if s, ok := resolve(r, dict.Get("ToUnicode")).(*core.Stream); ok {
		if cm, err := ParseToUnicodeCMap(s, r); err == nil {
			f.toUnicode = cm
		}
	}

	if f.Subtype == "Type0" {
		f.loadComposite(dict, r)
		return f
	}

	f.loadEncoding(dict, r)
	if fc, ok := resolve(r, dict.Get("FirstChar")).(core.Int); ok {
		f.firstChar = int(fc)
	}
	if arr, ok := resolve(r, dict.Get("Widths")).(core.Array); ok {
		f.widths = make([]float64, len(arr))
		for i, w := range arr {
			f.widths[i], _ = core.Number(resolve(r, w))
		}
	}
	if f.Subtype == "Type3" {
		if m, ok := resolve(r, dict.Get("FontMatrix")).(core.Array); ok {
			if nums, ok := m.Numbers(); ok && len(nums) == 6 && nums[0] != 0 {
				f.scale = nums[0]
			}
		}
	}
	if name, ok := standardName(f.BaseFont); ok && f.widths == nil {
		f.standard = standardFonts[name]
	}
	f.loadDescriptor(resolve(r, dict.Get("FontDescriptor")), r)
	if f.widths == nil && f.standard == nil && f.missingWidth == 0 {
		// unknown metrics; Helvetica is what viewers substitute
		f.standard = &helveticaWidths
	}
	return f
}

func (f *Font) loadEncoding(dict core.Dict, r core.Resolver) {
	if name, ok := standardName(f.BaseFont); ok && name != "Symbol" && name != "ZapfDingbats" {
		f.encoding = StandardEncoding
	}
	switch enc := resolve(r, dict.Get("Encoding")).(type) {
	case core.Name:
		f.encoding = GetEncoding(string(enc))
	case core.Dict:
		if base, ok := enc.GetName("BaseEncoding"); ok {
			f.encoding = GetEncoding(string(base))
		}
		if diffs, ok := resolve(r, enc.Get("Differences")).(core.Array); ok {
			f.encoding = f.encoding.withDifferences(diffs)
		}
	}
}

func (f *Font) loadComposite(dict core.Dict, r core.Resolver) {
	f.composite = true
	switch enc := resolve(r, dict.Get("Encoding")).(type) {
	case core.Name:
		f.vertical = strings.HasSuffix(string(enc), "-V")
	case *core.Stream:
		if data, err := enc.DecodeWith(r); err == nil {
			if cm, err := ParseCMap(data); err == nil {
				f.cmap = cm
			}
		}
		if wmode, ok := enc.Dict.GetInt("WMode"); ok && wmode == 1 {
			f.vertical = true
		}
	}

	f.missingWidth = 1000
	descendants, _ := resolve(r, dict.Get("DescendantFonts")).(core.Array)
	if len(descendants) == 0 {
		return
	}
	cid, ok := core.ResolveDict(r, descendants[0])
	if !ok {
		return
	}
	if dw, ok := core.Number(resolve(r, cid.Get("DW"))); ok {
		f.missingWidth = dw
	}
	if w, ok := resolve(r, cid.Get("W")).(core.Array); ok {
		f.cidWidths = parseCIDWidths(w, r)
	}
	f.loadDescriptor(resolve(r, cid.Get("FontDescriptor")), r)
}

// parseCIDWidths reads a /W array: "c [w1 w2 ...]" and "cfirst clast w" runs
func parseCIDWidths(w core.Array, r core.Resolver) map[uint32]float64 {
	widths := make(map[uint32]float64)
	for i := 0; i < len(w); {
		first, ok := resolve(r, w[i]).(core.Int)
		if !ok || i+1 >= len(w) {
			break
		}
		if list, ok := resolve(r, w[i+1]).(core.Array); ok {
			for j, v := range list {
				if n, ok := core.Number(resolve(r, v)); ok {
					widths[uint32(int(first)+j)] = n
				}
			}
			i += 2
			continue
		}
		if i+2 >= len(w) {
			break
		}
		last, ok1 := resolve(r, w[i+1]).(core.Int)
		n, ok2 := core.Number(resolve(r, w[i+2]))
		if ok1 && ok2 && last >= first && last-first < 1<<16 {
			for c := first; c <= last; c++ {
				widths[uint32(c)] = n
			}
		}
		i += 3
	}
	return widths
}

func (f *Font) loadDescriptor(obj core.Object, r core.Resolver) {
	fd, ok := obj.(core.Dict)
	if !ok {
		return
	}
	if mw, ok := core.Number(resolve(r, fd.Get("MissingWidth"))); ok && !f.composite {
		f.missingWidth = mw
	}
	ascent, ok1 := core.Number(resolve(r, fd.Get("Ascent")))
	descent, ok2 := core.Number(resolve(r, fd.Get("Descent")))
	// some producers write zeros or swap the signs
	if ok1 && ascent > 0 {
		f.ascent = ascent / 1000
	}
	if ok2 && descent != 0 {
		if descent > 0 {
			descent = -descent
		}
		f.descent = descent / 1000
	}
}

// Vertical reports whether the font writes top to bottom
func (f *Font) Vertical() bool {
	return f.vertical
}

// Composite reports whether the font is a Type0 font with multi-byte codes
func (f *Font) Composite() bool {
	return f.composite
}

// Codes splits a shown string into character codes
func (f *Font) Codes(data []byte) []Code {
	if !f.composite {
		codes := make([]Code, len(data))
		for i, b := range data {
			codes[i] = Code{Value: uint32(b), Len: 1}
		}
		return codes
	}

	var codes []Code
	for i := 0; i < len(data); {
		n := 2
		if f.cmap.HasCodespace() {
			if l := f.cmap.CodeLength(data[i:]); l > 0 {
				n = l
			}
		}
		if i+n > len(data) {
			n = len(data) - i
		}
		codes = append(codes, Code{Value: codeValue(data[i : i+n]), Len: n})
		i += n
	}
	return codes
}

// Width returns the horizontal displacement of a glyph in text space units
// for a font size of 1
func (f *Font) Width(c Code) float64 {
	if f.composite {
		cid := f.cmap.CID(c.Value)
		if w, ok := f.cidWidths[cid]; ok {
			return w * f.scale
		}
		return f.missingWidth * f.scale
	}

	if i := int(c.Value) - f.firstChar; f.widths != nil && i >= 0 && i < len(f.widths) {
		return f.widths[i] * f.scale
	}
	if f.standard != nil {
		if r := f.encoding.Decode(byte(c.Value)); r >= 32 && r <= 126 {
			return f.standard[r-32] * f.scale
		}
	}
	if f.missingWidth > 0 {
		return f.missingWidth * f.scale
	}
	return 500 * f.scale
}

// IsSpace reports whether word spacing applies to c: only the single-byte
// code 32 qualifies
func (f *Font) IsSpace(c Code) bool {
	return c.Len == 1 && c.Value == 32
}

// Text returns the Unicode text of one code: ToUnicode first, then the
// simple font's encoding
func (f *Font) Text(c Code) string {
	if s, ok := f.toUnicode.Lookup(c.Value); ok {
		return s
	}
	if f.composite {
		if r := rune(c.Value); c.Value >= 32 && utf8.ValidRune(r) {
			return string(r)
		}
		return ""
	}
	if r := f.encoding.Decode(byte(c.Value)); r != utf8.RuneError && r >= 32 {
		return string(r)
	}
	return ""
}

// Decode decodes a shown string to NFC-normalized Unicode
func (f *Font) Decode(data []byte) string {
	var sb strings.Builder
	for _, c := range f.Codes(data) {
		sb.WriteString(f.Text(c))
	}
	return NormalizeUnicode(sb.String())
}

// Ascent is the top of the glyph box in text space for a font size of 1
func (f *Font) Ascent() float64 { return f.ascent }

// Descent is the bottom of the glyph box, negative below the baseline
func (f *Font) Descent() float64 { return f.descent }

func resolve(r core.Resolver, obj core.Object) core.Object {
	if r == nil {
		return obj
	}
	return r.Resolve(obj)
}
