package font

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/textstrip/core"
)

// Encoding maps single-byte character codes of simple fonts to Unicode
type Encoding struct {
	Name  string
	table [256]rune
}

// Decode returns the Unicode character for a code, or utf8.RuneError when
// the code is unmapped
func (e *Encoding) Decode(b byte) rune {
	return e.table[b]
}

// DecodeString decodes every byte of data, skipping unmapped codes
func (e *Encoding) DecodeString(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		if r := e.table[b]; r != utf8.RuneError {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func fromCharmap(name string, cm *charmap.Charmap) *Encoding {
	e := &Encoding{Name: name}
	for i := range e.table {
		e.table[i] = cm.DecodeByte(byte(i))
	}
	return e
}

var (
	// WinAnsiEncoding is Windows code page 1252
	WinAnsiEncoding = fromCharmap("WinAnsiEncoding", charmap.Windows1252)
	// MacRomanEncoding is the classic Mac OS Roman character set
	MacRomanEncoding = fromCharmap("MacRomanEncoding", charmap.Macintosh)
	// StandardEncoding is Adobe's standard Latin encoding, the built-in
	// encoding of most Type 1 fonts
	StandardEncoding = standardEncoding()
)

func standardEncoding() *Encoding {
	e := &Encoding{Name: "StandardEncoding"}
	for i := range e.table {
		e.table[i] = utf8.RuneError
	}
	for c := 0x20; c < 0x7f; c++ {
		e.table[c] = rune(c)
	}
	e.table['\''] = '’'
	e.table['`'] = '‘'
	high := map[byte]rune{
		0xa1: '¡', 0xa2: '¢', 0xa3: '£', 0xa4: '⁄', 0xa5: '¥', 0xa6: 'ƒ', 0xa7: '§',
		0xa8: '¤', 0xa9: '\'', 0xaa: '“', 0xab: '«', 0xac: '‹', 0xad: '›',
		0xae: 'ﬁ', 0xaf: 'ﬂ', 0xb1: '–', 0xb2: '†', 0xb3: '‡',
		0xb4: '·', 0xb6: '¶', 0xb7: '•', 0xb8: '‚', 0xb9: '„', 0xba: '”',
		0xbb: '»', 0xbc: '…', 0xbd: '‰', 0xbf: '¿', 0xc1: '`', 0xc2: '´',
		0xc3: 'ˆ', 0xc4: '˜', 0xc5: '¯', 0xc6: '˘', 0xc7: '˙', 0xc8: '¨', 0xca: '˚',
		0xcb: '¸', 0xcd: '˝', 0xce: '˛', 0xcf: 'ˇ', 0xd0: '—', 0xe1: 'Æ', 0xe3: 'ª',
		0xe8: 'Ł', 0xe9: 'Ø', 0xea: 'Œ', 0xeb: 'º', 0xf1: 'æ', 0xf5: 'ı', 0xf8: 'ł',
		0xf9: 'ø', 0xfa: 'œ', 0xfb: 'ß',
	}
	for c, r := range high {
		e.table[c] = r
	}
	return e
}

// GetEncoding returns a predefined encoding by name. Unknown names yield
// WinAnsiEncoding.
func GetEncoding(name string) *Encoding {
	switch name {
	case "MacRomanEncoding":
		return MacRomanEncoding
	case "StandardEncoding":
		return StandardEncoding
	default:
		return WinAnsiEncoding
	}
}

// withDifferences returns a copy of e with a /Differences array applied
func (e *Encoding) withDifferences(diffs core.Array) *Encoding {
	out := &Encoding{Name: e.Name, table: e.table}
	code := -1
	for _, item := range diffs {
		switch v := item.(type) {
		case core.Int:
			code = int(v)
		case core.Name:
			if code < 0 || code > 255 {
				continue
			}
			if r, ok := glyphRune(string(v)); ok {
				out.table[code] = r
			}
			code++
		}
	}
	return out
}

// glyph names that are not derivable from uniXXXX or single letters
var glyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#', "dollar": '$',
	"percent": '%', "ampersand": '&', "quotesingle": '\'', "quoteright": '’',
	"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+', "comma": ',',
	"hyphen": '-', "period": '.', "slash": '/', "zero": '0', "one": '1', "two": '2',
	"three": '3', "four": '4', "five": '5', "six": '6', "seven": '7', "eight": '8',
	"nine": '9', "colon": ':', "semicolon": ';', "less": '<', "equal": '=',
	"greater": '>', "question": '?', "at": '@', "bracketleft": '[', "backslash": '\\',
	"bracketright": ']', "asciicircum": '^', "underscore": '_', "grave": '`',
	"quoteleft": '‘', "braceleft": '{', "bar": '|', "braceright": '}',
	"asciitilde": '~', "bullet": '•', "endash": '–', "emdash": '—',
	"quotedblleft": '“', "quotedblright": '”', "ellipsis": '…',
	"fi": 'ﬁ', "fl": 'ﬂ', "ff": 'ﬀ', "ffi": 'ﬃ', "ffl": 'ﬄ',
	"Euro": '€', "copyright": '©', "registered": '®', "trademark": '™',
	"degree": '°', "section": '§', "paragraph": '¶', "dagger": '†',
	"daggerdbl": '‡', "eacute": 'é', "egrave": 'è', "ecircumflex": 'ê',
	"edieresis": 'ë', "aacute": 'á', "agrave": 'à', "acircumflex": 'â',
	"adieresis": 'ä', "atilde": 'ã', "aring": 'å', "ccedilla": 'ç', "iacute": 'í',
	"igrave": 'ì', "icircumflex": 'î', "idieresis": 'ï', "ntilde": 'ñ',
	"oacute": 'ó', "ograve": 'ò', "ocircumflex": 'ô', "odieresis": 'ö',
	"otilde": 'õ', "uacute": 'ú', "ugrave": 'ù', "ucircumflex": 'û',
	"udieresis": 'ü', "Eacute": 'É', "Adieresis": 'Ä', "Odieresis": 'Ö',
	"Udieresis": 'Ü', "germandbls": 'ß', "minus": '−', "nbspace": ' ',
}

// glyphRune maps a glyph name to Unicode: named glyphs, single-character
// names, uniXXXX and uXXXX[XX] forms
func glyphRune(name string) (rune, bool) {
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	if r, ok := glyphNames[name]; ok {
		return r, true
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return r, true
	}
	hex := ""
	if h, ok := strings.CutPrefix(name, "uni"); ok && len(h) >= 4 {
		hex = h[:4]
	} else if h, ok := strings.CutPrefix(name, "u"); ok && len(h) >= 4 && len(h) <= 6 {
		hex = h
	}
	if v, err := strconv.ParseUint(hex, 16, 32); err == nil && utf8.ValidRune(rune(v)) {
		return rune(v), true
	}
	return 0, false
}

// NormalizeUnicode returns s in Unicode normalization form C
func NormalizeUnicode(s string) string {
	return norm.NFC.String(s)
}
