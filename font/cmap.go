package font

import (
	"fmt"
	"strconv"
	"unicode/utf16"

	"github.com/tsawler/textstrip/core"
)

// CMap maps character codes to Unicode (ToUnicode CMaps) or to CIDs
// (encoding CMaps embedded in Type0 fonts). Codespace ranges, when present,
// decide how many bytes each code takes.
type CMap struct {
	codespace []codespaceRange

	// Single character mappings: charCode -> unicode string
	charMappings map[uint32]string

	// Range mappings for efficiency
	rangeMappings []CMapRange

	cids      map[uint32]uint32
	cidRanges []cidRange
}

// CMapRange represents a range of character code to Unicode mappings. The
// last UTF-16 unit of Dest is incremented across the range.
type CMapRange struct {
	StartCode uint32
	EndCode   uint32
	Dest      []uint16
}

type cidRange struct {
	start, end, cid uint32
}

type codespaceRange struct {
	low, high []byte
}

// NewCMap creates a new empty CMap
func NewCMap() *CMap {
	return &CMap{
		charMappings: make(map[uint32]string),
		cids:         make(map[uint32]uint32),
	}
}

// ParseToUnicodeCMap parses a ToUnicode CMap stream, resolving its filter
// entries through r
func ParseToUnicodeCMap(stream *core.Stream, r core.Resolver) (*CMap, error) {
	if stream == nil {
		return nil, fmt.Errorf("stream is nil")
	}

	data, err := stream.DecodeWith(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stream: %w", err)
	}

	return ParseCMap(data)
}

// ParseCMap parses CMap program text. Unknown operators are ignored;
// malformed entries are skipped.
func ParseCMap(data []byte) (*CMap, error) {
	cm := NewCMap()
	lex := core.NewLexer(data)
	for {
		tok, err := lex.NextToken()
		if err != nil {
			return nil, fmt.Errorf("cmap: %w", err)
		}
		if tok.Type == core.TokenEOF {
			break
		}
		if tok.Type != core.TokenKeyword {
			continue
		}
		switch string(tok.Value) {
		case "begincodespacerange":
			err = cm.parseSection(lex, "endcodespacerange", 2, cm.addCodespace)
		case "beginbfchar":
			err = cm.parseSection(lex, "endbfchar", 2, cm.addBfChar)
		case "beginbfrange":
			err = cm.parseSection(lex, "endbfrange", 3, cm.addBfRange)
		case "begincidchar":
			err = cm.parseSection(lex, "endcidchar", 2, cm.addCIDChar)
		case "begincidrange":
			err = cm.parseSection(lex, "endcidrange", 3, cm.addCIDRange)
		}
		if err != nil {
			return nil, err
		}
	}
	return cm, nil
}

// parseSection collects operands in groups of n until the end keyword and
// hands each group to add
func (cm *CMap) parseSection(lex *core.Lexer, end string, n int, add func([]core.Object)) error {
	var group []core.Object
	for {
		tok, err := lex.NextToken()
		if err != nil {
			return fmt.Errorf("cmap: %w", err)
		}
		switch tok.Type {
		case core.TokenEOF:
			return nil
		case core.TokenKeyword:
			if string(tok.Value) == end {
				return nil
			}
			continue
		case core.TokenArrayStart:
			p := core.NewParserAt(lex.Data(), tok.Pos)
			arr, err := p.ParseObject()
			if err != nil {
				return fmt.Errorf("cmap: %w", err)
			}
			lex.Seek(p.Lexer().Pos())
			group = append(group, arr)
		case core.TokenHexString, core.TokenString:
			group = append(group, core.String(tok.Value))
		case core.TokenInteger:
			v, err := strconv.Atoi(string(tok.Value))
			if err != nil {
				continue
			}
			group = append(group, core.Int(v))
		case core.TokenName:
			group = append(group, core.Name(tok.Value))
		}
		if len(group) == n {
			add(group)
			group = group[:0]
		}
	}
}

func (cm *CMap) addCodespace(g []core.Object) {
	lo, ok1 := g[0].(core.String)
	hi, ok2 := g[1].(core.String)
	if ok1 && ok2 && len(lo) == len(hi) && len(lo) > 0 && len(lo) <= 4 {
		cm.codespace = append(cm.codespace, codespaceRange{low: []byte(lo), high: []byte(hi)})
	}
}

func (cm *CMap) addBfChar(g []core.Object) {
	src, ok := g[0].(core.String)
	if !ok || len(src) == 0 || len(src) > 4 {
		return
	}
	switch dst := g[1].(type) {
	case core.String:
		cm.charMappings[codeValue([]byte(src))] = utf16String(toUnits([]byte(dst)))
	case core.Name:
		if r, ok := glyphRune(string(dst)); ok {
			cm.charMappings[codeValue([]byte(src))] = string(r)
		}
	}
}

func (cm *CMap) addBfRange(g []core.Object) {
	lo, ok1 := g[0].(core.String)
	hi, ok2 := g[1].(core.String)
	if !ok1 || !ok2 || len(lo) == 0 || len(lo) > 4 || len(hi) > 4 {
		return
	}
	start, end := codeValue([]byte(lo)), codeValue([]byte(hi))
	if end < start {
		return
	}
	switch dst := g[2].(type) {
	case core.String:
		units := toUnits([]byte(dst))
		if len(units) == 0 {
			return
		}
		cm.rangeMappings = append(cm.rangeMappings, CMapRange{StartCode: start, EndCode: end, Dest: units})
	case core.Array:
		for i, item := range dst {
			s, ok := item.(core.String)
			code := start + uint32(i)
			if !ok || code > end {
				continue
			}
			cm.charMappings[code] = utf16String(toUnits([]byte(s)))
		}
	}
}

func (cm *CMap) addCIDChar(g []core.Object) {
	src, ok := g[0].(core.String)
	cid, ok2 := g[1].(core.Int)
	if ok && ok2 && cid >= 0 {
		cm.cids[codeValue([]byte(src))] = uint32(cid)
	}
}

func (cm *CMap) addCIDRange(g []core.Object) {
	lo, ok1 := g[0].(core.String)
	hi, ok2 := g[1].(core.String)
	cid, ok3 := g[2].(core.Int)
	if ok1 && ok2 && ok3 && cid >= 0 {
		cm.cidRanges = append(cm.cidRanges, cidRange{
			start: codeValue([]byte(lo)),
			end:   codeValue([]byte(hi)),
			cid:   uint32(cid),
		})
	}
}

// Lookup looks up a character code and returns its Unicode text
func (cm *CMap) Lookup(charCode uint32) (string, bool) {
	if cm == nil {
		return "", false
	}
	if unicode, ok := cm.charMappings[charCode]; ok {
		return unicode, true
	}
	for _, r := range cm.rangeMappings {
		if charCode >= r.StartCode && charCode <= r.EndCode {
			units := make([]uint16, len(r.Dest))
			copy(units, r.Dest)
			units[len(units)-1] += uint16(charCode - r.StartCode)
			return utf16String(units), true
		}
	}
	return "", false
}

// CID maps a character code to a CID. Codes outside every cid mapping map
// to themselves.
func (cm *CMap) CID(charCode uint32) uint32 {
	if cm == nil {
		return charCode
	}
	if cid, ok := cm.cids[charCode]; ok {
		return cid
	}
	for _, r := range cm.cidRanges {
		if charCode >= r.start && charCode <= r.end {
			return r.cid + charCode - r.start
		}
	}
	return charCode
}

// HasCodespace reports whether the CMap declares codespace ranges
func (cm *CMap) HasCodespace() bool {
	return cm != nil && len(cm.codespace) > 0
}

// CodeLength returns the byte length of the code at the start of data
// according to the codespace ranges, or 0 when no range matches
func (cm *CMap) CodeLength(data []byte) int {
	if cm == nil {
		return 0
	}
	for n := 1; n <= 4 && n <= len(data); n++ {
		for _, r := range cm.codespace {
			if len(r.low) == n && inRange(data[:n], r) {
				return n
			}
		}
	}
	return 0
}

// LookupString decodes a string of character codes to Unicode using the
// codespace to split codes, or 2-then-1 byte probing without one
func (cm *CMap) LookupString(data []byte) string {
	if cm == nil {
		return string(data)
	}

	var out []rune
	for i := 0; i < len(data); {
		n := cm.CodeLength(data[i:])
		if n == 0 {
			n = 1
			if i+1 < len(data) {
				if _, ok := cm.Lookup(codeValue(data[i : i+2])); ok {
					n = 2
				}
			}
		}
		if i+n > len(data) {
			n = len(data) - i
		}
		if s, ok := cm.Lookup(codeValue(data[i : i+n])); ok {
			out = append(out, []rune(s)...)
		} else if n == 1 {
			out = append(out, rune(data[i]))
		}
		i += n
	}
	return string(out)
}

func inRange(code []byte, r codespaceRange) bool {
	for i, b := range code {
		if b < r.low[i] || b > r.high[i] {
			return false
		}
	}
	return true
}

// codeValue reads up to four bytes as a big-endian code
func codeValue(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

// toUnits reads UTF-16BE code units; a single byte is one unit
func toUnits(b []byte) []uint16 {
	if len(b) == 1 {
		return []uint16{uint16(b[0])}
	}
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		b = b[2:]
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return units
}

func utf16String(units []uint16) string {
	return string(utf16.Decode(units))
}
