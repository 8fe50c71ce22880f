package core

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// XRefEntryType distinguishes the three kinds of cross-reference entries
type XRefEntryType int

const (
	EntryFree       XRefEntryType = iota
	EntryInUse                    // stored at a byte offset
	EntryCompressed               // stored inside an object stream
)

// XRefEntry represents a single cross-reference entry
type XRefEntry struct {
	Type         XRefEntryType
	Offset       int64 // byte offset for in-use objects
	Generation   int
	StreamNumber int // object stream number for compressed objects
	StreamIndex  int // index within the object stream
}

// XRefTable represents the merged cross-reference information of a file
type XRefTable struct {
	Entries map[int]*XRefEntry // Map from object number to XRef entry
	Trailer Dict               // Trailer dictionary
}

// NewXRefTable creates a new empty XRef table
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]*XRefEntry),
		Trailer: make(Dict),
	}
}

// Get retrieves an XRef entry by object number
func (x *XRefTable) Get(objNum int) (*XRefEntry, bool) {
	entry, ok := x.Entries[objNum]
	return entry, ok
}

// Size returns the number of entries in the table
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// merge adds entries from an older section; entries already present (from a
// newer section) win.
func (x *XRefTable) merge(older *XRefTable) {
	for num, e := range older.Entries {
		if _, ok := x.Entries[num]; !ok {
			x.Entries[num] = e
		}
	}
	for k, v := range older.Trailer {
		if _, ok := x.Trailer[k]; !ok {
			x.Trailer[k] = v
		}
	}
}

// XRefParser parses PDF cross-reference tables and streams
type XRefParser struct {
	data []byte
}

// NewXRefParser creates a new XRef parser over the whole file
func NewXRefParser(data []byte) *XRefParser {
	return &XRefParser{data: data}
}

// FindXRef locates the startxref offset near the end of the file
func (x *XRefParser) FindXRef() (int64, error) {
	tail := x.data
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("startxref not found")
	}
	lex := NewLexer(tail[idx+len("startxref"):])
	tok, err := lex.NextToken()
	if err != nil || tok.Type != TokenInteger {
		return 0, fmt.Errorf("invalid startxref offset")
	}
	offset, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid startxref offset: %w", err)
	}
	if offset < 0 || offset >= int64(len(x.data)) {
		return 0, fmt.Errorf("startxref offset %d outside file", offset)
	}
	return offset, nil
}

// ParseXRef parses one cross-reference section at offset, either a classic
// "xref" table with its trailer or a cross-reference stream
func (x *XRefParser) ParseXRef(offset int64) (*XRefTable, error) {
	if offset < 0 || offset >= int64(len(x.data)) {
		return nil, fmt.Errorf("xref offset %d outside file", offset)
	}
	lex := NewLexer(x.data)
	lex.Seek(int(offset))
	tok, err := lex.PeekToken()
	if err != nil {
		return nil, err
	}
	if tok.Type == TokenKeyword && string(tok.Value) == "xref" {
		lex.NextToken()
		return x.parseTable(lex)
	}
	return x.parseStream(int(offset))
}

// parseTable reads subsections "first count" followed by 20-byte entries,
// then the trailer dictionary
func (x *XRefParser) parseTable(lex *Lexer) (*XRefTable, error) {
	table := NewXRefTable()
	for {
		tok, err := lex.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenKeyword && string(tok.Value) == "trailer" {
			break
		}
		if tok.Type != TokenInteger {
			return nil, fmt.Errorf("invalid xref subsection header at position %d", tok.Pos)
		}
		first, _ := strconv.Atoi(string(tok.Value))
		countTok, err := lex.NextToken()
		if err != nil || countTok.Type != TokenInteger {
			return nil, fmt.Errorf("invalid xref subsection count at position %d", tok.Pos)
		}
		count, _ := strconv.Atoi(string(countTok.Value))

		for i := 0; i < count; i++ {
			offTok, err1 := lex.NextToken()
			genTok, err2 := lex.NextToken()
			kindTok, err3 := lex.NextToken()
			if err1 != nil || err2 != nil || err3 != nil ||
				offTok.Type != TokenInteger || genTok.Type != TokenInteger || kindTok.Type != TokenKeyword {
				return nil, fmt.Errorf("invalid xref entry %d of subsection %d", i, first)
			}
			off, _ := strconv.ParseInt(string(offTok.Value), 10, 64)
			gen, _ := strconv.Atoi(string(genTok.Value))
			entry := &XRefEntry{Offset: off, Generation: gen}
			switch string(kindTok.Value) {
			case "n":
				entry.Type = EntryInUse
			case "f":
				entry.Type = EntryFree
			default:
				return nil, fmt.Errorf("invalid xref entry type %q", kindTok.Value)
			}
			num := first + i
			// the first occurrence within a section is authoritative
			if _, ok := table.Entries[num]; !ok {
				table.Entries[num] = entry
			}
		}
	}

	p := &Parser{lexer: lex}
	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("trailer: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("trailer is not a dictionary")
	}
	table.Trailer = trailer
	return table, nil
}

// parseStream reads a cross-reference stream (PDF 1.5+) at offset
func (x *XRefParser) parseStream(offset int) (*XRefTable, error) {
	p := NewParserAt(x.data, offset)
	ind, err := p.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("xref stream: %w", err)
	}
	stream, ok := ind.Object.(*Stream)
	if !ok {
		return nil, fmt.Errorf("object at xref offset %d is not a stream", offset)
	}
	if t, _ := stream.Dict.GetName("Type"); t != "XRef" {
		return nil, fmt.Errorf("stream at xref offset %d is not an XRef stream", offset)
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("xref stream: %w", err)
	}

	wArr, ok := stream.Dict.GetArray("W")
	if !ok || len(wArr) != 3 {
		return nil, fmt.Errorf("xref stream: invalid /W")
	}
	var w [3]int
	for i := range w {
		v, _ := wArr.GetInt(i)
		if v < 0 || v > 8 {
			return nil, fmt.Errorf("xref stream: invalid /W width %d", v)
		}
		w[i] = int(v)
	}
	rowLen := w[0] + w[1] + w[2]
	if rowLen == 0 {
		return nil, fmt.Errorf("xref stream: zero-width rows")
	}

	size, _ := stream.Dict.GetInt("Size")
	index := []int{0, int(size)}
	if idx, ok := stream.Dict.GetArray("Index"); ok {
		index = index[:0]
		for i := range idx {
			v, _ := idx.GetInt(i)
			index = append(index, int(v))
		}
	}

	table := NewXRefTable()
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		first, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+rowLen > len(data) {
				break
			}
			row := data[pos : pos+rowLen]
			pos += rowLen

			kind := int64(1) // default type when the field is absent
			if w[0] > 0 {
				kind = readField(row[:w[0]])
			}
			f2 := readField(row[w[0] : w[0]+w[1]])
			f3 := readField(row[w[0]+w[1]:])

			entry := &XRefEntry{}
			switch kind {
			case 0:
				entry.Type = EntryFree
				entry.Generation = int(f3)
			case 1:
				entry.Type = EntryInUse
				entry.Offset = f2
				entry.Generation = int(f3)
			case 2:
				entry.Type = EntryCompressed
				entry.StreamNumber = int(f2)
				entry.StreamIndex = int(f3)
			default:
				// unknown types are references to null
				continue
			}
			num := first + j
			if _, ok := table.Entries[num]; !ok {
				table.Entries[num] = entry
			}
		}
	}

	trailer := stream.Dict.Clone()
	for _, k := range []string{"Type", "W", "Index", "Filter", "DecodeParms", "Length"} {
		delete(trailer, k)
	}
	table.Trailer = trailer
	return table, nil
}

// readField reads a big-endian unsigned integer
func readField(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// ParseAll follows the chain of sections from startxref through /Prev and
// hybrid /XRefStm links and merges them, newest first
func (x *XRefParser) ParseAll() (*XRefTable, error) {
	start, err := x.FindXRef()
	if err != nil {
		return nil, err
	}

	merged := NewXRefTable()
	visited := make(map[int64]bool)
	queue := []int64{start}
	first := true
	for len(queue) > 0 {
		offset := queue[0]
		queue = queue[1:]
		if visited[offset] {
			continue
		}
		visited[offset] = true

		section, err := x.ParseXRef(offset)
		if err != nil {
			if first {
				return nil, err
			}
			// a broken older section loses history, not the document
			break
		}
		first = false

		// a hybrid file's /XRefStm entries take precedence over the older
		// table they accompany
		if stm, ok := section.Trailer.GetInt("XRefStm"); ok && !visited[int64(stm)] {
			visited[int64(stm)] = true
			if hybrid, err := x.ParseXRef(int64(stm)); err == nil {
				merged.merge(&XRefTable{Entries: hybrid.Entries, Trailer: Dict{}})
			}
		}
		merged.merge(section)

		if prev, ok := section.Trailer.GetInt("Prev"); ok && prev > 0 {
			queue = append(queue, int64(prev))
		}
	}

	delete(merged.Trailer, "Prev")
	delete(merged.Trailer, "XRefStm")
	return merged, nil
}

var objHeader = regexp.MustCompile(`(\d+)[ \t\r\n\f\x00]+(\d+)[ \t\r\n\f\x00]+obj\b`)

// Reconstruct rebuilds the table by scanning the file for "n g obj"
// headers, used when the xref data is missing or damaged. Later
// definitions of the same object win, as with incremental updates.
func (x *XRefParser) Reconstruct() (*XRefTable, error) {
	table := NewXRefTable()
	for _, m := range objHeader.FindAllSubmatchIndex(x.data, -1) {
		start := m[0]
		// the object number must start a token
		if start > 0 && !isWhitespace(x.data[start-1]) && !isDelimiter(x.data[start-1]) {
			continue
		}
		num, err1 := strconv.Atoi(string(x.data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(x.data[m[4]:m[5]]))
		if err1 != nil || err2 != nil {
			continue
		}
		table.Entries[num] = &XRefEntry{Type: EntryInUse, Offset: int64(start), Generation: gen}
	}

	// collect trailer keys from every trailer dictionary, last one wins
	for _, idx := range allIndexes(x.data, []byte("trailer")) {
		p := NewParserAt(x.data, idx+len("trailer"))
		if obj, err := p.ParseObject(); err == nil {
			if d, ok := obj.(Dict); ok {
				for k, v := range d {
					table.Trailer[k] = v
				}
			}
		}
	}

	// compressed objects are only reachable through xref streams, and files
	// without a classic trailer name their catalog only there
	nums := make([]int, 0, len(table.Entries))
	for num := range table.Entries {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	var catalog *IndirectRef
	compressed := NewXRefTable()
	for _, num := range nums {
		e := table.Entries[num]
		p := NewParserAt(x.data, int(e.Offset))
		ind, err := p.ParseIndirectObject()
		if err != nil {
			continue
		}
		var d Dict
		switch v := ind.Object.(type) {
		case Dict:
			d = v
		case *Stream:
			d = v.Dict
		}
		switch t, _ := d.GetName("Type"); t {
		case "Catalog":
			if catalog == nil {
				catalog = &IndirectRef{Number: num, Generation: e.Generation}
			}
		case "XRef":
			if section, err := x.parseStream(int(e.Offset)); err == nil {
				for n, entry := range section.Entries {
					if entry.Type == EntryCompressed {
						compressed.Entries[n] = entry
					}
				}
				for _, k := range []string{"Root", "Info", "ID"} {
					if v, ok := section.Trailer[k]; ok {
						if _, have := table.Trailer[k]; !have {
							table.Trailer[k] = v
						}
					}
				}
			}
		}
	}
	table.merge(compressed)
	if _, ok := table.Trailer["Root"]; !ok && catalog != nil {
		table.Trailer["Root"] = *catalog
	}

	if len(table.Entries) == 0 {
		return nil, fmt.Errorf("no objects found while reconstructing xref")
	}
	if _, ok := table.Trailer["Root"]; !ok {
		return nil, fmt.Errorf("no document catalog found while reconstructing xref")
	}
	delete(table.Trailer, "Prev")
	delete(table.Trailer, "XRefStm")
	return table, nil
}

func allIndexes(data, sep []byte) []int {
	var out []int
	for off := 0; ; {
		i := bytes.Index(data[off:], sep)
		if i < 0 {
			return out
		}
		out = append(out, off+i)
		off += i + len(sep)
	}
}
