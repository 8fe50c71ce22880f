package core

import (
	"bytes"
	"fmt"
)

// TokenType represents the type of token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenKeyword       // true, false, null, obj, endobj, stream, R, content operators
	TokenInteger       // 123
	TokenReal          // 3.14
	TokenString        // (hello)
	TokenHexString     // <48656C6C6F>
	TokenName          // /Type
	TokenArrayStart    // [
	TokenArrayEnd      // ]
	TokenDictStart     // <<
	TokenDictEnd       // >>
)

// Token represents a lexical token. For strings and names Value holds the
// decoded bytes (escapes resolved); for everything else the raw bytes.
type Token struct {
	Type  TokenType
	Value []byte
	Pos   int
}

// Lexer performs lexical analysis of PDF content held in memory. The same
// lexer serves file-level object syntax and content streams.
type Lexer struct {
	data []byte
	pos  int
}

// NewLexer creates a lexer positioned at the start of data
func NewLexer(data []byte) *Lexer {
	return &Lexer{data: data}
}

// Pos returns the current byte offset
func (l *Lexer) Pos() int {
	return l.pos
}

// Seek moves the lexer to an absolute byte offset
func (l *Lexer) Seek(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(l.data) {
		pos = len(l.data)
	}
	l.pos = pos
}

// Data returns the underlying buffer
func (l *Lexer) Data() []byte {
	return l.data
}

// AtEOF reports whether only whitespace and comments remain
func (l *Lexer) AtEOF() bool {
	l.skipWhitespaceAndComments()
	return l.pos >= len(l.data)
}

// PeekToken returns the next token without consuming it
func (l *Lexer) PeekToken() (Token, error) {
	save := l.pos
	tok, err := l.NextToken()
	l.pos = save
	return tok, err
}

// NextToken returns the next token from the input. Comments are skipped.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.data) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	start := l.pos
	b := l.data[l.pos]
	switch b {
	case '[':
		l.pos++
		return Token{Type: TokenArrayStart, Value: l.data[start:l.pos], Pos: start}, nil
	case ']':
		l.pos++
		return Token{Type: TokenArrayEnd, Value: l.data[start:l.pos], Pos: start}, nil
	case '(':
		return l.readString()
	case '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			l.pos += 2
			return Token{Type: TokenDictStart, Value: l.data[start:l.pos], Pos: start}, nil
		}
		return l.readHexString()
	case '>':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
			l.pos += 2
			return Token{Type: TokenDictEnd, Value: l.data[start:l.pos], Pos: start}, nil
		}
		return Token{}, fmt.Errorf("unexpected '>' at position %d", l.pos)
	case '/':
		return l.readName()
	case ')':
		return Token{}, fmt.Errorf("unexpected ')' at position %d", l.pos)
	case '{', '}':
		// PostScript calculator braces; only seen in Type 4 functions
		l.pos++
		return Token{Type: TokenKeyword, Value: l.data[start:l.pos], Pos: start}, nil
	}

	if isDigit(b) || b == '-' || b == '+' || b == '.' {
		return l.readNumber()
	}
	return l.readKeyword()
}

// SkipStreamEOL consumes the end-of-line marker that follows the stream
// keyword: CRLF or LF, and a lone CR for lenient reading.
func (l *Lexer) SkipStreamEOL() {
	for l.pos < len(l.data) && (l.data[l.pos] == ' ' || l.data[l.pos] == '\t') {
		l.pos++
	}
	if l.pos < len(l.data) && l.data[l.pos] == '\r' {
		l.pos++
	}
	if l.pos < len(l.data) && l.data[l.pos] == '\n' {
		l.pos++
	}
}

// ReadBytes consumes n raw bytes
func (l *Lexer) ReadBytes(n int) ([]byte, error) {
	if n < 0 || l.pos+n > len(l.data) {
		return nil, fmt.Errorf("cannot read %d bytes at position %d: only %d available", n, l.pos, len(l.data)-l.pos)
	}
	b := l.data[l.pos : l.pos+n]
	l.pos += n
	return b, nil
}

// skipWhitespaceAndComments skips PDF whitespace (NUL, HT, LF, FF, CR, SP)
// and % comments up to end of line
func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) {
			l.pos++
			continue
		}
		if b == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\r' && l.data[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		return
	}
}

// readString reads a literal string (hello)
func (l *Lexer) readString() (Token, error) {
	start := l.pos
	l.pos++ // (
	var buf bytes.Buffer

	depth := 1
	for {
		if l.pos >= len(l.data) {
			return Token{}, fmt.Errorf("unterminated string starting at position %d", start)
		}
		b := l.data[l.pos]
		l.pos++

		switch b {
		case '(':
			depth++
			buf.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				return Token{Type: TokenString, Value: buf.Bytes(), Pos: start}, nil
			}
			buf.WriteByte(b)
		case '\\':
			if l.pos >= len(l.data) {
				return Token{}, fmt.Errorf("unterminated string starting at position %d", start)
			}
			next := l.data[l.pos]
			l.pos++
			switch next {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '\r':
				// line continuation
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				val := int(next - '0')
				for i := 0; i < 2 && l.pos < len(l.data) && isOctalDigit(l.data[l.pos]); i++ {
					val = val*8 + int(l.data[l.pos]-'0')
					l.pos++
				}
				buf.WriteByte(byte(val))
			default:
				// \( \) \\ and unknown escapes keep the character
				buf.WriteByte(next)
			}
		case '\r':
			// an unescaped end-of-line is always read as a single LF
			if l.pos < len(l.data) && l.data[l.pos] == '\n' {
				l.pos++
			}
			buf.WriteByte('\n')
		default:
			buf.WriteByte(b)
		}
	}
}

// readHexString reads a hexadecimal string <48656C6C6F>
func (l *Lexer) readHexString() (Token, error) {
	start := l.pos
	l.pos++ // <
	var buf bytes.Buffer

	var hi byte
	half := false
	for {
		if l.pos >= len(l.data) {
			return Token{}, fmt.Errorf("unterminated hex string starting at position %d", start)
		}
		b := l.data[l.pos]
		l.pos++
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		v, ok := hexValue(b)
		if !ok {
			return Token{}, fmt.Errorf("invalid hex digit %q at position %d", b, l.pos-1)
		}
		if half {
			buf.WriteByte(hi<<4 | v)
			half = false
		} else {
			hi = v
			half = true
		}
	}
	// an odd final digit is read as if followed by 0
	if half {
		buf.WriteByte(hi << 4)
	}
	return Token{Type: TokenHexString, Value: buf.Bytes(), Pos: start}, nil
}

// readName reads a name object /Name, decoding #xx escapes
func (l *Lexer) readName() (Token, error) {
	start := l.pos
	l.pos++ // /
	var buf bytes.Buffer

	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
		if b == '#' && l.pos+1 < len(l.data) {
			h, ok1 := hexValue(l.data[l.pos])
			lo, ok2 := hexValue(l.data[l.pos+1])
			if ok1 && ok2 {
				buf.WriteByte(h<<4 | lo)
				l.pos += 2
				continue
			}
		}
		buf.WriteByte(b)
	}
	return Token{Type: TokenName, Value: buf.Bytes(), Pos: start}, nil
}

// readNumber reads an integer or real. Malformed numbers such as "--5" or
// "1.2.3" are read leniently the way common viewers do.
func (l *Lexer) readNumber() (Token, error) {
	start := l.pos
	sawDot := false
	sawDigit := false

scan:
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		switch {
		case isDigit(b):
			sawDigit = true
		case b == '.':
			sawDot = true
		case b == '-' || b == '+':
			if sawDigit {
				break scan
			}
		default:
			break scan
		}
		l.pos++
	}
	raw := l.data[start:l.pos]
	if !sawDigit {
		// a lone sign or dot is treated as zero
		return Token{Type: TokenInteger, Value: []byte("0"), Pos: start}, nil
	}
	clean := normalizeNumber(raw)
	if sawDot {
		return Token{Type: TokenReal, Value: clean, Pos: start}, nil
	}
	return Token{Type: TokenInteger, Value: clean, Pos: start}, nil
}

// normalizeNumber keeps at most one leading sign and one decimal point
func normalizeNumber(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	neg := false
	i := 0
	for i < len(raw) && (raw[i] == '-' || raw[i] == '+') {
		if raw[i] == '-' {
			neg = !neg
		}
		i++
	}
	if neg {
		out = append(out, '-')
	}
	dot := false
	for ; i < len(raw); i++ {
		switch b := raw[i]; {
		case b == '.':
			if !dot {
				dot = true
				out = append(out, b)
			}
		case isDigit(b):
			out = append(out, b)
		}
	}
	return out
}

// readKeyword reads a run of regular characters
func (l *Lexer) readKeyword() (Token, error) {
	start := l.pos
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
	}
	if l.pos == start {
		l.pos++
		return Token{}, fmt.Errorf("unexpected character %q at position %d", l.data[start], start)
	}
	return Token{Type: TokenKeyword, Value: l.data[start:l.pos], Pos: start}, nil
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == 0
}

// IsWhitespace reports whether b is PDF whitespace
func IsWhitespace(b byte) bool {
	return isWhitespace(b)
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// IsDelimiter reports whether b is a PDF delimiter character
func IsDelimiter(b byte) bool {
	return isDelimiter(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func hexValue(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
