package contentstream

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/tsawler/textstrip/core"
)

// Operation represents a single content stream operation consisting of an
// operator and its operands. Operands are PDF objects that precede the operator.
type Operation struct {
	Operator string        // The operator (e.g., "Tj", "Tm", "q")
	Operands []core.Object // The operands
	Inline   *InlineImage  // set for BI operations only
}

// InlineImage is the parameter dictionary and raw data of a BI/ID/EI image.
// Keys are kept as written, abbreviated or not.
type InlineImage struct {
	Dict core.Dict
	Data []byte
}

// Parser parses PDF content streams into a sequence of operations.
type Parser struct {
	lex      *core.Lexer
	operands []core.Object
	ops      []Operation
	strict   bool
}

// NewParser creates a new content stream parser for the given data.
// Malformed tokens are skipped the way viewers skip them.
func NewParser(data []byte) *Parser {
	return &Parser{lex: core.NewLexer(data)}
}

// Strict makes Parse fail on the first malformed token instead of skipping it
func (p *Parser) Strict() *Parser {
	p.strict = true
	return p
}

// Parse parses the content stream and returns all operations in order.
// Operands left without an operator at the end are dropped.
func (p *Parser) Parse() ([]Operation, error) {
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			if p.strict {
				return nil, err
			}
			// skip the offending byte and whatever operands preceded it
			p.operands = p.operands[:0]
			p.lex.Seek(p.lex.Pos() + 1)
			continue
		}
		if tok.Type == core.TokenEOF {
			return p.ops, nil
		}
		if err := p.handle(tok); err != nil {
			if p.strict {
				return nil, err
			}
			p.operands = p.operands[:0]
		}
	}
}

func (p *Parser) handle(tok core.Token) error {
	switch tok.Type {
	case core.TokenArrayStart, core.TokenDictStart:
		obj, err := p.parseComposite(tok.Pos)
		if err != nil {
			return err
		}
		p.operands = append(p.operands, obj)
		return nil
	case core.TokenKeyword:
		switch op := string(tok.Value); op {
		case "BI":
			return p.parseInlineImage(tok.Pos)
		case "true", "false", "null":
		default:
			p.emit(op)
			return nil
		}
	}

	obj, err := scalar(tok)
	if err != nil {
		return err
	}
	p.operands = append(p.operands, obj)
	return nil
}

// scalar converts a single-token operand
func scalar(tok core.Token) (core.Object, error) {
	switch tok.Type {
	case core.TokenInteger:
		if n, err := strconv.ParseInt(string(tok.Value), 10, 64); err == nil {
			return core.Int(n), nil
		}
		// out-of-range integers are read as reals
		fallthrough
	case core.TokenReal:
		f, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", tok.Value, tok.Pos)
		}
		return core.Real(f), nil
	case core.TokenString, core.TokenHexString:
		return core.String(tok.Value), nil
	case core.TokenName:
		return core.Name(tok.Value), nil
	case core.TokenKeyword:
		switch string(tok.Value) {
		case "true":
			return core.Bool(true), nil
		case "false":
			return core.Bool(false), nil
		case "null":
			return core.Null{}, nil
		}
	}
	return nil, fmt.Errorf("unexpected %q at position %d", tok.Value, tok.Pos)
}

func (p *Parser) emit(op string) {
	operands := make([]core.Object, len(p.operands))
	copy(operands, p.operands)
	p.ops = append(p.ops, Operation{Operator: op, Operands: operands})
	p.operands = p.operands[:0]
}

// parseComposite reads an array or dictionary operand starting at pos
func (p *Parser) parseComposite(pos int) (core.Object, error) {
	op := core.NewParserAt(p.lex.Data(), pos)
	obj, err := op.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("at position %d: %w", pos, err)
	}
	p.lex.Seek(op.Lexer().Pos())
	return obj, nil
}

// parseInlineImage reads "BI key value ... ID <data> EI"
func (p *Parser) parseInlineImage(pos int) error {
	dict := core.Dict{}
	for {
		tok, err := p.lex.NextToken()
		if err != nil {
			return err
		}
		if tok.Type == core.TokenEOF {
			return fmt.Errorf("inline image at position %d has no ID", pos)
		}
		if tok.Type == core.TokenKeyword && string(tok.Value) == "ID" {
			break
		}
		if tok.Type != core.TokenName {
			return fmt.Errorf("inline image key expected at position %d", tok.Pos)
		}
		key := string(tok.Value)
		valTok, err := p.lex.NextToken()
		if err != nil {
			return err
		}
		var val core.Object
		switch valTok.Type {
		case core.TokenArrayStart, core.TokenDictStart:
			val, err = p.parseComposite(valTok.Pos)
		default:
			val, err = scalar(valTok)
		}
		if err != nil {
			return fmt.Errorf("inline image value for /%s: %w", key, err)
		}
		dict[key] = val
	}

	data := p.lex.Data()
	start := p.lex.Pos()
	// exactly one whitespace byte separates ID from the data
	if start < len(data) && core.IsWhitespace(data[start]) {
		start++
	}

	end, next := findInlineEnd(data, start, dict)
	if end < 0 {
		return fmt.Errorf("inline image at position %d has no EI", pos)
	}
	p.lex.Seek(next)

	p.ops = append(p.ops, Operation{
		Operator: "BI",
		Inline:   &InlineImage{Dict: dict, Data: data[start:end]},
	})
	p.operands = p.operands[:0]
	return nil
}

// findInlineEnd returns the end of the image data and the position after EI
func findInlineEnd(data []byte, start int, dict core.Dict) (int, int) {
	// PDF 2.0 inline images may carry an explicit length
	for _, key := range []string{"L", "Length"} {
		if n, ok := dict.GetInt(key); ok && n >= 0 && start+int(n) <= len(data) {
			end := start + int(n)
			rest := bytes.TrimLeft(data[end:], " \t\r\n\f\x00")
			if bytes.HasPrefix(rest, []byte("EI")) {
				return end, len(data) - len(rest) + 2
			}
		}
	}

	for i := start; i+2 <= len(data); i++ {
		if data[i] != 'E' || data[i+1] != 'I' {
			continue
		}
		if i > start && !core.IsWhitespace(data[i-1]) {
			continue
		}
		if i+2 < len(data) && !core.IsWhitespace(data[i+2]) && !core.IsDelimiter(data[i+2]) {
			continue
		}
		if !looksLikeContent(data[i+2:]) {
			continue
		}
		end := i
		if end > start && core.IsWhitespace(data[end-1]) {
			end--
			if end > start && data[end] == '\n' && data[end-1] == '\r' {
				end--
			}
		}
		return end, i + 2
	}
	return -1, -1
}

// looksLikeContent reports whether the bytes after a candidate EI read as
// content-stream text rather than more binary image data
func looksLikeContent(rest []byte) bool {
	if len(rest) > 32 {
		rest = rest[:32]
	}
	for _, c := range rest {
		if c > 0x7e || (c < 0x20 && !core.IsWhitespace(c)) {
			return false
		}
	}
	return true
}
