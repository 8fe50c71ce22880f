package core

import (
	"bytes"
	"fmt"
	"strconv"
)

// ReferenceResolver is an interface for resolving indirect references.
// This allows the parser to resolve indirect stream lengths when needed.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// maxNesting bounds array/dictionary nesting so hostile input cannot
// exhaust the stack.
const maxNesting = 256

// Parser parses PDF objects from an in-memory buffer using a Lexer for
// tokenization. It supports all PDF object types including indirect objects
// and streams.
type Parser struct {
	lexer    *Lexer
	resolver ReferenceResolver
	depth    int
}

// NewParser creates a new PDF parser reading data from the beginning
func NewParser(data []byte) *Parser {
	return &Parser{lexer: NewLexer(data)}
}

// NewParserAt creates a parser positioned at offset
func NewParserAt(data []byte, offset int) *Parser {
	p := NewParser(data)
	p.lexer.Seek(offset)
	return p
}

// SetReferenceResolver sets the reference resolver for the parser.
// This is needed to resolve indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// Lexer exposes the underlying lexer
func (p *Parser) Lexer() *Lexer {
	return p.lexer
}

// ParseObject parses the next direct object
func (p *Parser) ParseObject() (Object, error) {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return nil, err
	}
	return p.parseFrom(tok)
}

func (p *Parser) parseFrom(tok Token) (Object, error) {
	switch tok.Type {
	case TokenEOF:
		return nil, fmt.Errorf("unexpected end of input at position %d", tok.Pos)
	case TokenInteger:
		return p.parseIntegerOrRef(tok)
	case TokenReal:
		f, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real %q at position %d: %w", tok.Value, tok.Pos, err)
		}
		return Real(f), nil
	case TokenString, TokenHexString:
		return String(tok.Value), nil
	case TokenName:
		return Name(tok.Value), nil
	case TokenArrayStart:
		return p.parseArray()
	case TokenDictStart:
		return p.parseDict()
	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			return Null{}, nil
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return nil, fmt.Errorf("unexpected keyword %q at position %d", tok.Value, tok.Pos)
	}
	return nil, fmt.Errorf("unexpected token %q at position %d", tok.Value, tok.Pos)
}

// parseIntegerOrRef reads an integer and, if followed by "gen R", turns it
// into an indirect reference
func (p *Parser) parseIntegerOrRef(tok Token) (Object, error) {
	n, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q at position %d: %w", tok.Value, tok.Pos, err)
	}

	save := p.lexer.Pos()
	gen, err := p.lexer.NextToken()
	if err == nil && gen.Type == TokenInteger {
		r, err := p.lexer.NextToken()
		if err == nil && r.Type == TokenKeyword && string(r.Value) == "R" {
			g, err := strconv.Atoi(string(gen.Value))
			if err == nil && n >= 0 {
				return IndirectRef{Number: int(n), Generation: g}, nil
			}
		}
	}
	p.lexer.Seek(save)
	return Int(n), nil
}

func (p *Parser) parseArray() (Object, error) {
	if p.depth++; p.depth > maxNesting {
		return nil, fmt.Errorf("array nesting deeper than %d", maxNesting)
	}
	defer func() { p.depth-- }()

	arr := Array{}
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenArrayEnd:
			return arr, nil
		case TokenEOF:
			return nil, fmt.Errorf("unterminated array")
		}
		obj, err := p.parseFrom(tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() (Object, error) {
	if p.depth++; p.depth > maxNesting {
		return nil, fmt.Errorf("dictionary nesting deeper than %d", maxNesting)
	}
	defer func() { p.depth-- }()

	dict := Dict{}
	for {
		tok, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokenDictEnd:
			return dict, nil
		case TokenEOF:
			return nil, fmt.Errorf("unterminated dictionary")
		case TokenName:
		default:
			return nil, fmt.Errorf("expected name as dictionary key at position %d, got %q", tok.Pos, tok.Value)
		}
		key := string(tok.Value)

		next, err := p.lexer.NextToken()
		if err != nil {
			return nil, err
		}
		if next.Type == TokenDictEnd {
			// key without value; treat as null
			return dict, nil
		}
		val, err := p.parseFrom(next)
		if err != nil {
			return nil, fmt.Errorf("value of /%s: %w", key, err)
		}
		// null values are equivalent to absent keys
		if _, isNull := val.(Null); !isNull {
			dict[key] = val
		}
	}
}

// ParseIndirectObject parses "num gen obj ... endobj" at the current position
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	numTok, err := p.lexer.NextToken()
	if err != nil {
		return nil, err
	}
	genTok, err := p.lexer.NextToken()
	if err != nil {
		return nil, err
	}
	objTok, err := p.lexer.NextToken()
	if err != nil {
		return nil, err
	}
	if numTok.Type != TokenInteger || genTok.Type != TokenInteger ||
		objTok.Type != TokenKeyword || string(objTok.Value) != "obj" {
		return nil, fmt.Errorf("expected 'num gen obj' at position %d", numTok.Pos)
	}
	num, _ := strconv.Atoi(string(numTok.Value))
	gen, _ := strconv.Atoi(string(genTok.Value))

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("object %d %d: %w", num, gen, err)
	}

	if dict, ok := obj.(Dict); ok {
		next, err := p.lexer.PeekToken()
		if err == nil && next.Type == TokenKeyword && string(next.Value) == "stream" {
			p.lexer.NextToken()
			stream, err := p.parseStream(dict)
			if err != nil {
				return nil, fmt.Errorf("object %d %d: %w", num, gen, err)
			}
			obj = stream
		}
	}

	// endobj is frequently missing in damaged files; do not insist on it
	if next, err := p.lexer.PeekToken(); err == nil && next.Type == TokenKeyword && string(next.Value) == "endobj" {
		p.lexer.NextToken()
	}

	return &IndirectObject{
		Ref:    IndirectRef{Number: num, Generation: gen},
		Object: obj,
	}, nil
}

// parseStream reads the stream body after the "stream" keyword. The /Length
// entry is trusted when it lands on "endstream"; otherwise the body runs to
// the next "endstream" keyword.
func (p *Parser) parseStream(dict Dict) (*Stream, error) {
	p.lexer.SkipStreamEOL()
	start := p.lexer.Pos()
	data := p.lexer.Data()

	length := -1
	switch v := dict["Length"].(type) {
	case Int:
		length = int(v)
	case IndirectRef:
		if p.resolver != nil {
			if obj, err := p.resolver.ResolveReference(v); err == nil {
				if n, ok := obj.(Int); ok {
					length = int(n)
				}
			}
		}
	}

	if length >= 0 && start+length <= len(data) {
		p.lexer.Seek(start + length)
		tok, err := p.lexer.NextToken()
		if err == nil && tok.Type == TokenKeyword && string(tok.Value) == "endstream" {
			return &Stream{Dict: dict, Data: data[start : start+length]}, nil
		}
	}

	idx := bytes.Index(data[start:], []byte("endstream"))
	if idx < 0 {
		return nil, fmt.Errorf("stream at position %d has no endstream", start)
	}
	end := start + idx
	p.lexer.Seek(end + len("endstream"))
	// drop the EOL that precedes endstream
	if end > start && data[end-1] == '\n' {
		end--
	}
	if end > start && data[end-1] == '\r' {
		end--
	}
	dict["Length"] = Int(end - start)
	return &Stream{Dict: dict, Data: data[start:end]}, nil
}
