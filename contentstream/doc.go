// Package contentstream parses and writes PDF content streams.
//
// Content streams contain the instructions for rendering page content,
// including text display, graphics operations, and image placement.
//
//	ops, err := contentstream.NewParser(streamData).Parse()
//	for _, op := range ops {
//	    fmt.Printf("Operator: %s, Operands: %v\n", op.Operator, op.Operands)
//	}
//
// Parsing is lenient by default: malformed tokens are skipped together with
// the operands collected before them. [Parser.Strict] turns that off.
//
// Inline images (BI ... ID data EI) become a single operation with
// Operator "BI" and the parameters and raw bytes in [Operation.Inline].
//
// [Write] is the inverse of Parse; parsing its output yields the same
// operations:
//
//	data := contentstream.Write(ops)
package contentstream
