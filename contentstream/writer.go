package contentstream

import (
	"bytes"

	"github.com/tsawler/textstrip/core"
)

// Write serializes operations back into content stream syntax, one
// operation per line
func Write(ops []Operation) []byte {
	var buf bytes.Buffer
	for i := range ops {
		WriteOperation(&buf, ops[i])
	}
	return buf.Bytes()
}

// WriteOperation appends a single operation followed by a newline
func WriteOperation(buf *bytes.Buffer, op Operation) {
	if op.Operator == "BI" && op.Inline != nil {
		buf.WriteString("BI")
		for _, k := range op.Inline.Dict.Keys() {
			buf.WriteByte(' ')
			buf.Write(core.Serialize(core.Name(k)))
			buf.WriteByte(' ')
			buf.Write(core.Serialize(op.Inline.Dict[k]))
		}
		buf.WriteString(" ID ")
		buf.Write(op.Inline.Data)
		buf.WriteString("\nEI\n")
		return
	}

	for _, operand := range op.Operands {
		buf.Write(core.Serialize(operand))
		buf.WriteByte(' ')
	}
	buf.WriteString(op.Operator)
	buf.WriteByte('\n')
}

// Number returns a numeric operand, using Int when the value is integral
func Number(f float64) core.Object {
	if f == float64(int64(f)) && f < 1e15 && f > -1e15 {
		return core.Int(int64(f))
	}
	return core.Real(f)
}
