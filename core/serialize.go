package core

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Serialize returns the PDF syntax for obj
func Serialize(obj Object) []byte {
	var buf bytes.Buffer
	writeObject(&buf, obj)
	return buf.Bytes()
}

// WriteObject writes the PDF syntax for obj to w
func WriteObject(w io.Writer, obj Object) error {
	var buf bytes.Buffer
	writeObject(&buf, obj)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteIndirectObject writes "num gen obj ... endobj"
func WriteIndirectObject(w io.Writer, ref IndirectRef, obj Object) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d obj\n", ref.Number, ref.Generation)
	writeObject(&buf, obj)
	buf.WriteString("\nendobj\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func writeObject(buf *bytes.Buffer, obj Object) {
	switch v := obj.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(v.String())
	case Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Real:
		buf.WriteString(formatReal(float64(v)))
	case String:
		writeString(buf, []byte(v))
	case Name:
		writeName(buf, string(v))
	case Array:
		buf.WriteByte('[')
		for i, e := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeObject(buf, e)
		}
		buf.WriteByte(']')
	case Dict:
		writeDict(buf, v)
	case *Stream:
		dict := v.Dict.Clone()
		dict["Length"] = Int(len(v.Data))
		writeDict(buf, dict)
		buf.WriteString("\nstream\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")
	case IndirectRef:
		fmt.Fprintf(buf, "%d %d R", v.Number, v.Generation)
	default:
		buf.WriteString("null")
	}
}

func writeDict(buf *bytes.Buffer, d Dict) {
	buf.WriteString("<<")
	for _, k := range d.Keys() {
		writeName(buf, k)
		buf.WriteByte(' ')
		writeObject(buf, d[k])
	}
	buf.WriteString(">>")
}

// formatReal prints a number without exponent, trimmed to 6 decimals
func formatReal(f float64) string {
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

// FormatNumber formats a float the way it is written into content streams
func FormatNumber(f float64) string {
	return formatReal(f)
}

// writeName escapes bytes outside the regular printable range as #xx
func writeName(buf *bytes.Buffer, name string) {
	buf.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x21 || c > 0x7e || c == '#' || isDelimiter(c) {
			fmt.Fprintf(buf, "#%02X", c)
			continue
		}
		buf.WriteByte(c)
	}
}

// writeString writes a literal string, or a hex string when most bytes are
// not printable
func writeString(buf *bytes.Buffer, s []byte) {
	binary := 0
	for _, c := range s {
		switch {
		case c == '\n' || c == '\r' || c == '\t' || c == '\b' || c == '\f':
		case c < 0x20 || c > 0x7e:
			binary++
		}
	}
	if len(s) > 0 && binary*4 > len(s) {
		buf.WriteByte('<')
		for _, c := range s {
			fmt.Fprintf(buf, "%02X", c)
		}
		buf.WriteByte('>')
		return
	}

	buf.WriteByte('(')
	for _, c := range s {
		switch c {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if c < 0x20 || c > 0x7e {
				fmt.Fprintf(buf, "\\%03o", c)
			} else {
				buf.WriteByte(c)
			}
		}
	}
	buf.WriteByte(')')
}
