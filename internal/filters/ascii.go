package filters

import (
	"fmt"
)

// ASCIIHexDecode decodes pairs of hex digits. Whitespace is skipped, '>'
// ends the data and a final odd digit is completed with 0.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)/2)
	var hi byte
	half := false
	for _, c := range data {
		if isWhitespace(c) {
			continue
		}
		if c == '>' {
			break
		}
		v, err := hexDigitToByte(c)
		if err != nil {
			return nil, err
		}
		if half {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		out = append(out, hi<<4)
	}
	return out, nil
}

// ASCII85Decode decodes base-85 groups of five characters into four bytes.
// 'z' stands for four zero bytes, "<~" may open and "~>" ends the data. A
// short final group of n characters yields n-1 bytes.
func ASCII85Decode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*4/5)
	var group [5]byte
	n := 0

	i := 0
	for i < len(data) && isWhitespace(data[i]) {
		i++
	}
	if i+1 < len(data) && data[i] == '<' && data[i+1] == '~' {
		i += 2
	}

	for ; i < len(data); i++ {
		c := data[i]
		switch {
		case isWhitespace(c):
			continue
		case c == '~':
			if i+1 < len(data) && data[i+1] == '>' {
				return flush85(out, group, n), nil
			}
			return nil, fmt.Errorf("invalid ASCII85 character: %c", c)
		case c == 'z' && n == 0:
			out = append(out, 0, 0, 0, 0)
			continue
		case c < '!' || c > 'u':
			return nil, fmt.Errorf("invalid ASCII85 character: %c", c)
		}
		group[n] = c - '!'
		n++
		if n == 5 {
			out = flush85(out, group, n)
			n = 0
		}
	}
	return flush85(out, group, n), nil
}

// flush85 appends the bytes of a group holding n digits, padding short
// groups with the highest digit
func flush85(out []byte, group [5]byte, n int) []byte {
	if n < 2 {
		return out
	}
	for j := n; j < 5; j++ {
		group[j] = 84
	}
	var v uint32
	for _, d := range group {
		v = v*85 + uint32(d)
	}
	word := [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	return append(out, word[:n-1]...)
}

func hexDigitToByte(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	}
	return 0, fmt.Errorf("invalid hex digit: %c", c)
}

// isWhitespace reports whether c is PDF white-space
func isWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}
