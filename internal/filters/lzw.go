package filters

import "fmt"

const (
	lzwClear = 256
	lzwEOD   = 257
)

// LZWDecode decodes LZW data as written by PDF producers: MSB-first codes
// of 9 to 12 bits. With EarlyChange (the default, 1) the code width grows
// one code earlier than in plain LZW. Predictors are applied as for Flate.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	early := getIntParam(params, "EarlyChange", 1)

	var (
		out      []byte
		table    [][]byte
		width    = 9
		prev     []byte
		bitBuf   uint32
		bitCount uint
	)
	reset := func() {
		table = table[:0]
		for i := 0; i < 256; i++ {
			table = append(table, []byte{byte(i)})
		}
		table = append(table, nil, nil) // clear, EOD
		width = 9
		prev = nil
	}
	reset()

	for i := 0; ; {
		for bitCount < uint(width) && i < len(data) {
			bitBuf = bitBuf<<8 | uint32(data[i])
			bitCount += 8
			i++
		}
		if bitCount < uint(width) {
			break
		}
		code := int(bitBuf>>(bitCount-uint(width))) & (1<<width - 1)
		bitCount -= uint(width)

		if code == lzwClear {
			reset()
			continue
		}
		if code == lzwEOD {
			break
		}

		var entry []byte
		switch {
		case code < len(table) && table[code] != nil:
			entry = table[code]
		case code == len(table) && prev != nil:
			entry = append(append([]byte{}, prev...), prev[0])
		default:
			return nil, fmt.Errorf("invalid LZW code %d", code)
		}
		out = append(out, entry...)

		if prev != nil && len(table) < 4096 {
			next := make([]byte, len(prev)+1)
			copy(next, prev)
			next[len(prev)] = entry[0]
			table = append(table, next)
		}
		prev = entry

		if len(table)+early >= 1<<width && width < 12 {
			width++
		}
	}

	predictor := getIntParam(params, "Predictor", 1)
	if predictor != 1 {
		return applyPredictor(out, predictor, params)
	}
	return out, nil
}
