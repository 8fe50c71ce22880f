package filters

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes Group 3 (K=0) and Group 4 (K<0) fax data into
// packed 1-bit rows. Columns defaults to 1728; without Rows the height is
// taken from the data. BlackIs1 inverts the output bits.
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	var sf ccitt.SubFormat
	switch k := getIntParam(params, "K", 0); {
	case k < 0:
		sf = ccitt.Group4
	case k == 0:
		sf = ccitt.Group3
	default:
		return nil, fmt.Errorf("CCITT mixed 1D/2D coding (K=%d) is not supported", k)
	}

	rows := getIntParam(params, "Rows", 0)
	if rows <= 0 {
		rows = ccitt.AutoDetectHeight
	}
	r := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf,
		getIntParam(params, "Columns", 1728), rows,
		&ccitt.Options{Invert: getBoolParam(params, "BlackIs1", false)})
	return io.ReadAll(r)
}
