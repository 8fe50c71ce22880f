package pdftest

import "github.com/tsawler/textstrip/core"

// Helvetica returns a Type1 standard font dictionary
func Helvetica() core.Dict {
	return core.Dict{
		"Type":     core.Name("Font"),
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name("Helvetica"),
		"Encoding": core.Name("WinAnsiEncoding"),
	}
}

// GrayImage returns an uncompressed 8-bit DeviceGray image XObject
func GrayImage(width, height int, pix []byte) *core.Stream {
	return &core.Stream{
		Dict: core.Dict{
			"Type":             core.Name("XObject"),
			"Subtype":          core.Name("Image"),
			"Width":            core.Int(width),
			"Height":           core.Int(height),
			"ColorSpace":       core.Name("DeviceGray"),
			"BitsPerComponent": core.Int(8),
		},
		Data: pix,
	}
}

// Gradient returns width*height gray samples that differ per pixel
func Gradient(width, height int) []byte {
	pix := make([]byte, width*height)
	for i := range pix {
		pix[i] = byte(i * 7)
	}
	return pix
}

// Resources builds a resource dictionary with fonts and XObjects.
// Either map may be nil.
func Resources(fonts, xobjects map[string]core.Object) core.Dict {
	res := core.Dict{}
	if len(fonts) > 0 {
		d := core.Dict{}
		for k, v := range fonts {
			d[k] = v
		}
		res["Font"] = d
	}
	if len(xobjects) > 0 {
		d := core.Dict{}
		for k, v := range xobjects {
			d[k] = v
		}
		res["XObject"] = d
	}
	return res
}
