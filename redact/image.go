package redact

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/document"
	"github.com/tsawler/textstrip/graphicsstate"
	"github.com/tsawler/textstrip/model"
)

// blankImage returns a copy of an image XObject whose pixels under the
// marks are painted over. Only uncompressed-codec 8-bit DeviceGray and
// DeviceRGB images are handled; false means the image is left as is.
func blankImage(r core.Resolver, paint *graphicsstate.ImagePaint, marks []model.Mark) (*core.Stream, bool) {
	if paint.Stream.IsImageCodec() {
		return nil, false
	}
	img, err := document.NewImage(paint.Name, paint.Stream, r)
	if err != nil || img.BitsPerComponent != 8 {
		return nil, false
	}
	if img.ColorSpace != "DeviceGray" && img.ColorSpace != "DeviceRGB" {
		return nil, false
	}
	decoded, err := img.ToImage()
	if err != nil {
		return nil, false
	}
	dst, ok := decoded.(draw.Image)
	if !ok {
		return nil, false
	}
	inv, ok := paint.CTM.Inverse()
	if !ok {
		return nil, false
	}

	changed := false
	for _, m := range marks {
		rect := pixelRect(inv.TransformBBox(m.Rect), img.Width, img.Height)
		if rect.Empty() {
			continue
		}
		fill := color.Color(color.White)
		if m.Fill != nil {
			fill = color.RGBA{R: channel(m.Fill.R), G: channel(m.Fill.G), B: channel(m.Fill.B), A: 0xff}
		}
		draw.Draw(dst, rect, &image.Uniform{C: fill}, image.Point{}, draw.Src)
		changed = true
	}
	if !changed {
		return nil, false
	}

	out := paint.Stream.Clone()
	if err := out.SetDecodedData(samples(dst, img.ColorSpace), true); err != nil {
		return nil, false
	}
	return out, true
}

// pixelRect maps a box in image space (the unit square) to pixel
// coordinates. Image rows run from the top of the unit square downwards.
func pixelRect(unit model.BBox, width, height int) image.Rectangle {
	x0 := math.Max(unit.Left(), 0)
	x1 := math.Min(unit.Right(), 1)
	y0 := math.Max(unit.Bottom(), 0)
	y1 := math.Min(unit.Top(), 1)
	if x0 >= x1 || y0 >= y1 {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(x0*float64(width))),
		int(math.Floor((1-y1)*float64(height))),
		int(math.Ceil(x1*float64(width))),
		int(math.Ceil((1-y0)*float64(height))),
	)
}

// samples packs the image back into 8-bit PDF sample order
func samples(img image.Image, colorSpace string) []byte {
	b := img.Bounds()
	n := 3
	if colorSpace == "DeviceGray" {
		n = 1
	}
	out := make([]byte, 0, b.Dx()*b.Dy()*n)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if n == 1 {
				out = append(out, color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
				continue
			}
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			out = append(out, c.R, c.G, c.B)
		}
	}
	return out
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
