package document

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sort"

	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/pages"
)

// Image is an image XObject with its pixel data decoded
type Image struct {
	Name             string // XObject name (e.g., "Im1")
	Ref              core.IndirectRef
	Width            int
	Height           int
	ColorSpace       string // DeviceGray, DeviceRGB, DeviceCMYK, Indexed, ...
	Components       int
	BitsPerComponent int
	Data             []byte // Decoded pixel data, or the JPEG file for DCTDecode
	Filter           string // Last filter of the stream
}

// NewImage decodes an image XObject stream
func NewImage(name string, stream *core.Stream, r core.Resolver) (*Image, error) {
	dict := stream.Dict

	width, ok1 := core.Number(r.Resolve(dict.Get("Width")))
	height, ok2 := core.Number(r.Resolve(dict.Get("Height")))
	if !ok1 || !ok2 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image missing Width or Height")
	}

	img := &Image{
		Name:             name,
		Width:            int(width),
		Height:           int(height),
		BitsPerComponent: 8,
	}
	if bpc, ok := core.Number(r.Resolve(dict.Get("BitsPerComponent"))); ok {
		img.BitsPerComponent = int(bpc)
	}
	if mask, ok := dict.GetBool("ImageMask"); ok && bool(mask) {
		img.BitsPerComponent = 1
	}
	img.ColorSpace, img.Components = colorSpace(r, dict.Get("ColorSpace"), 0)

	switch f := r.Resolve(dict.Get("Filter")).(type) {
	case core.Name:
		img.Filter = string(f)
	case core.Array:
		if n, ok := f.GetName(len(f) - 1); ok {
			img.Filter = string(n)
		}
	}

	data, err := stream.DecodeWith(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image stream: %w", err)
	}
	img.Data = data
	return img, nil
}

// colorSpace returns the family name and component count of a color space
func colorSpace(r core.Resolver, obj core.Object, depth int) (string, int) {
	switch v := r.Resolve(obj).(type) {
	case core.Name:
		switch v {
		case "DeviceRGB", "CalRGB", "RGB":
			return "DeviceRGB", 3
		case "DeviceCMYK", "CMYK":
			return "DeviceCMYK", 4
		case "DeviceGray", "CalGray", "G":
			return "DeviceGray", 1
		}
		return string(v), 1
	case core.Array:
		name, _ := v.GetName(0)
		switch name {
		case "ICCBased":
			if s, ok := r.Resolve(v.Get(1)).(*core.Stream); ok {
				if n, ok := core.Number(r.Resolve(s.Dict.Get("N"))); ok {
					switch int(n) {
					case 3:
						return "DeviceRGB", 3
					case 4:
						return "DeviceCMYK", 4
					}
				}
			}
			return "DeviceGray", 1
		case "Indexed", "I":
			return "Indexed", 1
		case "CalRGB", "CalGray":
			if depth < 4 {
				return colorSpace(r, name, depth+1)
			}
		}
		return string(name), 1
	}
	return "DeviceGray", 1
}

// PageImages returns the image XObjects named in a page's resources,
// sorted by name
func (d *Document) PageImages(page *pages.Page) ([]*Image, error) {
	resources, err := page.Resources()
	if err != nil {
		return nil, err
	}
	xobjects, ok := core.ResolveDict(d, resources.Get("XObject"))
	if !ok {
		return nil, nil
	}

	var images []*Image
	for _, name := range xobjects.Keys() {
		stream, ok := d.Resolve(xobjects[name]).(*core.Stream)
		if !ok {
			continue
		}
		if subtype, _ := stream.Dict.GetName("Subtype"); subtype != "Image" {
			continue
		}
		img, err := NewImage(name, stream, d)
		if err != nil {
			continue // undecodable images are skipped
		}
		if ref, ok := xobjects[name].(core.IndirectRef); ok {
			img.Ref = ref
		}
		images = append(images, img)
	}
	sort.SliceStable(images, func(i, j int) bool { return images[i].Name < images[j].Name })
	return images, nil
}

// ToImage converts the pixel data to an image.Image
func (img *Image) ToImage() (image.Image, error) {
	if img.Filter == "DCTDecode" || img.Filter == "DCT" {
		decoded, err := jpeg.Decode(bytes.NewReader(img.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode JPEG: %w", err)
		}
		return decoded, nil
	}

	switch img.ColorSpace {
	case "DeviceRGB":
		return img.toRGBImage()
	case "DeviceCMYK":
		return img.toCMYKImage()
	default:
		return img.toGrayImage()
	}
}

// ToPNG converts the pixel data to PNG, suitable for OCR engines
func (img *Image) ToPNG() ([]byte, error) {
	goImg, err := img.ToImage()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, goImg); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// toGrayImage converts 1, 4 or 8 bit grayscale data. Rows of packed
// samples start on byte boundaries.
func (img *Image) toGrayImage() (*image.Gray, error) {
	bpc := img.BitsPerComponent
	if bpc != 1 && bpc != 2 && bpc != 4 && bpc != 8 {
		return nil, fmt.Errorf("unsupported bits per component: %d", bpc)
	}

	bytesPerRow := (img.Width*bpc + 7) / 8
	if len(img.Data) < bytesPerRow*img.Height {
		return nil, fmt.Errorf("insufficient data: got %d, expected %d", len(img.Data), bytesPerRow*img.Height)
	}

	goImg := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
	maxVal := (1 << bpc) - 1
	for y := 0; y < img.Height; y++ {
		row := img.Data[y*bytesPerRow:]
		for x := 0; x < img.Width; x++ {
			bit := x * bpc
			sample := int(row[bit/8]>>(8-bpc-bit%8)) & maxVal
			goImg.Pix[y*goImg.Stride+x] = uint8(sample * 255 / maxVal)
		}
	}
	return goImg, nil
}

// toRGBImage converts 8-bit RGB pixel data to an image.RGBA
func (img *Image) toRGBImage() (*image.RGBA, error) {
	if img.BitsPerComponent != 8 {
		return nil, fmt.Errorf("unsupported bits per component for RGB: %d", img.BitsPerComponent)
	}
	expected := img.Width * img.Height * 3
	if len(img.Data) < expected {
		return nil, fmt.Errorf("insufficient data for RGB image: got %d, expected %d", len(img.Data), expected)
	}

	goImg := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Width*img.Height; i++ {
		copy(goImg.Pix[i*4:i*4+3], img.Data[i*3:i*3+3])
		goImg.Pix[i*4+3] = 255
	}
	return goImg, nil
}

// toCMYKImage converts 8-bit CMYK pixel data to an image.RGBA
func (img *Image) toCMYKImage() (*image.RGBA, error) {
	if img.BitsPerComponent != 8 {
		return nil, fmt.Errorf("unsupported bits per component for CMYK: %d", img.BitsPerComponent)
	}
	expected := img.Width * img.Height * 4
	if len(img.Data) < expected {
		return nil, fmt.Errorf("insufficient data for CMYK image: got %d, expected %d", len(img.Data), expected)
	}

	goImg := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Width*img.Height; i++ {
		s := img.Data[i*4:]
		r, g, b := color.CMYKToRGB(s[0], s[1], s[2], s[3])
		goImg.Pix[i*4+0] = r
		goImg.Pix[i*4+1] = g
		goImg.Pix[i*4+2] = b
		goImg.Pix[i*4+3] = 255
	}
	return goImg, nil
}
