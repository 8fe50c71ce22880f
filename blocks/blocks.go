package blocks

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/document"
	"github.com/tsawler/textstrip/graphicsstate"
	"github.com/tsawler/textstrip/layout"
	"github.com/tsawler/textstrip/model"
	"github.com/tsawler/textstrip/pages"
	"github.com/tsawler/textstrip/text"
)

// Extract describes the content of a page as Text, Image and Other blocks.
// Text blocks come first in reading order, followed by image blocks and
// then other graphics, both in painting order.
func Extract(doc *document.Document, page *pages.Page) ([]model.Block, error) {
	return NewExtractor(doc).Extract(page)
}

// letter is assumed for pages that declare no usable box
var letter = model.NewBBox(0, 0, 612, 792)

// Extractor builds page blocks. The zero value is not usable; call
// NewExtractor.
type Extractor struct {
	resolver core.Resolver
	detector *layout.BlockDetector
}

// NewExtractor creates an extractor using the default block detector
func NewExtractor(r core.Resolver) *Extractor {
	return &Extractor{resolver: r, detector: layout.NewBlockDetector()}
}

// WithDetector replaces the block detector used for text
func (e *Extractor) WithDetector(d *layout.BlockDetector) *Extractor {
	e.detector = d
	return e
}

// Extract walks the page content and classifies everything it draws
func (e *Extractor) Extract(page *pages.Page) ([]model.Block, error) {
	content, err := page.ContentData()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	resources, err := page.Resources()
	if err != nil {
		return nil, fmt.Errorf("failed to read page resources: %w", err)
	}
	if resources == nil {
		resources = core.Dict{}
	}
	area, err := page.CropBox()
	if err != nil {
		area = letter
	}

	c := &collector{resolver: e.resolver, text: text.NewExtractor(), area: area}
	if err := graphicsstate.NewWalker(e.resolver).WalkContent(content, resources, c); err != nil {
		return nil, fmt.Errorf("failed to walk page content: %w", err)
	}

	detected := e.detector.Detect(c.text.Fragments())
	blocks := make([]model.Block, 0, len(detected)+len(c.images)+len(c.other))
	for i := range detected {
		b := &detected[i]
		blocks = append(blocks, model.Block{
			Kind:  model.BlockText,
			BBox:  b.BBox,
			Text:  b.Text(),
			Lines: b.LineCount(),
		})
	}
	blocks = append(blocks, c.images...)
	blocks = append(blocks, c.other...)
	return blocks, nil
}

// collector routes walker events: text to the fragment extractor, images
// and paths straight to blocks
type collector struct {
	resolver core.Resolver
	text     *text.Extractor
	images   []model.Block
	other    []model.Block
	area     model.BBox // page area used for unbounded shadings
}

func (c *collector) ShowText(f *graphicsstate.Frame, i int, ts *graphicsstate.TextShow) {
	c.text.ShowText(f, i, ts)
}

func (c *collector) PaintImage(_ *graphicsstate.Frame, _ int, img *graphicsstate.ImagePaint) {
	block := model.Block{Kind: model.BlockImage, BBox: img.BBox, Name: img.Name}

	var dict core.Dict
	var raw []byte
	switch {
	case img.Stream != nil:
		dict, raw = img.Stream.Dict, img.Stream.Data
		if decoded, err := img.Stream.DecodeWith(c.resolver); err == nil {
			raw = decoded
		}
		block.Width, block.Height = c.dimension(dict, "Width"), c.dimension(dict, "Height")
	case img.Inline != nil:
		dict, raw = img.Inline.Dict, img.Inline.Data
		block.Width = max(c.dimension(dict, "W"), c.dimension(dict, "Width"))
		block.Height = max(c.dimension(dict, "H"), c.dimension(dict, "Height"))
	}
	block.Fingerprint = Fingerprint(raw)
	c.images = append(c.images, block)
}

func (c *collector) PaintPath(_ *graphicsstate.Frame, _ int, p *graphicsstate.PathPaint) {
	bbox := p.BBox
	if p.Unbounded {
		bbox = c.area
	}
	c.other = append(c.other, model.Block{Kind: model.BlockOther, BBox: bbox})
}

func (c *collector) dimension(dict core.Dict, key string) int {
	if v, ok := core.Number(c.resolver.Resolve(dict.Get(key))); ok {
		return int(v)
	}
	return 0
}

// Fingerprint is the hex SHA-256 of an image's samples: the decoded
// stream data, or the stored bytes of image codecs and inline images.
// Equal fingerprints before and after processing mean the image is
// untouched, whether or not the writer recompressed it.
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Count returns the number of blocks of the given kind
func Count(blocks []model.Block, kind model.BlockKind) int {
	n := 0
	for _, b := range blocks {
		if b.Kind == kind {
			n++
		}
	}
	return n
}
