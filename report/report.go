// Package report describes the blocks of a document for inspection. The
// same report rendered before and after stripping shows what changed:
// text blocks disappear while image blocks keep their box and fingerprint.
package report

import (
	"fmt"
	"math"

	"github.com/tsawler/textstrip/blocks"
	"github.com/tsawler/textstrip/document"
	"github.com/tsawler/textstrip/model"
)

// Report lists the pages of a document with their blocks
type Report struct {
	Path    string       `json:"path,omitempty"`
	Version string       `json:"version"`
	Pages   []PageReport `json:"pages"`
}

// PageReport describes one page
type PageReport struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   int     `json:"text_blocks"`
	Images int     `json:"image_blocks"`
	Other  int     `json:"other_blocks"`
	Blocks []Block `json:"blocks"`
}

// Block is a content block in report form. BBox holds the left, bottom,
// right and top edges in points.
type Block struct {
	Kind        string     `json:"kind"`
	BBox        [4]float64 `json:"bbox"`
	Text        string     `json:"text,omitempty"`
	Lines       int        `json:"lines,omitempty"`
	Name        string     `json:"name,omitempty"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
}

// Build extracts the blocks of every page
func Build(doc *document.Document) (*Report, error) {
	all, err := doc.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to read pages: %w", err)
	}

	r := &Report{Path: doc.Path(), Version: doc.Version().String(), Pages: make([]PageReport, 0, len(all))}
	for i, page := range all {
		found, err := blocks.Extract(doc, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pr := PageReport{Number: i + 1, Blocks: make([]Block, 0, len(found))}
		pr.Width, _ = page.Width()
		pr.Height, _ = page.Height()
		for _, b := range found {
			switch b.Kind {
			case model.BlockText:
				pr.Text++
			case model.BlockImage:
				pr.Images++
			default:
				pr.Other++
			}
			pr.Blocks = append(pr.Blocks, fromModel(b))
		}
		r.Pages = append(r.Pages, pr)
	}
	return r, nil
}

func fromModel(b model.Block) Block {
	return Block{
		Kind:        b.Kind.String(),
		BBox:        [4]float64{round(b.BBox.Left()), round(b.BBox.Bottom()), round(b.BBox.Right()), round(b.BBox.Top())},
		Text:        b.Text,
		Lines:       b.Lines,
		Name:        b.Name,
		Width:       b.Width,
		Height:      b.Height,
		Fingerprint: b.Fingerprint,
	}
}

// TextBlocks counts the text blocks of all pages
func (r *Report) TextBlocks() int {
	n := 0
	for _, p := range r.Pages {
		n += p.Text
	}
	return n
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
