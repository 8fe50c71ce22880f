// Package ocr looks for raster text left in the images of a page.
//
// Stripping removes text operators only; words that are part of a scanned
// page or a screenshot survive as pixels. An audit renders every image
// XObject of a page to PNG and runs it through a [Recognizer]:
//
//	client, err := ocr.New()
//	if err != nil {
//		// built without -tags ocr
//	}
//	defer client.Close()
//	findings, err := ocr.AuditPage(ctx, client, doc, page, 1)
//
// The Tesseract-backed [Client] needs the "ocr" build tag and a Tesseract
// installation (apt-get install tesseract-ocr, brew install tesseract).
// Without the tag, [New] returns [ErrOCRNotEnabled].
package ocr

import (
	"context"
	"errors"
	"unicode"

	"github.com/tsawler/textstrip/document"
	"github.com/tsawler/textstrip/pages"
)

// ErrOCRNotEnabled is returned when OCR support was not compiled in
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// MinLetters is the number of letters recognized text needs before an
// image counts as containing text. Shorter results are usually noise.
const MinLetters = 3

// Recognizer turns an encoded image into text. *Client implements it.
type Recognizer interface {
	RecognizeImage(imageData []byte) (string, error)
}

// Finding is an image that still shows readable text
type Finding struct {
	Page  int    // 1-based page number
	Image string // XObject name
	Text  string
}

// AuditPage recognizes every image XObject of a page. Images that cannot
// be converted to PNG are skipped. A recognizer error stops the audit and
// is returned together with the findings so far.
func AuditPage(ctx context.Context, r Recognizer, doc *document.Document, page *pages.Page, number int) ([]Finding, error) {
	images, err := doc.PageImages(page)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		data, err := img.ToPNG()
		if err != nil {
			continue
		}
		text, err := r.RecognizeImage(data)
		if err != nil {
			return findings, err
		}
		if letters(text) >= MinLetters {
			findings = append(findings, Finding{Page: number, Image: img.Name, Text: text})
		}
	}
	return findings, nil
}

func letters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
