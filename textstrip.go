// Package textstrip removes all text from PDF documents while keeping
// images, vector graphics and page layout.
//
// Basic usage:
//
//	result, err := textstrip.Open("input.pdf").SaveAs("output_cleaned.pdf")
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println(result.TextBlocks(), "text blocks removed")
//
// With options:
//
//	result, err := textstrip.Open("report.pdf").
//	    Pages(1, 2, 3).
//	    Workers(4).
//	    BestEffort().
//	    SaveAs("report_cleaned.pdf")
//
// For an already opened document, use a [Stripper] directly. It mutates
// the document in place and leaves saving to the caller:
//
//	doc, err := document.Open("input.pdf")
//	...
//	result, err := textstrip.New(textstrip.WithLogger(logger)).Strip(ctx, doc)
//	...
//	err = writer.SaveFile(doc, "output.pdf", writer.DefaultOptions())
package textstrip

import (
	"context"

	"github.com/tsawler/textstrip/document"
	"github.com/tsawler/textstrip/observability"
	"github.com/tsawler/textstrip/writer"
)

// Open returns a Job for the PDF at path. Nothing is read until a
// terminal operation such as SaveAs runs.
//
// Example:
//
//	result, err := textstrip.Open("document.pdf").SaveAs("clean.pdf")
func Open(path string) *Job {
	return &Job{path: path, settings: defaultSettings()}
}

// StripFile opens in, strips every selected page and writes the result to
// out. Nothing is written when stripping fails under FailFast.
func StripFile(ctx context.Context, in, out string, opts ...Option) (*Result, error) {
	s := New(opts...)
	log := s.logger

	log.Info("Opening PDF", observability.String("path", in))
	doc, err := document.Open(in)
	if err != nil {
		return nil, &OpenError{Path: in, Err: err}
	}
	defer doc.Close()

	result, err := s.Strip(ctx, doc)
	if err != nil {
		return result, err
	}

	log.Info("Writing cleaned PDF", observability.String("path", out))
	if err := writer.SaveFile(doc, out, s.save); err != nil {
		return result, &SaveError{Path: out, Err: err}
	}
	log.Info("Text removal completed successfully",
		observability.Int("pages", len(result.Pages)),
		observability.Int("text_blocks", result.TextBlocks()))
	return result, nil
}

// Must panics if err is non-nil. It is meant for scripts and tests.
//
// Example:
//
//	result := textstrip.Must(textstrip.Open("document.pdf").SaveAs("clean.pdf"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
