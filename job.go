package textstrip

import (
	"context"

	"github.com/tsawler/textstrip/model"
	"github.com/tsawler/textstrip/observability"
	"github.com/tsawler/textstrip/ocr"
	"github.com/tsawler/textstrip/redact"
)

// Job is a fluent description of one stripping run. Each configuration
// method returns a new Job, so a partially configured Job can be reused
// and shared between goroutines.
type Job struct {
	path     string
	settings settings
}

func (j *Job) clone() *Job {
	return &Job{path: j.path, settings: j.settings.clone()}
}

func (j *Job) with(opt Option) *Job {
	n := j.clone()
	opt(&n.settings)
	return n
}

// Pages restricts stripping to the given 1-based pages.
// Multiple calls are cumulative.
//
// Example:
//
//	_, err := textstrip.Open("doc.pdf").Pages(1, 3, 5).SaveAs("out.pdf")
func (j *Job) Pages(pages ...int) *Job {
	n := j.clone()
	n.settings.pages = append(n.settings.pages, pages...)
	return n
}

// PageRange adds pages start through end, inclusive.
//
// Example:
//
//	_, err := textstrip.Open("doc.pdf").PageRange(2, 4).SaveAs("out.pdf")
func (j *Job) PageRange(start, end int) *Job {
	var pages []int
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return j.Pages(pages...)
}

// Workers processes up to n pages concurrently. Values below 1 mean one.
//
// Example:
//
//	_, err := textstrip.Open("big.pdf").Workers(4).SaveAs("out.pdf")
func (j *Job) Workers(n int) *Job {
	return j.with(WithWorkers(n))
}

// Logger sends progress messages to l instead of discarding them.
//
// Example:
//
//	log := observability.NewLogger(os.Stderr, "info", "text")
//	_, err := textstrip.Open("doc.pdf").Logger(log).SaveAs("out.pdf")
func (j *Job) Logger(l observability.Logger) *Job {
	return j.with(WithLogger(l))
}

// Images selects what happens to images lying under text. The default,
// redact.ImagesNone, keeps every image byte for byte.
//
// Example:
//
//	_, err := textstrip.Open("doc.pdf").Images(redact.ImagesRemoveOverlapping).SaveAs("out.pdf")
func (j *Job) Images(p redact.ImagePolicy) *Job {
	return j.with(WithImagePolicy(p))
}

// Graphics selects what happens to vector graphics lying under text. The
// default keeps them.
//
// Example:
//
//	_, err := textstrip.Open("doc.pdf").Graphics(redact.GraphicsRemoveContained).SaveAs("out.pdf")
func (j *Job) Graphics(p redact.GraphicsPolicy) *Job {
	return j.with(WithGraphicsPolicy(p))
}

// Fill paints removed text blocks with c
func (j *Job) Fill(c model.Color) *Job {
	return j.with(WithFill(c))
}

// MarkMargin grows every mark by points on each side
func (j *Job) MarkMargin(points float64) *Job {
	return j.with(WithMarkMargin(points))
}

// BestEffort keeps going when a page fails; see Result.Failures
func (j *Job) BestEffort() *Job {
	return j.with(WithErrorPolicy(BestEffort))
}

// OCRAudit checks the images of stripped pages for leftover text
func (j *Job) OCRAudit(r ocr.Recognizer) *Job {
	return j.with(WithOCRAudit(r))
}

// Compress Flate-encodes uncompressed streams when saving (default on)
func (j *Job) Compress(on bool) *Job {
	n := j.clone()
	n.settings.save.Compress = on
	return n
}

// CleanUnused drops unreferenced objects when saving (default on)
func (j *Job) CleanUnused(on bool) *Job {
	n := j.clone()
	n.settings.save.CleanUnused = on
	return n
}

// Options returns the job's configuration as options for New or
// StripFile
func (j *Job) Options() []Option {
	s := j.settings.clone()
	return []Option{func(dst *settings) { *dst = s.clone() }}
}

// SaveAs runs the job and writes the result to out.
//
// Example:
//
//	result, err := textstrip.Open("input.pdf").SaveAs("output_cleaned.pdf")
func (j *Job) SaveAs(out string) (*Result, error) {
	return j.SaveAsContext(context.Background(), out)
}

// SaveAsContext is SaveAs with a context checked between pages
func (j *Job) SaveAsContext(ctx context.Context, out string) (*Result, error) {
	return StripFile(ctx, j.path, out, j.Options()...)
}
