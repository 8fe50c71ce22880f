package textstrip

import (
	"github.com/tsawler/textstrip/model"
	"github.com/tsawler/textstrip/observability"
	"github.com/tsawler/textstrip/ocr"
	"github.com/tsawler/textstrip/redact"
	"github.com/tsawler/textstrip/writer"
)

// ErrorPolicy decides what a page failure does to the rest of the run
type ErrorPolicy int

const (
	// FailFast stops at the first failing page and returns its error
	FailFast ErrorPolicy = iota
	// BestEffort records failing pages in Result.Failures and continues
	BestEffort
)

func (p ErrorPolicy) String() string {
	if p == BestEffort {
		return "best-effort"
	}
	return "fail-fast"
}

// Option configures a Stripper
type Option func(*settings)

type settings struct {
	logger      observability.Logger
	pages       []int // 1-based; nil means all pages
	policy      redact.Policy
	fill        *model.Color
	errorPolicy ErrorPolicy
	workers     int
	margin      float64
	recognizer  ocr.Recognizer
	save        writer.Options
}

func defaultSettings() settings {
	return settings{
		logger:  observability.NopLogger{},
		workers: 1,
		save:    writer.DefaultOptions(),
	}
}

// clone copies the settings so chained calls never share slices
func (s settings) clone() settings {
	out := s
	if s.pages != nil {
		out.pages = append([]int(nil), s.pages...)
	}
	if s.fill != nil {
		c := *s.fill
		out.fill = &c
	}
	return out
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l observability.Logger) Option {
	return func(s *settings) {
		if l == nil {
			l = observability.NopLogger{}
		}
		s.logger = l
	}
}

// WithPages restricts stripping to the given 1-based pages. Other pages
// are left untouched. A later WithPages replaces the selection, so request
// options can override configured defaults.
func WithPages(pages ...int) Option {
	return func(s *settings) { s.pages = append([]int(nil), pages...) }
}

// WithImagePolicy selects what happens to images under a text block. The
// default, redact.ImagesNone, never touches image data.
func WithImagePolicy(p redact.ImagePolicy) Option {
	return func(s *settings) { s.policy.Images = p }
}

// WithGraphicsPolicy selects what happens to vector graphics under a text
// block. The default keeps them.
func WithGraphicsPolicy(p redact.GraphicsPolicy) Option {
	return func(s *settings) { s.policy.Graphics = p }
}

// WithFill paints every removed text block with a solid color
func WithFill(c model.Color) Option {
	return func(s *settings) { s.fill = &c }
}

// WithErrorPolicy decides what a page failure does. FailFast, the
// default, stops at the first failing page and nothing is saved;
// BestEffort records the failure in Result.Failures, leaves that page
// unchanged and continues.
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(s *settings) { s.errorPolicy = p }
}

// WithWorkers processes up to n pages concurrently. Results are reported
// in page order whatever the processing order was.
func WithWorkers(n int) Option {
	return func(s *settings) { s.workers = max(n, 1) }
}

// WithMarkMargin grows every mark by points on each side
func WithMarkMargin(points float64) Option {
	return func(s *settings) { s.margin = points }
}

// WithOCRAudit recognizes the images of every stripped page afterwards
// and reports images that still show text as warnings
func WithOCRAudit(r ocr.Recognizer) Option {
	return func(s *settings) { s.recognizer = r }
}

// WithSaveOptions sets how StripFile and Job.SaveAs write the output
func WithSaveOptions(o writer.Options) Option {
	return func(s *settings) { s.save = o }
}
