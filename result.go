package textstrip

import (
	"fmt"
	"sort"
	"strings"
)

// PageResult counts what was done to one page
type PageResult struct {
	Page          int // 1-based
	TextBlocks    int // text blocks found and marked
	TextRemoved   int // text-showing operations rewritten
	ImagesKept    int
	ImagesRemoved int
	ImagesBlanked int
	PathsRemoved  int
	FormsCopied   int
}

// Warning is a non-fatal finding. Page is 0 for document-wide warnings.
type Warning struct {
	Page    int
	Message string
}

func (w Warning) String() string {
	if w.Page == 0 {
		return w.Message
	}
	return fmt.Sprintf("page %d: %s", w.Page, w.Message)
}

// Result describes a stripping run. Pages lists the processed pages in
// document order; pages that failed under BestEffort appear in Failures
// instead.
type Result struct {
	PageCount int // pages in the document
	Pages     []PageResult
	Failures  []*PageError
	Warnings  []Warning
}

// TextBlocks returns the number of text blocks removed on all pages
func (r *Result) TextBlocks() int {
	n := 0
	for _, p := range r.Pages {
		n += p.TextBlocks
	}
	return n
}

// Failed reports whether any page could not be processed
func (r *Result) Failed() bool {
	return len(r.Failures) > 0
}

func (r *Result) warn(page int, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Page: page, Message: fmt.Sprintf(format, args...)})
}

// FormatWarnings joins warnings one per line, ordered by page
func FormatWarnings(warnings []Warning) string {
	sorted := append([]Warning(nil), warnings...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Page < sorted[j].Page })
	lines := make([]string, len(sorted))
	for i, w := range sorted {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}
