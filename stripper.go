package textstrip

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/textstrip/blocks"
	"github.com/tsawler/textstrip/document"
	"github.com/tsawler/textstrip/model"
	"github.com/tsawler/textstrip/observability"
	"github.com/tsawler/textstrip/ocr"
	"github.com/tsawler/textstrip/pages"
	"github.com/tsawler/textstrip/redact"
)

// Stripper removes the text of a document's pages. A Stripper holds only
// configuration and may be used for several documents at once.
type Stripper struct {
	settings
}

// New creates a Stripper. Without options it strips every page, leaves
// images and graphics alone and stops at the first failing page.
func New(opts ...Option) *Stripper {
	s := &Stripper{settings: defaultSettings()}
	for _, opt := range opts {
		opt(&s.settings)
	}
	return s
}

// outcome is the result of one page, kept by position so concurrent
// workers never reorder results
type outcome struct {
	done   bool
	result PageResult
	err    error
}

// Strip removes the text of the selected pages of doc in place. Each page
// is extracted into blocks, every Text block becomes a redaction mark and
// the marks are applied in one batch.
//
// Under FailFast the first page error is returned as a *PageError
// together with the results of the pages processed before it. Context
// errors are returned as they are.
func (s *Stripper) Strip(ctx context.Context, doc *document.Document) (*Result, error) {
	if s.margin < 0 {
		return nil, fmt.Errorf("mark margin must not be negative, got %g", s.margin)
	}
	all, err := doc.Pages()
	if err != nil {
		return nil, &OpenError{Path: doc.Path(), Err: err}
	}
	numbers, err := selectPages(s.pages, len(all))
	if err != nil {
		return nil, err
	}

	result := &Result{PageCount: len(all)}
	outcomes := make([]outcome, len(numbers))
	run := func(ctx context.Context, i int) error {
		n := numbers[i]
		pr, err := s.stripPage(ctx, doc, all[n-1], n)
		outcomes[i] = outcome{done: true, result: pr, err: err}
		if err == nil {
			return nil
		}
		if isContextError(err) || s.errorPolicy == FailFast {
			return err
		}
		s.logger.Warn("Skipping page", observability.Int("page", n), observability.Error(err))
		return nil
	}

	if s.workers <= 1 || len(numbers) <= 1 {
		for i := range numbers {
			if err := ctx.Err(); err != nil {
				result.collect(outcomes)
				return result, err
			}
			if err := run(ctx, i); err != nil {
				result.collect(outcomes)
				return result, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)
		for i := range numbers {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return run(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			result.collect(outcomes)
			return result, err
		}
	}
	result.collect(outcomes)

	if s.recognizer != nil {
		if err := s.audit(ctx, doc, all, result); err != nil {
			return result, err
		}
	}
	s.logger.Info("Stripped pages",
		observability.Int("pages", len(result.Pages)),
		observability.Int("failed", len(result.Failures)),
		observability.Int("text_blocks", result.TextBlocks()))
	return result, nil
}

// stripPage runs extract, mark and apply for one page
func (s *Stripper) stripPage(ctx context.Context, doc *document.Document, page *pages.Page, number int) (PageResult, error) {
	log := s.logger.With(observability.Int("page", number))
	log.Info("Processing page")

	pr := PageResult{Page: number}
	found, err := blocks.Extract(doc, page)
	if err != nil {
		return pr, &PageError{Page: number, Stage: StageExtract, Err: err}
	}

	rp := redact.NewPage(doc, page)
	images := 0
	for _, b := range found {
		switch b.Kind {
		case model.BlockText:
			log.Debug("Removing text block",
				observability.Any("bbox", b.BBox),
				observability.Int("lines", b.Lines))
			rp.AddMark(model.Mark{Rect: b.BBox.Expand(s.margin), Fill: s.fill})
			pr.TextBlocks++
		case model.BlockImage:
			images++
		}
	}

	stats, err := rp.Apply(ctx, s.policy)
	if err != nil {
		if isContextError(err) {
			return pr, err
		}
		return pr, &PageError{Page: number, Stage: StageApply, Err: err}
	}
	pr.TextRemoved = stats.TextRemoved
	pr.ImagesRemoved = stats.ImagesRemoved
	pr.ImagesBlanked = stats.ImagesBlanked
	pr.ImagesKept = images - stats.ImagesRemoved
	pr.PathsRemoved = stats.PathsRemoved
	pr.FormsCopied = stats.FormsCopied
	return pr, nil
}

// audit looks for raster text in the images of every stripped page. An
// unusable recognizer turns into a warning; only context errors abort.
func (s *Stripper) audit(ctx context.Context, doc *document.Document, all []*pages.Page, result *Result) error {
	for _, pr := range result.Pages {
		findings, err := ocr.AuditPage(ctx, s.recognizer, doc, all[pr.Page-1], pr.Page)
		switch {
		case isContextError(err):
			return err
		case errors.Is(err, ocr.ErrOCRNotEnabled):
			s.logger.Warn("OCR audit skipped", observability.Error(err))
			result.warn(0, "OCR audit skipped: %v", err)
			return nil
		case err != nil:
			result.warn(pr.Page, "OCR audit failed: %v", err)
		}
		for _, f := range findings {
			s.logger.Warn("Image still shows text",
				observability.Int("page", f.Page),
				observability.String("image", f.Image))
			result.warn(f.Page, "image %s still shows text %q", f.Image, excerpt(f.Text, 40))
		}
	}
	return nil
}

// collect copies finished outcomes into the result in page order
func (r *Result) collect(outcomes []outcome) {
	for _, o := range outcomes {
		if !o.done {
			continue
		}
		var pe *PageError
		switch {
		case o.err == nil:
			r.Pages = append(r.Pages, o.result)
		case errors.As(o.err, &pe):
			r.Failures = append(r.Failures, pe)
		}
	}
}

// selectPages validates 1-based page numbers and returns them sorted
// without duplicates. No selection means every page.
func selectPages(selected []int, count int) ([]int, error) {
	if len(selected) == 0 {
		numbers := make([]int, count)
		for i := range numbers {
			numbers[i] = i + 1
		}
		return numbers, nil
	}

	seen := make(map[int]bool)
	var numbers []int
	for _, p := range selected {
		if p < 1 || p > count {
			return nil, fmt.Errorf("page %d out of range (1-%d)", p, count)
		}
		if !seen[p] {
			seen[p] = true
			numbers = append(numbers, p)
		}
	}
	sort.Ints(numbers)
	return numbers, nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
