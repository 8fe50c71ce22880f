package textstrip

import "fmt"

// Stage names the step of page processing that failed
type Stage string

const (
	StageExtract Stage = "extract"
	StageApply   Stage = "apply"
)

// OpenError reports a source that could not be read or parsed as a PDF.
// It wraps document.ErrNotPDF, document.ErrEncrypted and friends.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to open PDF: %v", e.Err)
	}
	return fmt.Sprintf("failed to open PDF %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// PageError reports a page whose blocks could not be extracted or whose
// marks could not be applied
type PageError struct {
	Page  int // 1-based
	Stage Stage
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %s failed: %v", e.Page, e.Stage, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// SaveError reports an output that could not be written
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
