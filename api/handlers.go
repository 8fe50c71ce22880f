package api

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tsawler/textstrip"
	"github.com/tsawler/textstrip/config"
	"github.com/tsawler/textstrip/document"
	"github.com/tsawler/textstrip/observability"
	"github.com/tsawler/textstrip/redact"
	"github.com/tsawler/textstrip/report"
)

var (
	errTooLarge = errors.New("file too large")
	errNotPDF   = errors.New("invalid PDF file: header does not match")
)

// upload is a received file stored in the temp directory
type upload struct {
	path     string
	filename string
	id       string
}

// HandleStrip removes the text of an uploaded PDF and returns the result
func (s *Server) HandleStrip(c *gin.Context) {
	up, ok := s.receive(c)
	if !ok {
		return
	}
	defer os.Remove(up.path)

	opts, err := requestOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outFile := filepath.Join(s.config.TempDir, "output_"+up.id+"_cleaned.pdf")
	defer os.Remove(outFile)

	log := s.logger.With(observability.String("upload", up.filename))
	all := make([]textstrip.Option, 0, len(s.options)+len(opts)+1)
	all = append(all, s.options...)
	all = append(all, opts...)
	all = append(all, textstrip.WithLogger(log))
	result, err := textstrip.StripFile(c.Request.Context(), up.path, outFile, all...)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName(up.filename, "cleaned")))
	c.Header("X-Text-Blocks-Removed", strconv.Itoa(result.TextBlocks()))
	c.Header("X-Pages-Failed", strconv.Itoa(len(result.Failures)))
	c.File(outFile)
}

// HandleInspect returns the block report of an uploaded PDF
func (s *Server) HandleInspect(c *gin.Context) {
	up, ok := s.receive(c)
	if !ok {
		return
	}
	defer os.Remove(up.path)

	doc, err := document.Open(up.path)
	if err != nil {
		s.fail(c, &textstrip.OpenError{Path: up.filename, Err: err})
		return
	}
	defer doc.Close()

	r, err := report.Build(doc)
	if err != nil {
		s.fail(c, err)
		return
	}
	r.Path = up.filename

	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

// receive validates the "file" form field and stores it in the temp
// directory. On failure the response has been written.
func (s *Server) receive(c *gin.Context) (*upload, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxFileSize+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds maximum allowed %d bytes", s.config.MaxFileSize)})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No PDF file provided"})
		return nil, false
	}
	defer file.Close()

	if err := validatePDFFile(file, header, s.config.MaxFileSize); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return nil, false
	}

	if err := ensureTempDir(s.config.TempDir); err != nil {
		s.logger.Error("Failed to create temp directory", observability.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create temp directory"})
		return nil, false
	}

	id := generateUniqueID()
	up := &upload{
		path:     filepath.Join(s.config.TempDir, "input_"+id+".pdf"),
		filename: sanitizeFilename(header.Filename),
		id:       id,
	}
	out, err := os.Create(up.path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create temp file"})
		return nil, false
	}
	_, err = io.Copy(out, file)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(up.path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save input file"})
		return nil, false
	}
	return up, true
}

// requestOptions reads the optional pages, images and graphics fields.
// They are applied after the server options and replace them.
func requestOptions(c *gin.Context) ([]textstrip.Option, error) {
	var opts []textstrip.Option
	if spec := strings.TrimSpace(c.PostForm("pages")); spec != "" {
		pages, err := config.ParsePageSpecifier(spec)
		if err != nil {
			return nil, err
		}
		opts = append(opts, textstrip.WithPages(pages...))
	}
	if v := c.PostForm("images"); v != "" {
		p, err := redact.ParseImagePolicy(v)
		if err != nil {
			return nil, err
		}
		opts = append(opts, textstrip.WithImagePolicy(p))
	}
	if v := c.PostForm("graphics"); v != "" {
		p, err := redact.ParseGraphicsPolicy(v)
		if err != nil {
			return nil, err
		}
		opts = append(opts, textstrip.WithGraphicsPolicy(p))
	}
	return opts, nil
}

// fail maps a processing error to a status code and a short message.
// Page and save errors are server errors.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var openErr *textstrip.OpenError
	switch {
	case errors.As(err, &openErr):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	s.logger.Error("PDF operation failed", observability.Int("status", status), observability.Error(err))

	msg := err.Error()
	if len(msg) > maxErrorLength {
		msg = msg[:maxErrorLength] + "..."
	}
	c.JSON(status, gin.H{"error": msg})
}

func ensureTempDir(tempDir string) error {
	return os.MkdirAll(tempDir, DefaultFilePermissions)
}

// sanitizeFilename strips directories and traversal from a client name
func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" || filename == "." {
		filename = "document.pdf"
	}
	return filename
}

// outputName derives the download name, "report.pdf" -> "report_cleaned.pdf"
func outputName(original, suffix string) string {
	base := original
	if strings.HasSuffix(strings.ToLower(base), ".pdf") {
		base = base[:len(base)-4]
	}
	return sanitizeFilename(base + "_" + suffix + ".pdf")
}

func generateUniqueID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%d_%s", time.Now().UnixNano(), hex.EncodeToString(b))
}

// validatePDFFile checks the declared size and the %PDF signature, then
// rewinds the file
func validatePDFFile(file multipart.File, header *multipart.FileHeader, maxSize int64) error {
	if header.Size > maxSize {
		return fmt.Errorf("%w: %d bytes exceeds maximum allowed %d bytes", errTooLarge, header.Size, maxSize)
	}

	buffer := make([]byte, 4)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("failed to read file header: %w", err)
	}
	if n < 4 || string(buffer) != "%PDF" {
		return errNotPDF
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to reset file position: %w", err)
	}
	return nil
}
