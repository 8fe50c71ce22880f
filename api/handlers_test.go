package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/tsawler/textstrip"
	"github.com/tsawler/textstrip/blocks"
	"github.com/tsawler/textstrip/core"
	"github.com/tsawler/textstrip/document"
	"github.com/tsawler/textstrip/internal/pdftest"
	"github.com/tsawler/textstrip/model"
	"github.com/tsawler/textstrip/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, maxSize int64) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	return NewServer(&Config{Port: "0", MaxFileSize: maxSize, TempDir: dir}, nil), dir
}

func samplePDF(pages ...string) []byte {
	b := pdftest.New()
	font := b.Add(pdftest.Helvetica())
	img := b.Add(pdftest.GrayImage(2, 2, []byte{1, 2, 3, 4}))
	res := pdftest.Resources(map[string]core.Object{"F1": font}, map[string]core.Object{"Im1": img})
	for _, content := range pages {
		b.AddPage(content, res)
	}
	return b.Bytes()
}

// multipartRequest builds a POST with an optional file and form fields
func multipartRequest(t *testing.T, path, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(data)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func assertTempDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)
	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"healthy"`) {
		t.Errorf("GET /health = %d %s", w.Code, w.Body.String())
	}
}

func TestHandleStrip(t *testing.T) {
	s, dir := newTestServer(t, 1<<20)
	data := samplePDF(
		"BT /F1 12 Tf 72 700 Td (Secret) Tj ET q 20 0 0 20 300 300 cm /Im1 Do Q",
		"BT /F1 12 Tf 72 700 Td (Keep me) Tj ET",
	)
	req := multipartRequest(t, "/api/strip", "report.pdf", data, map[string]string{"pages": "1"})
	w := serve(s, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, `"report_cleaned.pdf"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if got := w.Header().Get("X-Text-Blocks-Removed"); got != "1" {
		t.Errorf("X-Text-Blocks-Removed = %q", got)
	}

	doc, err := document.OpenBytes(w.Body.Bytes())
	if err != nil {
		t.Fatalf("response is not a PDF: %v", err)
	}
	defer doc.Close()
	all, _ := doc.Pages()
	if len(all) != 2 {
		t.Fatalf("pages = %d", len(all))
	}
	first, _ := blocks.Extract(doc, all[0])
	second, _ := blocks.Extract(doc, all[1])
	if len(first) != 1 || first[0].Name != "Im1" {
		t.Errorf("page 1 blocks = %+v, want only the image", first)
	}
	if len(second) != 1 || second[0].Text != "Keep me" {
		t.Errorf("page 2 blocks = %+v, want its text kept", second)
	}
	assertTempDirEmpty(t, dir)
}

func TestHandleStripRequestPagesReplaceDefault(t *testing.T) {
	dir := t.TempDir()
	s := NewServer(&Config{Port: "0", MaxFileSize: 1 << 20, TempDir: dir}, nil, textstrip.WithPages(1))
	data := samplePDF(
		"BT /F1 12 Tf 72 700 Td (First) Tj ET",
		"BT /F1 12 Tf 72 700 Td (Second) Tj ET",
	)
	w := serve(s, multipartRequest(t, "/api/strip", "in.pdf", data, map[string]string{"pages": "2"}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	doc, err := document.OpenBytes(w.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()
	all, _ := doc.Pages()
	first, _ := blocks.Extract(doc, all[0])
	second, _ := blocks.Extract(doc, all[1])
	if blocks.Count(first, model.BlockText) != 1 || blocks.Count(second, model.BlockText) != 0 {
		t.Errorf("want only page 2 stripped, got %d and %d text blocks",
			blocks.Count(first, model.BlockText), blocks.Count(second, model.BlockText))
	}
	assertTempDirEmpty(t, dir)
}

func TestHandleStripErrors(t *testing.T) {
	valid := samplePDF("BT /F1 12 Tf 72 700 Td (x) Tj ET")

	broken := pdftest.New()
	broken.AddPageDict("", core.Dict{"Contents": core.Int(5)})

	tests := []struct {
		name    string
		maxSize int64
		data    []byte
		fields  map[string]string
		want    int
	}{
		{"no file", 1 << 20, nil, nil, http.StatusBadRequest},
		{"not a PDF", 1 << 20, []byte("hello world"), nil, http.StatusBadRequest},
		{"too large", 64, valid, nil, http.StatusRequestEntityTooLarge},
		{"unparseable", 1 << 20, []byte("%PDF-1.4\nnothing to see here\n%%EOF\n"), nil, http.StatusUnprocessableEntity},
		{"bad pages", 1 << 20, valid, map[string]string{"pages": "0-2"}, http.StatusBadRequest},
		{"bad image policy", 1 << 20, valid, map[string]string{"images": "erase"}, http.StatusBadRequest},
		{"page failure", 1 << 20, broken.Bytes(), nil, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, dir := newTestServer(t, tt.maxSize)
			w := serve(s, multipartRequest(t, "/api/strip", "in.pdf", tt.data, tt.fields))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Errorf("error body = %s", w.Body.String())
			}
			assertTempDirEmpty(t, dir)
		})
	}
}

func TestHandleInspect(t *testing.T) {
	s, dir := newTestServer(t, 1<<20)
	data := samplePDF("BT /F1 12 Tf 72 700 Td (Hello) Tj ET q 20 0 0 20 300 300 cm /Im1 Do Q")
	w := serve(s, multipartRequest(t, "/api/inspect", "../../etc/hello.pdf", data, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var r report.Report
	if err := json.Unmarshal(w.Body.Bytes(), &r); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(r.Pages) != 1 || r.Pages[0].Text != 1 || r.Pages[0].Images != 1 {
		t.Errorf("report = %+v", r)
	}
	if strings.Contains(r.Path, "/") {
		t.Errorf("report path %q was not sanitized", r.Path)
	}
	assertTempDirEmpty(t, dir)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "__etc_passwd"},
		{`dir\file.pdf`, "dir_file.pdf"},
		{"  ", "document.pdf"},
		{"", "document.pdf"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"report.pdf", "report_cleaned.pdf"},
		{"SCAN.PDF", "SCAN_cleaned.pdf"},
		{"notes", "notes_cleaned.pdf"},
	}
	for _, tt := range tests {
		if got := outputName(tt.in, "cleaned"); got != tt.want {
			t.Errorf("outputName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
