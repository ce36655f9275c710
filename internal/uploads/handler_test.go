package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"invoice-backend/internal/extract"
)

type stubRunner struct {
	stdout []byte
	err    error
	calls  int
}

func (r *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls++
	return r.stdout, nil, r.err
}

func newTestHandler(runner extract.Runner, keywords []string) *Handler {
	h := NewHandler(extract.NewPipeline(extract.Config{Runner: runner}), keywords)
	h.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return h
}

func newUploadRouter(h *Handler, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userId", userID)
		}
		c.Next()
	})
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func multipartBody(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func postUpload(t *testing.T, r *gin.Engine, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, formCT := multipartBody(t, filename, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", body)
	req.Header.Set("Content-Type", formCT)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadImageReturnsDataURL(t *testing.T) {
	runner := &stubRunner{stdout: []byte("INVOICE #1042 Acme Corp")}
	r := newUploadRouter(newTestHandler(runner, nil), "user-1")

	w := postUpload(t, r, "scan.png", "image/png", []byte("fake-png-bytes"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.URL, "data:image/png;base64,") {
		t.Fatalf("expected data URL, got %q", resp.URL)
	}
	if resp.Pathname != "/uploads/1700000000000-scan.png" {
		t.Fatalf("unexpected pathname %q", resp.Pathname)
	}
	if resp.ContentType != "image/png" {
		t.Fatalf("unexpected contentType %q", resp.ContentType)
	}
	if !strings.Contains(resp.ExtractedText, "INVOICE #1042") {
		t.Fatalf("expected OCR text, got %q", resp.ExtractedText)
	}
	if runner.calls == 0 {
		t.Fatal("expected OCR to run for image upload")
	}
}

func TestUploadNativePDFSkipsOCR(t *testing.T) {
	runner := &stubRunner{stdout: []byte("should not be used")}
	r := newUploadRouter(newTestHandler(runner, nil), "user-1")

	w := postUpload(t, r, "invoice.pdf", "application/pdf", textPDF(t, "Invoice 1042 for Acme"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.URL != pdfThumbnailURL {
		t.Fatalf("expected static thumbnail URL, got %q", resp.URL)
	}
	if !strings.Contains(resp.ExtractedText, "Invoice 1042") {
		t.Fatalf("expected native text, got %q", resp.ExtractedText)
	}
	if runner.calls != 0 {
		t.Fatal("native text present, OCR must not run")
	}
}

func TestUploadRequiresIdentity(t *testing.T) {
	r := newUploadRouter(newTestHandler(&stubRunner{}, nil), "")
	w := postUpload(t, r, "scan.png", "image/png", []byte("x"))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestUploadMissingFile(t *testing.T) {
	r := newUploadRouter(newTestHandler(&stubRunner{}, nil), "user-1")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUploadUnsupportedType(t *testing.T) {
	r := newUploadRouter(newTestHandler(&stubRunner{}, nil), "user-1")
	w := postUpload(t, r, "notes.txt", "text/plain", []byte("hello"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "JPEG, PNG, or PDF") {
		t.Fatalf("unexpected message: %s", w.Body.String())
	}
}

func TestUploadTooLarge(t *testing.T) {
	r := newUploadRouter(newTestHandler(&stubRunner{}, nil), "user-1")
	big := bytes.Repeat([]byte("a"), (5<<20)+1)
	w := postUpload(t, r, "scan.png", "image/png", big)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "less than 5MB") {
		t.Fatalf("unexpected message: %s", w.Body.String())
	}
}

func TestUploadRejectedKeyword(t *testing.T) {
	runner := &stubRunner{stdout: []byte("GROCERY RECEIPT total $12.00")}
	r := newUploadRouter(newTestHandler(runner, []string{"receipt", "account statement"}), "user-1")

	w := postUpload(t, r, "scan.png", "image/png", []byte("fake"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "receipt") {
		t.Fatalf("expected matched keyword in message: %s", w.Body.String())
	}
}

func TestUploadExtractionFailure(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("tesseract: command not found")}
	r := newUploadRouter(newTestHandler(runner, nil), "user-1")

	w := postUpload(t, r, "scan.png", "image/png", []byte("fake"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Failed to process file") {
		t.Fatalf("unexpected message: %s", w.Body.String())
	}
}

// textPDF builds a minimal one-page PDF whose text layer contains text.
func textPDF(t *testing.T, text string) []byte {
	t.Helper()

	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)
	return buf.Bytes()
}
