package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type stubRunner struct {
	calls  int
	output string
	err    error
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls++
	if s.err != nil {
		return nil, []byte("boom"), s.err
	}
	return []byte(s.output), nil, nil
}

func TestImageGoesStraightToOCR(t *testing.T) {
	runner := &stubRunner{output: "Invoice #1042, Acme Corp, $450.00"}
	p := NewPipeline(Config{Runner: runner})

	res, err := p.Extract(context.Background(), []byte("not-a-real-image"), "image/png")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Source != SourceOCR {
		t.Fatalf("expected ocr source, got %s", res.Source)
	}
	if res.PageCount != 1 {
		t.Fatalf("expected 1 page, got %d", res.PageCount)
	}
	if !strings.Contains(res.Text, "Acme Corp") {
		t.Fatalf("unexpected text: %q", res.Text)
	}
	if runner.calls != 1 {
		t.Fatalf("expected 1 runner call, got %d", runner.calls)
	}
}

func TestEmptyOCRResultIsNotAnError(t *testing.T) {
	runner := &stubRunner{output: ""}
	p := NewPipeline(Config{Runner: runner})

	res, err := p.Extract(context.Background(), []byte("blank"), "image/jpeg")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if strings.TrimSpace(res.Text) != "" {
		t.Fatalf("expected empty text, got %q", res.Text)
	}
}

func TestOCRFailureIsFatal(t *testing.T) {
	runner := &stubRunner{err: errors.New("exit status 1")}
	p := NewPipeline(Config{Runner: runner})

	if _, err := p.Extract(context.Background(), []byte("img"), "image/png"); err == nil {
		t.Fatal("expected error from failing OCR")
	}
}

func TestNativeTextShortCircuitsOCR(t *testing.T) {
	runner := &stubRunner{output: "should never be used"}
	p := NewPipeline(Config{Runner: runner})

	res, err := p.Extract(context.Background(), textPDF(t, "Invoice 1042 Acme Corp"), "application/pdf")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Source != SourceNative {
		t.Fatalf("expected native source, got %s", res.Source)
	}
	if !strings.Contains(res.Text, "Invoice 1042") {
		t.Fatalf("expected native text, got %q", res.Text)
	}
	if runner.calls != 0 {
		t.Fatalf("OCR must not run when native text is present; got %d calls", runner.calls)
	}
}

func TestMalformedPDFFails(t *testing.T) {
	p := NewPipeline(Config{Runner: &stubRunner{}})
	if _, err := p.Extract(context.Background(), []byte("%PDF-1.4 garbage"), "application/pdf"); err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewPipeline(Config{Runner: &stubRunner{}})
	if _, err := p.Extract(ctx, []byte("x"), "image/png"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// textPDF assembles a one-page PDF with an uncompressed Helvetica text stream,
// computing xref offsets as it goes.
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
