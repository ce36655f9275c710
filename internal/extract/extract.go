package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"invoice-backend/internal/classify"
	"invoice-backend/internal/shared/metrics"
	"invoice-backend/internal/shared/telemetry"
)

// Source identifies which stage produced the extracted text.
type Source string

const (
	SourceNative Source = "native"
	SourceOCR    Source = "ocr"
)

// Result is the terminal state of one extraction attempt. Empty Text after
// both native and OCR attempts is valid, not an error.
type Result struct {
	Text      string
	Source    Source
	PageCount int
}

// Config controls the OCR fallback path.
type Config struct {
	TesseractPath string
	TesseractLang string
	RasterDPI     int
	// Runner overrides the external command runner; nil uses exec.
	Runner Runner
}

// Pipeline extracts text from validated uploads. PDFs first get a native text
// pass; only a PDF whose trimmed native text is empty proceeds to the
// rasterize+OCR branch. Non-PDF images go straight to OCR.
type Pipeline struct {
	cfg    Config
	runner Runner
}

func NewPipeline(cfg Config) *Pipeline {
	if cfg.TesseractPath == "" {
		cfg.TesseractPath = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.RasterDPI <= 0 {
		cfg.RasterDPI = 300
	}
	runner := cfg.Runner
	if runner == nil {
		runner = execRunner{}
	}
	return &Pipeline{cfg: cfg, runner: runner}
}

// Extract runs the pipeline over an in-memory blob. Any rasterization or OCR
// failure is returned to the caller; there is no partial-result fallback.
func (p *Pipeline) Extract(ctx context.Context, data []byte, contentType string) (Result, error) {
	started := time.Now()
	result, err := p.extract(ctx, data, contentType)
	if err != nil {
		metrics.IncExtractionFailed()
		return Result{}, err
	}
	if result.Source == SourceNative {
		metrics.IncExtractionNative()
	} else {
		metrics.IncExtractionOCR()
	}
	metrics.ObserveExtractionDurationMs(float64(time.Since(started).Milliseconds()))
	return result, nil
}

func (p *Pipeline) extract(ctx context.Context, data []byte, contentType string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !classify.IsPDF(contentType) {
		return p.ocrImage(ctx, data)
	}

	text, pages, err := nativePDFText(data)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(text) != "" {
		return Result{Text: text, Source: SourceNative, PageCount: pages}, nil
	}

	telemetry.Info("extract.native.empty", map[string]any{"pages": pages})
	return p.ocrPDF(ctx, data)
}

// ocrPDF renders each page and recognizes them sequentially with one engine
// instance, joining page texts with a newline in page order.
func (p *Pipeline) ocrPDF(ctx context.Context, data []byte) (Result, error) {
	engine, err := newEngine(p.runner, p.cfg.TesseractPath, p.cfg.TesseractLang)
	if err != nil {
		return Result{}, err
	}
	defer engine.Close()

	pagePaths, err := rasterizePDF(data, engine.workDir, p.cfg.RasterDPI)
	if err != nil {
		return Result{}, err
	}

	var b strings.Builder
	for i, path := range pagePaths {
		txt, err := engine.Recognize(ctx, path)
		if err != nil {
			return Result{}, fmt.Errorf("ocr page %d: %w", i+1, err)
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
	}
	return Result{Text: b.String(), Source: SourceOCR, PageCount: len(pagePaths)}, nil
}

func (p *Pipeline) ocrImage(ctx context.Context, data []byte) (Result, error) {
	engine, err := newEngine(p.runner, p.cfg.TesseractPath, p.cfg.TesseractLang)
	if err != nil {
		return Result{}, err
	}
	defer engine.Close()

	path, err := engine.WriteImage("upload.img", data)
	if err != nil {
		return Result{}, err
	}
	txt, err := engine.Recognize(ctx, path)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: txt, Source: SourceOCR, PageCount: 1}, nil
}
