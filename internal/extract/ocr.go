package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"invoice-backend/internal/shared/telemetry"
)

// Runner lets us stub the external OCR command in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	if err != nil {
		telemetry.Error("ocr.exec.failed", map[string]any{
			"cmd":    name,
			"args":   strings.Join(args, " "),
			"err":    err.Error(),
			"stderr": truncate(errb.String(), 8<<10),
		})
	}
	return out.Bytes(), errb.Bytes(), err
}

// Engine wraps one recognition session over an external tesseract process.
// It owns a scratch directory and must be released with Close on every exit
// path of the enclosing extraction attempt.
type Engine struct {
	runner  Runner
	bin     string
	lang    string
	workDir string
	closed  bool
}

func newEngine(runner Runner, bin, lang string) (*Engine, error) {
	dir, err := os.MkdirTemp("", "invoice-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("ocr engine: %w", err)
	}
	return &Engine{runner: runner, bin: bin, lang: lang, workDir: dir}, nil
}

// WriteImage stores raw image bytes in the engine's scratch directory and
// returns the path for a subsequent Recognize call.
func (e *Engine) WriteImage(name string, data []byte) (string, error) {
	path := filepath.Join(e.workDir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("ocr engine: write image: %w", err)
	}
	return path, nil
}

// Recognize runs OCR over a single raster image and returns plain text.
// Empty recognized text is a valid result, not an error.
func (e *Engine) Recognize(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout", "-l", e.lang}
	out, _, err := e.runner.Run(ctx, e.bin, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

// Close terminates the session and removes scratch files. Safe to call twice.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.workDir == "" {
		return nil
	}
	return os.RemoveAll(e.workDir)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
