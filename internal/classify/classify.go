package classify

import (
	"errors"
	"fmt"
	"strings"
)

// MaxUploadBytes is the hard size ceiling for uploaded documents.
const MaxUploadBytes = 5 << 20

var allowedContentTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"application/pdf": {},
}

var (
	ErrFileTooLarge         = errors.New("file size must not exceed 5MB")
	ErrUnsupportedMediaType = errors.New("file type must be JPEG, PNG, or PDF")
)

// Validate checks a declared content type and size against the accepted set.
// It is a pure gate; downstream extraction assumes a validated document.
func Validate(contentType string, sizeBytes int64) error {
	if sizeBytes > MaxUploadBytes {
		return ErrFileTooLarge
	}
	normalized := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if _, ok := allowedContentTypes[normalized]; !ok {
		return fmt.Errorf("%w (got %q)", ErrUnsupportedMediaType, contentType)
	}
	return nil
}

// IsPDF reports whether the declared content type is a PDF.
func IsPDF(contentType string) bool {
	normalized := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	return normalized == "application/pdf"
}
