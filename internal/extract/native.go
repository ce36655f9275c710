package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// nativePDFText reads embedded text content from the PDF's internal structure
// without rendering pixels. Library: github.com/ledongthuc/pdf.
func nativePDFText(data []byte) (text string, pageCount int, err error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("native extract: %w", err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("native extract: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", 0, fmt.Errorf("native extract: %w", err)
	}
	return buf.String(), pdfReader.NumPage(), nil
}
