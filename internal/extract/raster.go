package extract

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
)

// rasterizePDF renders every page of the PDF to a PNG at the configured DPI,
// writing into dir. Returned paths are in page order. The same full-page
// strategy is applied uniformly to all pages.
func rasterizePDF(data []byte, dir string, dpi int) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("rasterize: open pdf: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("rasterize: pdf has no pages")
	}

	paths := make([]string, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		img, err := doc.ImageDPI(pageNum, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("rasterize: page %d: %w", pageNum+1, err)
		}
		outPath := filepath.Join(dir, fmt.Sprintf("page-%03d.png", pageNum+1))
		f, err := os.Create(outPath)
		if err != nil {
			return nil, fmt.Errorf("rasterize: page %d: %w", pageNum+1, err)
		}
		err = png.Encode(f, img)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("rasterize: encode page %d: %w", pageNum+1, err)
		}
		paths = append(paths, outPath)
	}
	return paths, nil
}
