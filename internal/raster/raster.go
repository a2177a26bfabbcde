package raster

import (
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
)

// PageImage is one rasterized page of a source document.
type PageImage struct {
	Number    int
	ImagePath string
	Width     int
	Height    int
}

// Rasterizer converts a PDF into one image file per page, in source order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outputDir string, dpi int) ([]PageImage, error)
}

// FitzRasterizer renders PDF pages to JPEG via MuPDF.
type FitzRasterizer struct {
	Quality int
}

func NewFitzRasterizer() *FitzRasterizer {
	return &FitzRasterizer{Quality: 90}
}

func (r *FitzRasterizer) Rasterize(ctx context.Context, pdfPath, outputDir string, dpi int) ([]PageImage, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if dpi <= 0 {
		dpi = 200
	}

	images := make([]PageImage, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}

		outputPath := filepath.Join(outputDir, fmt.Sprintf("%d.jpg", i+1))
		out, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create image for page %d: %w", i+1, err)
		}
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: r.Quality})
		out.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}

		bounds := img.Bounds()
		images = append(images, PageImage{
			Number:    i + 1,
			ImagePath: outputPath,
			Width:     bounds.Dx(),
			Height:    bounds.Dy(),
		})
	}

	return images, nil
}
