package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/feichai0017/docstream/internal/models"
	"github.com/feichai0017/docstream/internal/raster"
	"github.com/feichai0017/docstream/pkg/logger"
)

// PageRef is one entry of a splitter result: a 1-based page number and the
// path of its image.
type PageRef struct {
	Number   int
	Filepath string
}

// Splitter turns a document into an ordered sequence of page images. PDFs
// are rasterized into a per-document subfolder so same-named uploads never
// collide; single-image (and plain text) documents reuse the source file
// as their only page.
type Splitter struct {
	rasterizer raster.Rasterizer
	pagesDir   string
	dpi        int
	logger     logger.Logger
}

func NewSplitter(rasterizer raster.Rasterizer, pagesDir string, dpi int, log logger.Logger) *Splitter {
	if dpi <= 0 {
		dpi = 200
	}
	return &Splitter{
		rasterizer: rasterizer,
		pagesDir:   pagesDir,
		dpi:        dpi,
		logger:     log,
	}
}

// Split returns the pages of doc in order. On failure no pages are
// reported at all; the caller fails the whole document.
func (s *Splitter) Split(ctx context.Context, doc *models.Document) ([]PageRef, error) {
	switch doc.Type {
	case models.TypePDF:
		outputDir := filepath.Join(s.pagesDir, doc.ID)
		images, err := s.rasterizer.Rasterize(ctx, doc.Filepath, outputDir, s.dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to split pdf: %w", err)
		}

		pages := make([]PageRef, 0, len(images))
		for _, img := range images {
			pages = append(pages, PageRef{Number: img.Number, Filepath: img.ImagePath})
		}
		s.logger.Info("Split document into pages",
			logger.String("documentId", doc.ID),
			logger.Int("pageCount", len(pages)),
		)
		return pages, nil

	case models.TypeImage, models.TypeText:
		// Already a single page; no re-encoding.
		return []PageRef{{Number: 1, Filepath: doc.Filepath}}, nil

	default:
		return nil, fmt.Errorf("cannot split document of type %q", doc.Type)
	}
}
