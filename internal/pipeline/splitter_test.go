package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/docstream/internal/models"
	"github.com/feichai0017/docstream/pkg/logger"
)

func TestSplitterRasterizesPDFIntoDocumentFolder(t *testing.T) {
	pagesDir := t.TempDir()
	rast := &fakeRasterizer{pageCount: 2}
	splitter := NewSplitter(rast, pagesDir, 200, logger.NewTestLogger())

	doc := &models.Document{ID: "doc-1", Filepath: "in.pdf", Type: models.TypePDF}
	pages, err := splitter.Split(context.Background(), doc)
	require.NoError(t, err)

	// Each document rasterizes into its own subfolder.
	assert.Equal(t, filepath.Join(pagesDir, "doc-1"), rast.lastDir)

	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, filepath.Join(pagesDir, "doc-1", "1.jpg"), pages[0].Filepath)
	assert.Equal(t, 2, pages[1].Number)
}

func TestSplitterImagePassthrough(t *testing.T) {
	splitter := NewSplitter(&fakeRasterizer{}, t.TempDir(), 200, logger.NewTestLogger())

	doc := &models.Document{ID: "doc-2", Filepath: "/uploads/doc-2/photo.png", Type: models.TypeImage}
	pages, err := splitter.Split(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, doc.Filepath, pages[0].Filepath)
}

func TestSplitterPropagatesRasterizerFailure(t *testing.T) {
	rast := &fakeRasterizer{err: errors.New("not a pdf")}
	splitter := NewSplitter(rast, t.TempDir(), 200, logger.NewTestLogger())

	doc := &models.Document{ID: "doc-3", Filepath: "bad.pdf", Type: models.TypePDF}
	pages, err := splitter.Split(context.Background(), doc)
	require.Error(t, err)
	assert.Nil(t, pages)
}

func TestSplitterRejectsUnknownType(t *testing.T) {
	splitter := NewSplitter(&fakeRasterizer{}, t.TempDir(), 200, logger.NewTestLogger())

	doc := &models.Document{ID: "doc-4", Filepath: "blob", Type: models.TypeUnknown}
	_, err := splitter.Split(context.Background(), doc)
	assert.Error(t, err)
}
