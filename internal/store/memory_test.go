package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/docstream/internal/models"
)

func newDocument(id string, createdAt time.Time) *models.Document {
	return &models.Document{
		ID:        id,
		Name:      id + ".pdf",
		Filepath:  "/uploads/" + id + ".pdf",
		Type:      models.TypePDF,
		Status:    models.StatusProcessing,
		CreatedAt: createdAt,
	}
}

func TestMemoryStoreDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	doc := newDocument("a", time.Now())
	require.NoError(t, s.CreateDocument(ctx, doc))

	assert.ErrorIs(t, s.CreateDocument(ctx, doc), ErrExists)

	got, err := s.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, got.Status)

	doc.Status = models.StatusReady
	require.NoError(t, s.UpdateDocument(ctx, doc))
	got, err = s.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, got.Status)

	_, err = s.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateDocument(ctx, newDocument("missing", time.Now())), ErrNotFound)
	assert.ErrorIs(t, s.DeleteDocument(ctx, "missing"), ErrNotFound)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateDocument(ctx, newDocument("a", time.Now())))

	got, err := s.GetDocument(ctx, "a")
	require.NoError(t, err)
	got.Status = models.StatusError

	again, err := s.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, again.Status, "mutating a returned document must not affect the store")
}

func TestMemoryStoreListDocumentsOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Now()
	require.NoError(t, s.CreateDocument(ctx, newDocument("late", base.Add(time.Hour))))
	require.NoError(t, s.CreateDocument(ctx, newDocument("early", base)))

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "early", docs[0].ID)
	assert.Equal(t, "late", docs[1].ID)
}

func TestMemoryStorePages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateDocument(ctx, newDocument("doc", time.Now())))

	for _, n := range []int{2, 1, 3} {
		require.NoError(t, s.CreatePage(ctx, &models.Page{
			DocumentID: "doc", Number: n, Status: models.StatusProcessing,
		}))
	}

	assert.ErrorIs(t, s.CreatePage(ctx, &models.Page{DocumentID: "doc", Number: 1}), ErrExists)

	pages, err := s.ListPages(ctx, "doc")
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, page := range pages {
		assert.Equal(t, i+1, page.Number)
	}

	page := pages[1]
	page.Status = models.StatusReady
	page.Text = "The quick brown fox"
	require.NoError(t, s.UpdatePage(ctx, page))

	got, err := s.GetPage(ctx, "doc", 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, got.Status)

	_, err = s.GetPage(ctx, "doc", 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdatePage(ctx, &models.Page{DocumentID: "doc", Number: 9}), ErrNotFound)
}

func TestMemoryStoreSearchPages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreatePage(ctx, &models.Page{
		DocumentID: "doc", Number: 1, Text: "Invoice total: 100 EUR", Status: models.StatusReady,
	}))
	require.NoError(t, s.CreatePage(ctx, &models.Page{
		DocumentID: "doc", Number: 2, Text: "Terms and conditions", Status: models.StatusReady,
	}))

	pages, err := s.SearchPages(ctx, "INVOICE")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 1, pages[0].Number)

	pages, err = s.SearchPages(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestMemoryStoreDeleteCascadesPages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateDocument(ctx, newDocument("doc", time.Now())))
	require.NoError(t, s.CreatePage(ctx, &models.Page{DocumentID: "doc", Number: 1}))
	require.NoError(t, s.CreatePage(ctx, &models.Page{DocumentID: "other", Number: 1}))

	require.NoError(t, s.DeleteDocument(ctx, "doc"))

	pages, err := s.ListPages(ctx, "doc")
	require.NoError(t, err)
	assert.Empty(t, pages)

	// Unrelated pages survive.
	pages, err = s.ListPages(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}
