package store

import (
	"context"
	"errors"

	"github.com/feichai0017/docstream/internal/models"
)

var (
	// ErrNotFound is returned when a document or page does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrExists is returned when creating a record whose key is taken.
	ErrExists = errors.New("record already exists")
)

// Store persists documents and their pages. Each pipeline stage persists
// its own output independently; there is no cross-stage transaction. A
// document's pages are owned by the document and are removed with it.
type Store interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	UpdateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	CreatePage(ctx context.Context, page *models.Page) error
	UpdatePage(ctx context.Context, page *models.Page) error
	GetPage(ctx context.Context, documentID string, number int) (*models.Page, error)
	ListPages(ctx context.Context, documentID string) ([]*models.Page, error)

	// SearchPages returns pages whose extracted text contains the term,
	// case-insensitively.
	SearchPages(ctx context.Context, term string) ([]*models.Page, error)
}
