package document

import (
	"context"
	"io"

	"github.com/feichai0017/docstream/internal/models"
)

// Service is the ingestion surface the HTTP handlers and CLI talk to.
type Service interface {
	// Ingest accepts an uploaded file, persists it, creates the document
	// record with status Processing and schedules it for processing.
	Ingest(ctx context.Context, reader io.Reader, filename string) (*models.Document, error)
	// IngestPath ingests an existing file on disk. id is optional; a new
	// one is generated when empty.
	IngestPath(ctx context.Context, path, id string) (*models.Document, error)

	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context) ([]*models.Document, error)
	ListPages(ctx context.Context, documentID string) ([]*models.Page, error)
	SearchPages(ctx context.Context, term string) ([]*models.Page, error)
	DeleteDocument(ctx context.Context, id string) error
}

// Enqueuer schedules a document for background processing.
type Enqueuer interface {
	Enqueue(ctx context.Context, doc *models.Document) error
}
