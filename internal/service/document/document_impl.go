package document

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/docstream/internal/models"
	"github.com/feichai0017/docstream/internal/pipeline"
	"github.com/feichai0017/docstream/internal/store"
	"github.com/feichai0017/docstream/pkg/logger"
	"github.com/feichai0017/docstream/pkg/storage"
)

type ServiceConfig struct {
	// UploadDir is the root for saved uploads; each document gets its own
	// subfolder keyed by id so same-named files never collide.
	UploadDir   string
	MaxFileSize int64 // bytes; 0 = unlimited
}

type documentService struct {
	store   store.Store
	queue   Enqueuer
	archive storage.Storage // optional; nil disables archival
	logger  logger.Logger
	config  *ServiceConfig
}

func NewService(
	st store.Store,
	queue Enqueuer,
	archive storage.Storage,
	log logger.Logger,
	cfg *ServiceConfig,
) Service {
	if cfg == nil {
		cfg = &ServiceConfig{
			UploadDir:   "media/uploads",
			MaxFileSize: 50 * 1024 * 1024, // 50MB
		}
	}
	return &documentService{
		store:   st,
		queue:   queue,
		archive: archive,
		logger:  log,
		config:  cfg,
	}
}

func (s *documentService) Ingest(ctx context.Context, reader io.Reader, filename string) (*models.Document, error) {
	id := uuid.New().String()

	dir := filepath.Join(s.config.UploadDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(filename))

	if err := s.saveFile(reader, path); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	doc, err := s.accept(ctx, path, id, filepath.Base(filename))
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return doc, nil
}

func (s *documentService) IngestPath(ctx context.Context, path, id string) (*models.Document, error) {
	if id == "" {
		id = uuid.New().String()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	return s.accept(ctx, path, id, filepath.Base(path))
}

// accept classifies the file, creates the Processing record and hands it
// to the queue. The id is never regenerated after this point.
func (s *documentService) accept(ctx context.Context, path, id, name string) (*models.Document, error) {
	docType, err := pipeline.DetectType(path)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:        id,
		Name:      name,
		Filepath:  path,
		Type:      docType,
		Status:    models.StatusProcessing,
		CreatedAt: time.Now(),
	}

	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	s.archiveOriginal(ctx, doc)

	if err := s.queue.Enqueue(ctx, doc); err != nil {
		// Undo the record so a later retry with the same file can succeed.
		if delErr := s.store.DeleteDocument(ctx, doc.ID); delErr != nil {
			s.logger.Error("Failed to roll back document record",
				logger.String("documentId", doc.ID),
				logger.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to enqueue document: %w", err)
	}

	s.logger.Info("Document accepted for processing",
		logger.String("documentId", doc.ID),
		logger.String("name", doc.Name),
		logger.String("type", string(doc.Type)),
	)
	return doc, nil
}

func (s *documentService) saveFile(reader io.Reader, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	src := reader
	if s.config.MaxFileSize > 0 {
		src = io.LimitReader(reader, s.config.MaxFileSize+1)
	}
	written, err := io.Copy(out, src)
	if err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}
	if s.config.MaxFileSize > 0 && written > s.config.MaxFileSize {
		return fmt.Errorf("file size exceeds maximum limit of %d bytes", s.config.MaxFileSize)
	}
	return nil
}

// archiveOriginal pushes the raw upload to object storage. Best-effort.
func (s *documentService) archiveOriginal(ctx context.Context, doc *models.Document) {
	if s.archive == nil {
		return
	}
	f, err := os.Open(doc.Filepath)
	if err != nil {
		s.logger.Warn("Failed to open upload for archival",
			logger.String("documentId", doc.ID),
			logger.Error(err),
		)
		return
	}
	defer f.Close()

	key := doc.ID + "/" + doc.Name
	if _, err := s.archive.Store(ctx, f, key); err != nil {
		s.logger.Warn("Failed to archive upload",
			logger.String("documentId", doc.ID),
			logger.Error(err),
		)
	}
}

func (s *documentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.store.GetDocument(ctx, id)
}

func (s *documentService) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	return s.store.ListDocuments(ctx)
}

func (s *documentService) ListPages(ctx context.Context, documentID string) ([]*models.Page, error) {
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.store.ListPages(ctx, documentID)
}

func (s *documentService) SearchPages(ctx context.Context, term string) ([]*models.Page, error) {
	return s.store.SearchPages(ctx, term)
}

func (s *documentService) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}

	// Remove the upload folder; page images live under the pages dir and
	// are keyed by the same id, so callers can clean those up too.
	if dir := filepath.Dir(doc.Filepath); filepath.Base(dir) == id {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("Failed to remove upload directory",
				logger.String("documentId", id),
				logger.Error(err),
			)
		}
	}
	return nil
}
