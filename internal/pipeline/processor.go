package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/docstream/internal/embedding"
	"github.com/feichai0017/docstream/internal/models"
	"github.com/feichai0017/docstream/internal/notify"
	"github.com/feichai0017/docstream/internal/store"
	"github.com/feichai0017/docstream/pkg/logger"
)

// Processor runs one document through the full pipeline: classify, split,
// persist pages, parse each page, finalize. Process never returns an
// error; every failure ends up as persisted Document/Page state so a bad
// document can never wedge the queue.
type Processor struct {
	store           store.Store
	splitter        *Splitter
	parser          *PageParser
	embedder        embedding.Embedder
	notifier        notify.Notifier
	logger          logger.Logger
	pageConcurrency int
}

type ProcessorConfig struct {
	// PageConcurrency bounds concurrent page parses within one document.
	// Default 1 (sequential, in page order).
	PageConcurrency int
}

func NewProcessor(
	st store.Store,
	splitter *Splitter,
	parser *PageParser,
	embedder embedding.Embedder,
	notifier notify.Notifier,
	log logger.Logger,
	cfg *ProcessorConfig,
) *Processor {
	concurrency := 1
	if cfg != nil && cfg.PageConcurrency > 0 {
		concurrency = cfg.PageConcurrency
	}
	if embedder == nil {
		embedder = embedding.Null{}
	}
	return &Processor{
		store:           st,
		splitter:        splitter,
		parser:          parser,
		embedder:        embedder,
		notifier:        notifier,
		logger:          log,
		pageConcurrency: concurrency,
	}
}

// Process runs the document to a terminal state. The document must already
// exist in the store with status Processing.
func (p *Processor) Process(ctx context.Context, doc *models.Document) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Panic while processing document",
				logger.String("documentId", doc.ID),
				logger.Any("panic", r),
			)
			p.failDocument(ctx, doc, fmt.Errorf("panic: %v", r))
		}
	}()

	p.logger.Info("Processing document",
		logger.String("documentId", doc.ID),
		logger.String("name", doc.Name),
	)

	// Stage 1: classify.
	if doc.Type == models.TypeUnknown {
		docType, err := DetectType(doc.Filepath)
		if err != nil {
			p.failDocument(ctx, doc, err)
			return
		}
		doc.Type = docType
		if err := p.store.UpdateDocument(ctx, doc); err != nil {
			p.failDocument(ctx, doc, fmt.Errorf("failed to persist document type: %w", err))
			return
		}
	}

	// Stage 2: split. On failure the document fails with zero pages.
	pageRefs, err := p.splitter.Split(ctx, doc)
	if err != nil {
		p.failDocument(ctx, doc, err)
		return
	}

	// Stage 3: persist all pages as Processing before any parsing, so
	// observers see the full expected page count immediately.
	pages := make([]*models.Page, 0, len(pageRefs))
	for _, ref := range pageRefs {
		page := &models.Page{
			DocumentID: doc.ID,
			Number:     ref.Number,
			Filepath:   ref.Filepath,
			Status:     models.StatusProcessing,
		}
		if ref.Number > 1 {
			prev := ref.Number - 1
			page.Previous = &prev
		}
		if err := p.store.CreatePage(ctx, page); err != nil {
			p.failDocument(ctx, doc, fmt.Errorf("failed to persist page %d: %w", ref.Number, err))
			return
		}
		pages = append(pages, page)
	}
	p.publish(ctx, doc)

	// Stage 4: parse pages with a bounded, explicitly joined fan-out.
	// A failed page is recorded and does not abort its siblings.
	var anyFailed atomic.Bool
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.pageConcurrency)
	for _, page := range pages {
		page := page
		g.Go(func() error {
			p.processPage(gctx, page, &anyFailed)
			return nil
		})
	}
	_ = g.Wait()

	// Stage 5: finalize.
	if anyFailed.Load() {
		doc.Status = models.StatusError
	} else {
		doc.Status = models.StatusReady
	}
	if err := p.store.UpdateDocument(ctx, doc); err != nil {
		p.logger.Error("Failed to persist final document status",
			logger.String("documentId", doc.ID),
			logger.Error(err),
		)
	}
	p.publish(ctx, doc)

	p.logger.Info("Document processing finished",
		logger.String("documentId", doc.ID),
		logger.String("status", string(doc.Status)),
		logger.Int("pageCount", len(pages)),
	)
}

func (p *Processor) processPage(ctx context.Context, page *models.Page, anyFailed *atomic.Bool) {
	result, err := p.parser.Parse(ctx, page.Filepath)
	if err != nil {
		anyFailed.Store(true)
		page.Status = models.StatusError
		page.ErrorDetail = err.Error()
	} else {
		page.Text = result.Text
		page.Summary = result.Summary
		page.Description = result.Description

		// Best-effort enrichment; a missing vector never fails the page.
		page.TextEmbedding = p.embedField(ctx, page, "text", result.Text)
		page.SummaryEmbedding = p.embedField(ctx, page, "summary", result.Summary)
		page.DescriptionEmbedding = p.embedField(ctx, page, "description", result.Description)

		page.Status = models.StatusReady
	}

	if err := p.store.UpdatePage(ctx, page); err != nil {
		anyFailed.Store(true)
		p.logger.Error("Failed to persist page",
			logger.String("documentId", page.DocumentID),
			logger.Int("number", page.Number),
			logger.Error(err),
		)
	}
}

func (p *Processor) embedField(ctx context.Context, page *models.Page, field, text string) []float32 {
	vector, err := p.embedder.Embed(ctx, text)
	if err != nil {
		p.logger.Warn("Failed to compute embedding",
			logger.String("documentId", page.DocumentID),
			logger.Int("number", page.Number),
			logger.String("field", field),
			logger.Error(err),
		)
		return nil
	}
	return vector
}

func (p *Processor) failDocument(ctx context.Context, doc *models.Document, cause error) {
	p.logger.Error("Document processing failed",
		logger.String("documentId", doc.ID),
		logger.Error(cause),
	)
	doc.Status = models.StatusError
	if err := p.store.UpdateDocument(ctx, doc); err != nil {
		p.logger.Error("Failed to persist document failure",
			logger.String("documentId", doc.ID),
			logger.Error(err),
		)
	}
	p.publish(ctx, doc)
}

func (p *Processor) publish(ctx context.Context, doc *models.Document) {
	if p.notifier == nil {
		return
	}
	// Fire-and-forget: delivery failures never affect the pipeline.
	_ = p.notifier.Publish(ctx, notify.Event{
		Action:     notify.ActionStatusUpdate,
		DocumentID: doc.ID,
		Name:       doc.Name,
		Status:     doc.Status,
	})
}

// ErrUnsupportedType marks files that are neither PDFs, images nor plain
// text. It fails a document before any pages exist.
var ErrUnsupportedType = errors.New("unsupported file type")

// DetectType sniffs the document type from the file's leading bytes.
func DetectType(path string) (models.DocumentType, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return models.TypeUnknown, fmt.Errorf("failed to detect file type: %w", err)
	}
	switch {
	case mtype.Is("application/pdf"):
		return models.TypePDF, nil
	case isImageMIME(mtype):
		return models.TypeImage, nil
	case mtype.Is("text/plain"):
		return models.TypeText, nil
	default:
		return models.TypeUnknown, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}
}

func isImageMIME(mtype *mimetype.MIME) bool {
	for _, m := range []string{"image/jpeg", "image/png", "image/tiff", "image/webp", "image/gif", "image/bmp"} {
		if mtype.Is(m) {
			return true
		}
	}
	return false
}
