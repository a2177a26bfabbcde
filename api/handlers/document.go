package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/docstream/internal/models"
	"github.com/feichai0017/docstream/internal/pipeline"
	"github.com/feichai0017/docstream/internal/service/document"
	"github.com/feichai0017/docstream/internal/store"
	"github.com/feichai0017/docstream/pkg/logger"
)

type DocumentHandler struct {
	service document.Service
	logger  logger.Logger
}

type DocumentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type PageResponse struct {
	DocumentID  string `json:"documentId"`
	Number      int    `json:"number"`
	Previous    *int   `json:"previous,omitempty"`
	Text        string `json:"text"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewDocumentHandler(service document.Service, logger logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger,
	}
}

// Upload accepts a multipart file and schedules it for processing.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	doc, err := h.service.Ingest(c.Request.Context(), file, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrUnsupportedType):
			h.handleError(c, http.StatusUnsupportedMediaType, "Unsupported file type", err)
		case errors.Is(err, pipeline.ErrQueueFull):
			h.handleError(c, http.StatusServiceUnavailable, "Ingestion queue is full", err)
		default:
			h.handleError(c, http.StatusInternalServerError, "Failed to ingest file", err)
		}
		return
	}

	c.JSON(http.StatusAccepted, toDocumentResponse(doc))
}

// List returns all documents, newest first.
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.service.ListDocuments(c.Request.Context())
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}

	responses := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = toDocumentResponse(doc)
	}
	c.JSON(http.StatusOK, gin.H{"documents": responses})
}

// Get returns a single document by id.
func (h *DocumentHandler) Get(c *gin.Context) {
	id := c.Param("id")

	doc, err := h.service.GetDocument(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Document not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to get document", err)
		return
	}

	c.JSON(http.StatusOK, toDocumentResponse(doc))
}

// Pages returns a document's pages in page order.
func (h *DocumentHandler) Pages(c *gin.Context) {
	id := c.Param("id")

	pages, err := h.service.ListPages(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Document not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to list pages", err)
		return
	}

	responses := make([]PageResponse, len(pages))
	for i, page := range pages {
		responses[i] = toPageResponse(page)
	}
	c.JSON(http.StatusOK, gin.H{"pages": responses})
}

// Search finds pages whose text, summary or description match the term.
func (h *DocumentHandler) Search(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		h.handleError(c, http.StatusBadRequest, "Query parameter 'q' is required", nil)
		return
	}

	pages, err := h.service.SearchPages(c.Request.Context(), term)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to search pages", err)
		return
	}

	responses := make([]PageResponse, len(pages))
	for i, page := range pages {
		responses[i] = toPageResponse(page)
	}
	c.JSON(http.StatusOK, gin.H{"pages": responses})
}

// Delete removes a document, its pages and its stored upload.
func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.DeleteDocument(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Document not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to delete document", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Document deleted",
		"id":      id,
	})
}

func toDocumentResponse(doc *models.Document) DocumentResponse {
	return DocumentResponse{
		ID:        doc.ID,
		Name:      doc.Name,
		Type:      string(doc.Type),
		Status:    string(doc.Status),
		CreatedAt: doc.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toPageResponse(page *models.Page) PageResponse {
	return PageResponse{
		DocumentID:  page.DocumentID,
		Number:      page.Number,
		Previous:    page.Previous,
		Text:        page.Text,
		Summary:     page.Summary,
		Description: page.Description,
		Status:      string(page.Status),
		Error:       page.ErrorDetail,
	}
}

func (h *DocumentHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}
