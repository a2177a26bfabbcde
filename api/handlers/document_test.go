package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/docstream/api/handlers"
	"github.com/feichai0017/docstream/api/routes"
	"github.com/feichai0017/docstream/internal/models"
	"github.com/feichai0017/docstream/internal/notify"
	"github.com/feichai0017/docstream/internal/store"
	"github.com/feichai0017/docstream/pkg/logger"
)

type fakeService struct {
	documents map[string]*models.Document
	pages     map[string][]*models.Page
	ingestErr error
}

func newFakeService() *fakeService {
	return &fakeService{
		documents: make(map[string]*models.Document),
		pages:     make(map[string][]*models.Page),
	}
}

func (f *fakeService) Ingest(ctx context.Context, reader io.Reader, filename string) (*models.Document, error) {
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	doc := &models.Document{
		ID:        "generated-id",
		Name:      filename,
		Type:      models.TypeImage,
		Status:    models.StatusProcessing,
		CreatedAt: time.Now(),
	}
	f.documents[doc.ID] = doc
	return doc, nil
}

func (f *fakeService) IngestPath(ctx context.Context, path, id string) (*models.Document, error) {
	return nil, nil
}

func (f *fakeService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, ok := f.documents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc, nil
}

func (f *fakeService) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	out := make([]*models.Document, 0, len(f.documents))
	for _, doc := range f.documents {
		out = append(out, doc)
	}
	return out, nil
}

func (f *fakeService) ListPages(ctx context.Context, documentID string) ([]*models.Page, error) {
	if _, ok := f.documents[documentID]; !ok {
		return nil, store.ErrNotFound
	}
	return f.pages[documentID], nil
}

func (f *fakeService) SearchPages(ctx context.Context, term string) ([]*models.Page, error) {
	out := make([]*models.Page, 0)
	for _, pages := range f.pages {
		out = append(out, pages...)
	}
	return out, nil
}

func (f *fakeService) DeleteDocument(ctx context.Context, id string) error {
	if _, ok := f.documents[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.documents, id)
	return nil
}

func newTestRouter(svc *fakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	routes.SetupRoutes(r, handlers.NewHandlers(svc, notify.NewHub(), logger.NewTestLogger()))
	return r
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	svc := newFakeService()
	router := newTestRouter(svc)

	body, contentType := multipartUpload(t, "photo.jpg", []byte{0xFF, 0xD8, 0xFF})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp handlers.DocumentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "generated-id", resp.ID)
	assert.Equal(t, "photo.jpg", resp.Name)
	assert.Equal(t, "processing", resp.Status)
}

func TestUploadEndpointWithoutFile(t *testing.T) {
	router := newTestRouter(newFakeService())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDocumentEndpoint(t *testing.T) {
	svc := newFakeService()
	svc.documents["doc-1"] = &models.Document{
		ID: "doc-1", Name: "a.pdf", Type: models.TypePDF, Status: models.StatusReady, CreatedAt: time.Now(),
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/doc-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp handlers.DocumentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
}

func TestGetDocumentEndpointNotFound(t *testing.T) {
	router := newTestRouter(newFakeService())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPagesEndpoint(t *testing.T) {
	svc := newFakeService()
	svc.documents["doc-1"] = &models.Document{ID: "doc-1", Status: models.StatusReady, CreatedAt: time.Now()}
	prev := 1
	svc.pages["doc-1"] = []*models.Page{
		{DocumentID: "doc-1", Number: 1, Text: "first", Status: models.StatusReady},
		{DocumentID: "doc-1", Number: 2, Previous: &prev, Status: models.StatusError, ErrorDetail: "parse failed"},
	}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/doc-1/pages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Pages []handlers.PageResponse `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Pages, 2)
	assert.Equal(t, "first", resp.Pages[0].Text)
	assert.Equal(t, "error", resp.Pages[1].Status)
	assert.Equal(t, "parse failed", resp.Pages[1].Error)
	require.NotNil(t, resp.Pages[1].Previous)
	assert.Equal(t, 1, *resp.Pages[1].Previous)
}

func TestSearchEndpointRequiresQuery(t *testing.T) {
	router := newTestRouter(newFakeService())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pages/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteDocumentEndpoint(t *testing.T) {
	svc := newFakeService()
	svc.documents["doc-1"] = &models.Document{ID: "doc-1", CreatedAt: time.Now()}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/doc-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/documents/doc-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
