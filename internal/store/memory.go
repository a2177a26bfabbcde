package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/feichai0017/docstream/internal/models"
)

type pageKey struct {
	documentID string
	number     int
}

// MemoryStore is an in-process Store used by the CLI and by tests.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]models.Document
	pages     map[pageKey]models.Page
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]models.Document),
		pages:     make(map[pageKey]models.Page),
	}
}

func (s *MemoryStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[doc.ID]; ok {
		return ErrExists
	}
	s.documents[doc.ID] = *doc
	return nil
}

func (s *MemoryStore) UpdateDocument(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[doc.ID]; !ok {
		return ErrNotFound
	}
	s.documents[doc.ID] = *doc
	return nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Document, 0, len(s.documents))
	for id := range s.documents {
		doc := s.documents[id]
		out = append(out, &doc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return ErrNotFound
	}
	delete(s.documents, id)

	// Cascade to owned pages.
	for key := range s.pages {
		if key.documentID == id {
			delete(s.pages, key)
		}
	}
	return nil
}

func (s *MemoryStore) CreatePage(ctx context.Context, page *models.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pageKey{page.DocumentID, page.Number}
	if _, ok := s.pages[key]; ok {
		return ErrExists
	}
	s.pages[key] = *page
	return nil
}

func (s *MemoryStore) UpdatePage(ctx context.Context, page *models.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pageKey{page.DocumentID, page.Number}
	if _, ok := s.pages[key]; !ok {
		return ErrNotFound
	}
	s.pages[key] = *page
	return nil
}

func (s *MemoryStore) GetPage(ctx context.Context, documentID string, number int) (*models.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, ok := s.pages[pageKey{documentID, number}]
	if !ok {
		return nil, ErrNotFound
	}
	return &page, nil
}

func (s *MemoryStore) ListPages(ctx context.Context, documentID string) ([]*models.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Page, 0)
	for key := range s.pages {
		if key.documentID == documentID {
			page := s.pages[key]
			out = append(out, &page)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *MemoryStore) SearchPages(ctx context.Context, term string) ([]*models.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term = strings.ToLower(term)
	out := make([]*models.Page, 0)
	if term == "" {
		return out, nil
	}
	for key := range s.pages {
		page := s.pages[key]
		if strings.Contains(strings.ToLower(page.Text), term) {
			out = append(out, &page)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentID == out[j].DocumentID {
			return out[i].Number < out[j].Number
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	return out, nil
}
