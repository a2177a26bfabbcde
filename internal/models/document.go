package models

import (
	"time"
)

// DocumentType classifies the source file of a document.
type DocumentType string

const (
	TypeUnknown DocumentType = "unknown"
	TypePDF     DocumentType = "pdf"
	TypeImage   DocumentType = "image"
	TypeText    DocumentType = "text"
)

// Status is the processing state of a document or page. Processing is the
// only non-terminal state; Ready and Error are never re-opened by the
// pipeline.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
)

// Terminal reports whether no further automatic transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusError
}

// Document is a single uploaded file and its processing record. A document
// is owned by exactly one processor run for its lifetime; its status stays
// Processing until the pipeline reaches a terminal outcome.
type Document struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Filepath  string       `json:"filepath"`
	Type      DocumentType `json:"type"`
	Status    Status       `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Page is one unit of content belonging to a document, identified by
// (document id, number). Numbers form a dense 1-based sequence and are the
// authoritative ordering key; Previous is an optional back-reference kept
// consistent with the numbering.
type Page struct {
	DocumentID  string `json:"documentId"`
	Number      int    `json:"number"`
	Previous    *int   `json:"previous,omitempty"`
	Filepath    string `json:"filepath"`
	Text        string `json:"text"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	ErrorDetail string `json:"errorDetail,omitempty"`

	// Embeddings are best-effort enrichment; nil means no vector available.
	TextEmbedding        []float32 `json:"textEmbedding,omitempty"`
	SummaryEmbedding     []float32 `json:"summaryEmbedding,omitempty"`
	DescriptionEmbedding []float32 `json:"descriptionEmbedding,omitempty"`
}
