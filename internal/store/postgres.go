package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feichai0017/docstream/internal/models"
)

// PostgresStore persists documents and pages in Postgres via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO documents (id, name, filepath, type, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.Name, doc.Filepath, string(doc.Type), string(doc.Status), doc.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, doc *models.Document) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE documents SET name=$2, filepath=$3, type=$4, status=$5 WHERE id=$1`,
		doc.ID, doc.Name, doc.Filepath, string(doc.Type), string(doc.Status),
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.pool.QueryRow(ctx, `
SELECT id, name, filepath, type, status, created_at
FROM documents WHERE id=$1`, id).
		Scan(&doc.ID, &doc.Name, &doc.Filepath, &doc.Type, &doc.Status, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, name, filepath, type, status, created_at
FROM documents ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Document, 0)
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Filepath, &doc.Type, &doc.Status, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, &doc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, id string) error {
	// Pages cascade through the foreign key.
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreatePage(ctx context.Context, page *models.Page) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO pages (document_id, number, previous, filepath, text, summary, description,
                   status, error_detail, text_embedding, summary_embedding, description_embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9,''), $10, $11, $12)`,
		page.DocumentID, page.Number, page.Previous, page.Filepath,
		page.Text, page.Summary, page.Description,
		string(page.Status), page.ErrorDetail,
		page.TextEmbedding, page.SummaryEmbedding, page.DescriptionEmbedding,
	)
	if isUniqueViolation(err) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdatePage(ctx context.Context, page *models.Page) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE pages SET previous=$3, filepath=$4, text=$5, summary=$6, description=$7,
                 status=$8, error_detail=NULLIF($9,''),
                 text_embedding=$10, summary_embedding=$11, description_embedding=$12
WHERE document_id=$1 AND number=$2`,
		page.DocumentID, page.Number, page.Previous, page.Filepath,
		page.Text, page.Summary, page.Description,
		string(page.Status), page.ErrorDetail,
		page.TextEmbedding, page.SummaryEmbedding, page.DescriptionEmbedding,
	)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const pageColumns = `
document_id, number, previous, filepath, COALESCE(text,''), COALESCE(summary,''),
COALESCE(description,''), status, COALESCE(error_detail,''),
text_embedding, summary_embedding, description_embedding`

func scanPage(row pgx.Row) (*models.Page, error) {
	var page models.Page
	err := row.Scan(&page.DocumentID, &page.Number, &page.Previous, &page.Filepath,
		&page.Text, &page.Summary, &page.Description, &page.Status, &page.ErrorDetail,
		&page.TextEmbedding, &page.SummaryEmbedding, &page.DescriptionEmbedding)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (s *PostgresStore) GetPage(ctx context.Context, documentID string, number int) (*models.Page, error) {
	page, err := scanPage(s.pool.QueryRow(ctx, `
SELECT `+pageColumns+` FROM pages WHERE document_id=$1 AND number=$2`, documentID, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return page, nil
}

func (s *PostgresStore) ListPages(ctx context.Context, documentID string) ([]*models.Page, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+pageColumns+` FROM pages WHERE document_id=$1 ORDER BY number`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Page, 0)
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		out = append(out, page)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SearchPages(ctx context.Context, term string) ([]*models.Page, error) {
	if term == "" {
		return []*models.Page{}, nil
	}
	rows, err := s.pool.Query(ctx, `
SELECT `+pageColumns+` FROM pages WHERE text ILIKE '%' || $1 || '%'
ORDER BY document_id, number`, term)
	if err != nil {
		return nil, fmt.Errorf("search pages: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Page, 0)
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		out = append(out, page)
	}
	return out, rows.Err()
}
