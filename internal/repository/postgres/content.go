package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LMSJTK/training-delivery/internal/content"
	"github.com/LMSJTK/training-delivery/internal/domain"
)

// ContentRepo implements content.Repository against PostgreSQL.
type ContentRepo struct{ db *sql.DB }

// NewContentRepo creates a Postgres-backed content repository.
func NewContentRepo(db *sql.DB) *ContentRepo { return &ContentRepo{db: db} }

func (r *ContentRepo) GetContent(ctx context.Context, id string) (*domain.ContentRecord, error) {
	rec := &domain.ContentRecord{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, content_type, html_body, storage_key, created_at
		FROM content_records
		WHERE id = $1
	`, id).Scan(&rec.ID, &rec.ContentType, &rec.HTMLBody, &rec.StorageKey, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, content.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	return rec, nil
}
