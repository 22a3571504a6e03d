package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LMSJTK/training-delivery/internal/domain"
)

// ScoreRepo implements scoring.Repository against PostgreSQL.
type ScoreRepo struct{ db *sql.DB }

// NewScoreRepo creates a Postgres-backed score repository.
func NewScoreRepo(db *sql.DB) *ScoreRepo { return &ScoreRepo{db: db} }

// CommitScore is the FirstWriteWinsExceptZero write. The condition lives
// inside one upsert: insert when absent, overwrite only while the stored
// value is exactly 0. RETURNING only fires when the row was written, so a
// missing result means the submission lost to an earlier non-zero commit.
// Two concurrent submissions therefore serialize at the row with no
// read-then-write window.
func (r *ScoreRepo) CommitScore(ctx context.Context, trackingLinkID string, role domain.ContentRole, score float64) (float64, bool, error) {
	var stored float64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO score_records (tracking_link_id, content_role, score, recorded_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tracking_link_id, content_role)
		DO UPDATE SET score = EXCLUDED.score, recorded_at = NOW()
		WHERE score_records.score = 0
		RETURNING score
	`, trackingLinkID, role, score).Scan(&stored)

	if err == nil {
		return stored, true, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, fmt.Errorf("commit score: %w", err)
	}

	// Discarded: the existing value is non-zero and immutable, so this
	// read-back cannot race with a replacement.
	rec, err := r.GetScore(ctx, trackingLinkID, role)
	if err != nil {
		return 0, false, err
	}
	if rec == nil {
		return 0, false, fmt.Errorf("commit score: record vanished for %s/%s", trackingLinkID, role)
	}
	return rec.Score, false, nil
}

func (r *ScoreRepo) GetScore(ctx context.Context, trackingLinkID string, role domain.ContentRole) (*domain.ScoreRecord, error) {
	rec := &domain.ScoreRecord{}
	err := r.db.QueryRowContext(ctx, `
		SELECT tracking_link_id, content_role, score, recorded_at
		FROM score_records
		WHERE tracking_link_id = $1 AND content_role = $2
	`, trackingLinkID, role).Scan(&rec.TrackingLinkID, &rec.ContentRole, &rec.Score, &rec.RecordedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get score: %w", err)
	}
	return rec, nil
}
