package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LMSJTK/training-delivery/internal/domain"
)

// TrackingStateRepo implements tracking.Repository against PostgreSQL.
//
// Milestone marks are a single upsert with the null check inside the
// statement, so two racing marks resolve at the database and the loser is
// a no-op rather than a lost update.
type TrackingStateRepo struct{ db *sql.DB }

// NewTrackingStateRepo creates a Postgres-backed tracking state repository.
func NewTrackingStateRepo(db *sql.DB) *TrackingStateRepo { return &TrackingStateRepo{db: db} }

func (r *TrackingStateRepo) markIfNull(ctx context.Context, column, trackingLinkID string) error {
	// column comes from the fixed method set below, never from input.
	q := fmt.Sprintf(`
		INSERT INTO tracking_states (tracking_link_id, %[1]s)
		VALUES ($1, NOW())
		ON CONFLICT (tracking_link_id)
		DO UPDATE SET %[1]s = NOW()
		WHERE tracking_states.%[1]s IS NULL
	`, column)
	if _, err := r.db.ExecContext(ctx, q, trackingLinkID); err != nil {
		return fmt.Errorf("mark %s: %w", column, err)
	}
	return nil
}

func (r *TrackingStateRepo) MarkTrainingViewed(ctx context.Context, id string) error {
	return r.markIfNull(ctx, "training_viewed_at", id)
}

func (r *TrackingStateRepo) MarkTrainingCompleted(ctx context.Context, id string) error {
	return r.markIfNull(ctx, "training_completed_at", id)
}

func (r *TrackingStateRepo) MarkTrainingReported(ctx context.Context, id string) error {
	return r.markIfNull(ctx, "training_reported_at", id)
}

func (r *TrackingStateRepo) MarkFollowOnViewed(ctx context.Context, id string) error {
	return r.markIfNull(ctx, "follow_on_viewed_at", id)
}

func (r *TrackingStateRepo) MarkFollowOnCompleted(ctx context.Context, id string) error {
	return r.markIfNull(ctx, "follow_on_completed_at", id)
}

func (r *TrackingStateRepo) MarkDataEntered(ctx context.Context, id string) error {
	return r.markIfNull(ctx, "data_entered_at", id)
}

func (r *TrackingStateRepo) GetState(ctx context.Context, id string) (*domain.TrackingState, error) {
	st := &domain.TrackingState{TrackingLinkID: id}
	err := r.db.QueryRowContext(ctx, `
		SELECT training_viewed_at, training_completed_at, training_reported_at,
		       follow_on_viewed_at, follow_on_completed_at, data_entered_at
		FROM tracking_states
		WHERE tracking_link_id = $1
	`, id).Scan(
		&st.TrainingViewedAt, &st.TrainingCompletedAt, &st.TrainingReportedAt,
		&st.FollowOnViewedAt, &st.FollowOnCompletedAt, &st.DataEnteredAt,
	)
	if err == sql.ErrNoRows {
		// No marks yet; an all-null state is a valid answer.
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tracking state: %w", err)
	}
	return st, nil
}

func (r *TrackingStateRepo) AppendInteraction(ctx context.Context, ev *domain.InteractionEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO interaction_events
			(id, tracking_link_id, tag, interaction_type, value, success, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ev.ID, ev.TrackingLinkID, ev.Tag, ev.InteractionType, ev.Value, ev.Success, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

func (r *TrackingStateRepo) ListInteractions(ctx context.Context, id string) ([]domain.InteractionEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tracking_link_id, tag, interaction_type, COALESCE(value,''), success, occurred_at
		FROM interaction_events
		WHERE tracking_link_id = $1
		ORDER BY occurred_at, id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	var out []domain.InteractionEvent
	for rows.Next() {
		var ev domain.InteractionEvent
		if err := rows.Scan(&ev.ID, &ev.TrackingLinkID, &ev.Tag, &ev.InteractionType,
			&ev.Value, &ev.Success, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
