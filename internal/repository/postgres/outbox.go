package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/LMSJTK/training-delivery/internal/domain"
)

// OutboxRepo implements outbox.Repository against PostgreSQL.
type OutboxRepo struct{ db *sql.DB }

// NewOutboxRepo creates a Postgres-backed outbox repository.
func NewOutboxRepo(db *sql.DB) *OutboxRepo { return &OutboxRepo{db: db} }

const outboxColumns = `id, tracking_link_id, content_role, payload, status,
	attempts, next_attempt_at, COALESCE(last_error, ''), created_at, sent_at`

// Enqueue upserts on the commit key (tracking_link_id, content_role).
// A pending row gets its payload refreshed so a provisional zero-score
// event is replaced by the real one before delivery; a sent row is left
// untouched. The RETURNING row is authoritative either way.
func (r *OutboxRepo) Enqueue(ctx context.Context, msg *domain.OutboundMessage) (*domain.OutboundMessage, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO outbound_messages (id, tracking_link_id, content_role, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, 'pending', 0, NOW())
		ON CONFLICT (tracking_link_id, content_role)
		DO UPDATE SET payload = EXCLUDED.payload
		WHERE outbound_messages.status = 'pending'
		RETURNING `+outboxColumns,
		msg.ID, msg.TrackingLinkID, msg.ContentRole, msg.Payload)

	out, err := scanOutbound(row)
	if err == nil {
		return out, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("enqueue outbound message: %w", err)
	}

	// The conditional upsert matched a sent row. Sent is terminal, so this
	// read-back is stable.
	existing := r.db.QueryRowContext(ctx, `
		SELECT `+outboxColumns+`
		FROM outbound_messages
		WHERE tracking_link_id = $1 AND content_role = $2
	`, msg.TrackingLinkID, msg.ContentRole)
	out, err = scanOutbound(existing)
	if err != nil {
		return nil, fmt.Errorf("enqueue outbound message: read back: %w", err)
	}
	return out, nil
}

// ClaimDue lists pending messages whose next attempt time has arrived,
// oldest first.
func (r *OutboxRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboundMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+outboxColumns+`
		FROM outbound_messages
		WHERE status = 'pending'
		  AND (next_attempt_at IS NULL OR next_attempt_at <= $1)
		ORDER BY created_at ASC
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.OutboundMessage
	for rows.Next() {
		out, err := scanOutbound(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outbound message: %w", err)
		}
		msgs = append(msgs, *out)
	}
	return msgs, rows.Err()
}

func (r *OutboxRepo) MarkSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbound_messages
		SET status = 'sent', sent_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return fmt.Errorf("mark message sent: %w", err)
	}
	return nil
}

// Fail bumps the attempt counter and schedules the next try. The updated
// count comes back for dead-letter accounting.
func (r *OutboxRepo) Fail(ctx context.Context, id string, errMsg string, nextAttemptAt time.Time) (int, error) {
	var attempts int
	err := r.db.QueryRowContext(ctx, `
		UPDATE outbound_messages
		SET attempts = attempts + 1, last_error = $2, next_attempt_at = $3
		WHERE id = $1
		RETURNING attempts
	`, id, errMsg, nextAttemptAt).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("mark message failed: %w", err)
	}
	return attempts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOutbound(row rowScanner) (*domain.OutboundMessage, error) {
	out := &domain.OutboundMessage{}
	err := row.Scan(&out.ID, &out.TrackingLinkID, &out.ContentRole, &out.Payload,
		&out.Status, &out.Attempts, &out.NextAttemptAt, &out.LastError,
		&out.CreatedAt, &out.SentAt)
	if err != nil {
		return nil, err
	}
	return out, nil
}
