package outbox

import (
	"context"
	"time"

	"github.com/LMSJTK/training-delivery/internal/domain"
)

// Repository defines the durable outbox contract.
type Repository interface {
	// Enqueue inserts the message keyed by (tracking_link_id, content_role).
	// If a row for that commit key already exists, the payload is refreshed
	// only while the row is still pending — a zero-score provisional payload
	// gets replaced by the real one, but a delivered event is never
	// recreated. Returns the row that is now authoritative for the key.
	Enqueue(ctx context.Context, msg *domain.OutboundMessage) (*domain.OutboundMessage, error)

	// ClaimDue returns pending messages whose next attempt time has
	// arrived (or was never set), oldest first.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboundMessage, error)

	// MarkSent finalizes a delivered message.
	MarkSent(ctx context.Context, id string) error

	// Fail records a delivery failure and schedules the next attempt.
	// Returns the updated attempt count for dead-letter accounting.
	Fail(ctx context.Context, id string, errMsg string, nextAttemptAt time.Time) (int, error)
}

// Transport delivers one payload to the downstream topic. Delivery is
// at-least-once; idempotency lives in the outbox keying, not here.
type Transport interface {
	Send(ctx context.Context, payload []byte) error
}

// Notifier escalates a message that keeps failing to an operator.
type Notifier interface {
	NotifyStuckMessage(ctx context.Context, msg domain.OutboundMessage) error
}
