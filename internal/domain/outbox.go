package domain

import "time"

// OutboundStatus is the delivery state of an outbound completion message.
type OutboundStatus string

const (
	OutboundPending OutboundStatus = "pending"
	OutboundSent    OutboundStatus = "sent"
)

// OutboundMessage is one assembled completion payload awaiting delivery to
// the downstream topic. Rows are keyed by the winning score commit
// (tracking link + role), so repeated triggers for the same completion can
// never produce a second row: transport delivery is at-least-once, but
// publication is exactly-once per commit.
type OutboundMessage struct {
	ID             string         `json:"id" db:"id"`
	TrackingLinkID string         `json:"tracking_link_id" db:"tracking_link_id"`
	ContentRole    ContentRole    `json:"content_role" db:"content_role"`
	Payload        []byte         `json:"payload" db:"payload"`
	Status         OutboundStatus `json:"status" db:"status"`
	Attempts       int            `json:"attempts" db:"attempts"`
	NextAttemptAt  *time.Time     `json:"next_attempt_at" db:"next_attempt_at"`
	LastError      string         `json:"last_error" db:"last_error"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	SentAt         *time.Time     `json:"sent_at" db:"sent_at"`
}

// CompletionEvent is the JSON schema published to the downstream topic,
// one per winning score commit.
type CompletionEvent struct {
	TrackingLinkID string             `json:"tracking_link_id"`
	RecipientID    string             `json:"recipient_id"`
	RecipientEmail string             `json:"recipient_email"`
	ContentID      string             `json:"content_id"`
	ContentRole    ContentRole        `json:"content_role"`
	Score          float64            `json:"score"`
	Timeline       CompletionTimeline `json:"timeline"`
	Interactions   []InteractionEvent `json:"interactions,omitempty"`
	CompletedAt    time.Time          `json:"completed_at"`
}

// CompletionTimeline carries the raw milestone timestamps for the session.
// Consumers rely on the timestamp values, not on a derived status label.
type CompletionTimeline struct {
	TrainingViewedAt    *time.Time `json:"training_viewed_at,omitempty"`
	TrainingCompletedAt *time.Time `json:"training_completed_at,omitempty"`
	TrainingReportedAt  *time.Time `json:"training_reported_at,omitempty"`
	FollowOnViewedAt    *time.Time `json:"follow_on_viewed_at,omitempty"`
	FollowOnCompletedAt *time.Time `json:"follow_on_completed_at,omitempty"`
	DataEnteredAt       *time.Time `json:"data_entered_at,omitempty"`
}
