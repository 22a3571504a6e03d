package domain

import "time"

// TrackingState holds the per-session completion milestones. The presence
// of a timestamp IS the status — there is no parallel boolean or enum, and
// downstream consumers read the timestamp values themselves. Fields are
// set-if-null and never cleared.
type TrackingState struct {
	TrackingLinkID      string     `json:"tracking_link_id" db:"tracking_link_id"`
	TrainingViewedAt    *time.Time `json:"training_viewed_at" db:"training_viewed_at"`
	TrainingCompletedAt *time.Time `json:"training_completed_at" db:"training_completed_at"`
	TrainingReportedAt  *time.Time `json:"training_reported_at" db:"training_reported_at"`
	FollowOnViewedAt    *time.Time `json:"follow_on_viewed_at" db:"follow_on_viewed_at"`
	FollowOnCompletedAt *time.Time `json:"follow_on_completed_at" db:"follow_on_completed_at"`
	DataEnteredAt       *time.Time `json:"data_entered_at" db:"data_entered_at"`
}

// InteractionEvent is one tagged-element interaction inside served content.
// Events are append-only, ordered by occurrence, and survive scoring.
type InteractionEvent struct {
	ID              string    `json:"id" db:"id"`
	TrackingLinkID  string    `json:"tracking_link_id" db:"tracking_link_id"`
	Tag             string    `json:"tag" db:"tag"`
	InteractionType string    `json:"interaction_type" db:"interaction_type"`
	Value           string    `json:"value,omitempty" db:"value"`
	Success         *bool     `json:"success,omitempty" db:"success"`
	OccurredAt      time.Time `json:"occurred_at" db:"occurred_at"`
}
