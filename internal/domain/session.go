package domain

import "time"

// TrackingSession is the per-recipient delivery record behind one tracking
// link. Sessions are created by the external link-generation step and are
// read-only in this service; only the associated TrackingState mutates.
type TrackingSession struct {
	TrackingLinkID string     `json:"tracking_link_id" db:"tracking_link_id"`
	TrainingID     string     `json:"training_id" db:"training_id"`
	RecipientID    string     `json:"recipient_id" db:"recipient_id"`
	RecipientEmail string     `json:"recipient_email" db:"recipient_email"`
	OrganizationID string     `json:"organization_id" db:"organization_id"`
	ExpiresAt      *time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Expired reports whether the session has passed its expiry, if any.
func (s *TrackingSession) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}
