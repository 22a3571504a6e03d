package domain

import "time"

// ScoreRecord is the canonical score for one (session, role) pair.
//
// Invariant (first-write-wins-except-zero): once a non-zero score is stored
// it is immutable; a stored value of exactly 0 may be replaced by any later
// submission. SCORM packages commonly write an initial 0 on launch before
// the real result is known, so 0 is treated as provisional, never final.
// The replacement must happen as one atomic conditional write — see
// scoring.Service and the postgres ScoreRepo.
type ScoreRecord struct {
	TrackingLinkID string      `json:"tracking_link_id" db:"tracking_link_id"`
	ContentRole    ContentRole `json:"content_role" db:"content_role"`
	Score          float64     `json:"score" db:"score"`
	RecordedAt     time.Time   `json:"recorded_at" db:"recorded_at"`
}

// Final reports whether the stored score can no longer be replaced.
func (s *ScoreRecord) Final() bool {
	return s.Score != 0
}
