package domain

import "time"

// ContentRole identifies which slot of a scenario a content record occupies.
type ContentRole string

const (
	RoleLanding  ContentRole = "landing"
	RoleTraining ContentRole = "training"
	RoleFollowOn ContentRole = "follow_on"
	RoleEmail    ContentRole = "email"
)

// Valid reports whether r is one of the four scenario slots.
func (r ContentRole) Valid() bool {
	switch r {
	case RoleLanding, RoleTraining, RoleFollowOn, RoleEmail:
		return true
	}
	return false
}

// TrainingScenario groups up to four content artifacts delivered under one
// campaign. Role membership is defined here, not on the content record: a
// content id is the landing page because this row says so.
type TrainingScenario struct {
	ID             string     `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	LandingPageID  *string    `json:"landing_page_id" db:"landing_page_id"`
	TrainingPageID *string    `json:"training_page_id" db:"training_page_id"`
	FollowOnPageID *string    `json:"follow_on_page_id" db:"follow_on_page_id"`
	EmailID        *string    `json:"email_template_id" db:"email_template_id"`
	FromEmail      string     `json:"from_email" db:"from_email"`
	FromName       string     `json:"from_name" db:"from_name"`
	ContactDetails string     `json:"contact_details" db:"contact_details"`
	LogoURL        string     `json:"logo_url" db:"logo_url"`
	StartAt        *time.Time `json:"start_at" db:"start_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// RoleOf returns the scenario slot the given content id occupies.
// Landing is checked before follow-on before training: a content record is
// referenced at most once per scenario, so the first match is the answer.
func (s *TrainingScenario) RoleOf(contentID string) (ContentRole, bool) {
	switch {
	case s.LandingPageID != nil && *s.LandingPageID == contentID:
		return RoleLanding, true
	case s.FollowOnPageID != nil && *s.FollowOnPageID == contentID:
		return RoleFollowOn, true
	case s.TrainingPageID != nil && *s.TrainingPageID == contentID:
		return RoleTraining, true
	case s.EmailID != nil && *s.EmailID == contentID:
		return RoleEmail, true
	}
	return "", false
}
