package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/LMSJTK/training-delivery/internal/launch"
	"github.com/LMSJTK/training-delivery/internal/service/session"
)

// SessionRepo implements session.Repository against PostgreSQL.
// Tracking sessions are written by the external link generator; this repo
// only ever reads them.
type SessionRepo struct{ db *sql.DB }

// NewSessionRepo creates a Postgres-backed session repository.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

func (r *SessionRepo) GetByTrackingLinkID(ctx context.Context, trackingLinkID string) (*domain.TrackingSession, error) {
	s := &domain.TrackingSession{}
	err := r.db.QueryRowContext(ctx, `
		SELECT tracking_link_id, training_id, recipient_id, recipient_email,
		       COALESCE(organization_id,''), expires_at, created_at
		FROM tracking_sessions
		WHERE tracking_link_id = $1
	`, trackingLinkID).Scan(
		&s.TrackingLinkID, &s.TrainingID, &s.RecipientID, &s.RecipientEmail,
		&s.OrganizationID, &s.ExpiresAt, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

func (r *SessionRepo) GetScenario(ctx context.Context, trainingID string) (*domain.TrainingScenario, error) {
	sc := &domain.TrainingScenario{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, landing_page_id, training_page_id, follow_on_page_id,
		       email_template_id, COALESCE(from_email,''), COALESCE(from_name,''),
		       COALESCE(contact_details,''), COALESCE(logo_url,''), start_at, created_at
		FROM training_scenarios
		WHERE id = $1
	`, trainingID).Scan(
		&sc.ID, &sc.Name, &sc.LandingPageID, &sc.TrainingPageID, &sc.FollowOnPageID,
		&sc.EmailID, &sc.FromEmail, &sc.FromName,
		&sc.ContactDetails, &sc.LogoURL, &sc.StartAt, &sc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, launch.ErrScenarioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scenario: %w", err)
	}
	return sc, nil
}
