package tracking

import (
	"context"
	"time"

	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/LMSJTK/training-delivery/internal/pkg/logger"
	"github.com/google/uuid"
)

// Service applies milestone and interaction writes for valid sessions.
type Service struct {
	repo Repository
}

// NewService creates a tracking state service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// MarkViewed records that the recipient opened content. Follow-on content
// updates the follow-on view field; every other role updates the primary
// view field. Idempotent.
func (s *Service) MarkViewed(ctx context.Context, trackingLinkID string, role domain.ContentRole) error {
	if role == domain.RoleFollowOn {
		return s.repo.MarkFollowOnViewed(ctx, trackingLinkID)
	}
	return s.repo.MarkTrainingViewed(ctx, trackingLinkID)
}

// MarkCompleted records completion for the given role. Idempotent.
func (s *Service) MarkCompleted(ctx context.Context, trackingLinkID string, role domain.ContentRole) error {
	if role == domain.RoleFollowOn {
		return s.repo.MarkFollowOnCompleted(ctx, trackingLinkID)
	}
	return s.repo.MarkTrainingCompleted(ctx, trackingLinkID)
}

// MarkReported records that the recipient reported the phishing simulation.
// Idempotent.
func (s *Service) MarkReported(ctx context.Context, trackingLinkID string) error {
	return s.repo.MarkTrainingReported(ctx, trackingLinkID)
}

// MarkDataEntered records that the recipient submitted a landing-page form.
// Only field names are ever tracked; submitted values never leave the page.
// Idempotent.
func (s *Service) MarkDataEntered(ctx context.Context, trackingLinkID string) error {
	return s.repo.MarkDataEntered(ctx, trackingLinkID)
}

// RecordInteraction appends one tagged-element interaction.
func (s *Service) RecordInteraction(ctx context.Context, trackingLinkID, tag, interactionType, value string, success *bool) error {
	ev := &domain.InteractionEvent{
		ID:              uuid.New().String(),
		TrackingLinkID:  trackingLinkID,
		Tag:             tag,
		InteractionType: interactionType,
		Value:           value,
		Success:         success,
		OccurredAt:      time.Now().UTC(),
	}
	if err := s.repo.AppendInteraction(ctx, ev); err != nil {
		return err
	}
	logger.Debug("interaction recorded",
		"tracking_link_id", trackingLinkID, "tag", tag, "type", interactionType)
	return nil
}

// State returns the current milestone row for a session.
func (s *Service) State(ctx context.Context, trackingLinkID string) (*domain.TrackingState, error) {
	return s.repo.GetState(ctx, trackingLinkID)
}

// Interactions returns the session's events in occurrence order.
func (s *Service) Interactions(ctx context.Context, trackingLinkID string) ([]domain.InteractionEvent, error) {
	return s.repo.ListInteractions(ctx, trackingLinkID)
}
