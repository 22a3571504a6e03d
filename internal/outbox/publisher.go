package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/LMSJTK/training-delivery/internal/pkg/logger"
	"github.com/LMSJTK/training-delivery/internal/service/tracking"
	"github.com/google/uuid"
)

// Publisher assembles completion events and hands them to the outbox.
// It satisfies scoring.Publisher.
type Publisher struct {
	repo      Repository
	tracker   *tracking.Service
	transport Transport // optional; nil skips the inline attempt
}

// NewPublisher creates an event publisher.
func NewPublisher(repo Repository, tracker *tracking.Service, transport Transport) *Publisher {
	return &Publisher{repo: repo, tracker: tracker, transport: transport}
}

// PublishCompletion assembles the full session timeline into one payload,
// stores it durably, and makes a best-effort inline delivery. A transport
// failure is not an error here — the sweeper owns retries. A storage
// failure is returned so the caller can log it, but the scoring call
// itself still succeeds (the score is already committed).
func (p *Publisher) PublishCompletion(ctx context.Context, sess *domain.TrackingSession, contentID string, role domain.ContentRole, score float64) error {
	evt, err := p.assemble(ctx, sess, contentID, role, score)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal completion event: %w", err)
	}

	msg, err := p.repo.Enqueue(ctx, &domain.OutboundMessage{
		ID:             uuid.New().String(),
		TrackingLinkID: sess.TrackingLinkID,
		ContentRole:    role,
		Payload:        payload,
		Status:         domain.OutboundPending,
	})
	if err != nil {
		return fmt.Errorf("enqueue outbound message: %w", err)
	}
	if msg.Status == domain.OutboundSent {
		// The commit key was already delivered; nothing more to do.
		return nil
	}

	if p.transport == nil {
		return nil
	}
	if err := p.transport.Send(ctx, msg.Payload); err != nil {
		logger.Warn("inline publish failed, sweeper will retry",
			"tracking_link_id", sess.TrackingLinkID, "role", role, "error", err)
		return nil
	}
	if err := p.repo.MarkSent(ctx, msg.ID); err != nil {
		// Worst case the sweeper resends; downstream dedupes on the
		// payload's tracking link + role.
		logger.Warn("mark sent failed", "message_id", msg.ID, "error", err)
	}
	return nil
}

func (p *Publisher) assemble(ctx context.Context, sess *domain.TrackingSession, contentID string, role domain.ContentRole, score float64) (*domain.CompletionEvent, error) {
	st, err := p.tracker.State(ctx, sess.TrackingLinkID)
	if err != nil {
		return nil, fmt.Errorf("load tracking state: %w", err)
	}
	interactions, err := p.tracker.Interactions(ctx, sess.TrackingLinkID)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}

	return &domain.CompletionEvent{
		TrackingLinkID: sess.TrackingLinkID,
		RecipientID:    sess.RecipientID,
		RecipientEmail: sess.RecipientEmail,
		ContentID:      contentID,
		ContentRole:    role,
		Score:          score,
		Timeline: domain.CompletionTimeline{
			TrainingViewedAt:    st.TrainingViewedAt,
			TrainingCompletedAt: st.TrainingCompletedAt,
			TrainingReportedAt:  st.TrainingReportedAt,
			FollowOnViewedAt:    st.FollowOnViewedAt,
			FollowOnCompletedAt: st.FollowOnCompletedAt,
			DataEnteredAt:       st.DataEnteredAt,
		},
		Interactions: interactions,
		CompletedAt:  time.Now().UTC(),
	}, nil
}
