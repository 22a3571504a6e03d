package tracking

import (
	"context"

	"github.com/LMSJTK/training-delivery/internal/domain"
)

// Repository defines the data access contract for tracking state.
// Every Mark method writes its timestamp only when the column is currently
// null and succeeds silently otherwise. Implementations must be safe for
// concurrent use; two racing calls may both "succeed" but only one writes.
type Repository interface {
	MarkTrainingViewed(ctx context.Context, trackingLinkID string) error
	MarkTrainingCompleted(ctx context.Context, trackingLinkID string) error
	MarkTrainingReported(ctx context.Context, trackingLinkID string) error
	MarkFollowOnViewed(ctx context.Context, trackingLinkID string) error
	MarkFollowOnCompleted(ctx context.Context, trackingLinkID string) error
	MarkDataEntered(ctx context.Context, trackingLinkID string) error

	// GetState returns the milestone row for a session, creating a zero row
	// view if none exists yet.
	GetState(ctx context.Context, trackingLinkID string) (*domain.TrackingState, error)

	// AppendInteraction appends one interaction event. Events are
	// append-only and are never deleted, even after scoring.
	AppendInteraction(ctx context.Context, ev *domain.InteractionEvent) error

	// ListInteractions returns all events for a session ordered by occurrence.
	ListInteractions(ctx context.Context, trackingLinkID string) ([]domain.InteractionEvent, error)
}
