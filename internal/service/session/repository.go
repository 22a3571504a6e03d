package session

import (
	"context"

	"github.com/LMSJTK/training-delivery/internal/domain"
)

// Repository defines the data access contract for tracking sessions.
// Implementations must be safe for concurrent use.
type Repository interface {
	// GetByTrackingLinkID returns the session behind a tracking link.
	// Returns ErrSessionNotFound if no such link exists.
	GetByTrackingLinkID(ctx context.Context, trackingLinkID string) (*domain.TrackingSession, error)

	// GetScenario returns the scenario for a training id, or
	// launch.ErrScenarioNotFound if the row is missing.
	GetScenario(ctx context.Context, trainingID string) (*domain.TrainingScenario, error)
}
