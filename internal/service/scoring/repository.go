package scoring

import (
	"context"

	"github.com/LMSJTK/training-delivery/internal/domain"
)

// Repository defines the data access contract for score records.
type Repository interface {
	// CommitScore applies the FirstWriteWinsExceptZero rule as one atomic
	// conditional write: insert when no record exists, replace when the
	// stored value is exactly 0, discard otherwise. It returns the
	// authoritative stored score and whether this submission is the one
	// that wrote it. Implementations must not read-then-write; the
	// condition has to travel inside the statement.
	CommitScore(ctx context.Context, trackingLinkID string, role domain.ContentRole, score float64) (stored float64, committed bool, err error)

	// GetScore returns the stored record, or nil when none exists.
	GetScore(ctx context.Context, trackingLinkID string, role domain.ContentRole) (*domain.ScoreRecord, error)
}

// ScenarioSource resolves the scenario owning a training, for role
// inference when the caller supplies no hint.
type ScenarioSource interface {
	GetScenario(ctx context.Context, trainingID string) (*domain.TrainingScenario, error)
}

// Publisher hands a winning commit to the event pipeline. Failures are
// soft: the score is already durable, so publication errors must not fail
// the recording call.
type Publisher interface {
	PublishCompletion(ctx context.Context, sess *domain.TrackingSession, contentID string, role domain.ContentRole, score float64) error
}
