package scoring

import (
	"context"

	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/LMSJTK/training-delivery/internal/pkg/logger"
	"github.com/LMSJTK/training-delivery/internal/service/tracking"
)

// Submission is one incoming score, as sent by the client bridge.
type Submission struct {
	Score float64

	// ContentID optionally names the artifact being scored; when present
	// and known to the scenario it decides the role directly.
	ContentID string

	// RoleHint optionally forces the role; takes precedence over ContentID.
	RoleHint domain.ContentRole

	// Interactions carries the client's buffered interaction trail, in
	// occurrence order, flushed together with the final score.
	Interactions []InteractionInput
}

// InteractionInput is one buffered client-side interaction.
type InteractionInput struct {
	Tag             string `json:"tag_name"`
	InteractionType string `json:"interaction_type"`
	Value           string `json:"interaction_value,omitempty"`
	Success         *bool  `json:"success,omitempty"`
}

// Result reports the authoritative outcome of a submission. A discarded
// duplicate is a success from the client's point of view; AlreadyRecorded
// tells it the echoed score is the earlier winner's, not its own.
type Result struct {
	Score           float64            `json:"score"`
	ContentRole     domain.ContentRole `json:"content_role"`
	AlreadyRecorded bool               `json:"already_recorded"`
}

// Service reconciles score submissions into canonical score records and
// triggers downstream publication once per winning commit.
type Service struct {
	scores      Repository
	scenarios   ScenarioSource
	tracker     *tracking.Service
	publisher   Publisher
	defaultRole domain.ContentRole
}

// NewService creates a score reconciler. defaultRole is the fallback when
// role inference is ambiguous (see resolveRole); publisher may be nil in
// tests.
func NewService(scores Repository, scenarios ScenarioSource, tracker *tracking.Service, publisher Publisher, defaultRole domain.ContentRole) *Service {
	if !defaultRole.Valid() {
		defaultRole = domain.RoleTraining
	}
	return &Service{
		scores:      scores,
		scenarios:   scenarios,
		tracker:     tracker,
		publisher:   publisher,
		defaultRole: defaultRole,
	}
}

// Record runs one submission through the reconciler. The session must
// already be validated. Interactions are appended before the commit attempt
// so they survive even when the score itself is discarded.
func (s *Service) Record(ctx context.Context, sess *domain.TrackingSession, sub Submission) (*Result, error) {
	for _, in := range sub.Interactions {
		if err := s.tracker.RecordInteraction(ctx, sess.TrackingLinkID, in.Tag, in.InteractionType, in.Value, in.Success); err != nil {
			logger.Warn("interaction append failed",
				"tracking_link_id", sess.TrackingLinkID, "tag", in.Tag, "error", err)
		}
	}

	role, contentID := s.resolveRole(ctx, sess, sub)

	stored, committed, err := s.scores.CommitScore(ctx, sess.TrackingLinkID, role, sub.Score)
	if err != nil {
		return nil, err
	}

	if !committed {
		logger.Info("duplicate score discarded",
			"tracking_link_id", sess.TrackingLinkID, "role", role,
			"submitted", sub.Score, "stored", stored)
		return &Result{Score: stored, ContentRole: role, AlreadyRecorded: true}, nil
	}

	if err := s.tracker.MarkCompleted(ctx, sess.TrackingLinkID, role); err != nil {
		logger.Warn("completion mark failed",
			"tracking_link_id", sess.TrackingLinkID, "role", role, "error", err)
	}

	// Publication is soft: the commit is durable, the outbox sweeper will
	// recover anything the immediate attempt cannot deliver.
	if s.publisher != nil {
		if err := s.publisher.PublishCompletion(ctx, sess, contentID, role, stored); err != nil {
			logger.Error("completion publish failed",
				"tracking_link_id", sess.TrackingLinkID, "role", role, "error", err)
		}
	}

	logger.Info("score committed",
		"tracking_link_id", sess.TrackingLinkID, "role", role, "score", stored)
	return &Result{Score: stored, ContentRole: role, AlreadyRecorded: false}, nil
}

// resolveRole decides which scenario slot a submission scores.
//
// Precedence: explicit hint, then the content id's slot in the scenario,
// then a heuristic — if the scenario has follow-on content and the primary
// training is already completed, the active artifact is most likely the
// follow-on; otherwise the configured default. The heuristic is a
// documented guess, not a guarantee, which is why the fallback is
// configurable.
func (s *Service) resolveRole(ctx context.Context, sess *domain.TrackingSession, sub Submission) (domain.ContentRole, string) {
	if sub.RoleHint.Valid() {
		return sub.RoleHint, sub.ContentID
	}

	scenario, err := s.scenarios.GetScenario(ctx, sess.TrainingID)
	if err != nil {
		logger.Warn("scenario lookup failed during role resolution",
			"tracking_link_id", sess.TrackingLinkID, "error", err)
		return s.defaultRole, sub.ContentID
	}

	if sub.ContentID != "" {
		if role, ok := scenario.RoleOf(sub.ContentID); ok {
			if role == domain.RoleTraining || role == domain.RoleFollowOn {
				return role, sub.ContentID
			}
		}
	}

	if scenario.FollowOnPageID != nil {
		st, err := s.tracker.State(ctx, sess.TrackingLinkID)
		if err == nil && st.TrainingCompletedAt != nil {
			return domain.RoleFollowOn, deref(scenario.FollowOnPageID)
		}
	}

	contentID := sub.ContentID
	if contentID == "" && s.defaultRole == domain.RoleTraining && scenario.TrainingPageID != nil {
		contentID = *scenario.TrainingPageID
	}
	return s.defaultRole, contentID
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
