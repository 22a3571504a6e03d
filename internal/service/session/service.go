package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/LMSJTK/training-delivery/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Service validates tracking sessions with an optional Redis read-through
// cache. Every tracked request starts with this lookup, so the cache keeps
// hot sessions off the database; Redis being down only costs latency.
type Service struct {
	repo  Repository
	redis *redis.Client // optional
	ttl   time.Duration
	now   func() time.Time
}

// NewService creates a session validator. redisClient may be nil.
func NewService(repo Repository, redisClient *redis.Client, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &Service{
		repo:  repo,
		redis: redisClient,
		ttl:   cacheTTL,
		now:   time.Now,
	}
}

// Validate loads and authorizes the session behind a tracking link.
// Read-only; returns ErrSessionNotFound for unknown or expired links.
func (s *Service) Validate(ctx context.Context, trackingLinkID string) (*domain.TrackingSession, error) {
	if trackingLinkID == "" {
		return nil, ErrSessionNotFound
	}

	sess := s.cacheGet(ctx, trackingLinkID)
	if sess == nil {
		var err error
		sess, err = s.repo.GetByTrackingLinkID(ctx, trackingLinkID)
		if err != nil {
			return nil, err
		}
		s.cacheSet(ctx, sess)
	}

	// Expiry is checked on every call, cached or not, so a cached session
	// cannot outlive its expiry by the cache TTL.
	if sess.Expired(s.now()) {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Scenario returns the scenario owning the session's training.
func (s *Service) Scenario(ctx context.Context, sess *domain.TrackingSession) (*domain.TrainingScenario, error) {
	return s.repo.GetScenario(ctx, sess.TrainingID)
}

func cacheKey(trackingLinkID string) string {
	return "session:" + trackingLinkID
}

func (s *Service) cacheGet(ctx context.Context, trackingLinkID string) *domain.TrackingSession {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, cacheKey(trackingLinkID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Debug("session cache read failed", "error", err)
		}
		return nil
	}
	var sess domain.TrackingSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil
	}
	return &sess
}

func (s *Service) cacheSet(ctx context.Context, sess *domain.TrackingSession) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKey(sess.TrackingLinkID), data, s.ttl).Err(); err != nil {
		logger.Debug("session cache write failed", "error", err)
	}
}
