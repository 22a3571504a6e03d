package outbox

import (
	"context"
	"time"

	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/LMSJTK/training-delivery/internal/pkg/distlock"
	"github.com/LMSJTK/training-delivery/internal/pkg/logger"
)

// SweeperConfig controls the retry loop.
type SweeperConfig struct {
	Interval           time.Duration
	BaseBackoff        time.Duration
	MaxBackoff         time.Duration
	BatchSize          int
	DeadLetterAttempts int
}

// Sweeper periodically redelivers pending outbound messages. One sweeper
// runs at a time across all processes (distributed lock); retries are
// unbounded with capped exponential backoff, and a row crossing the
// dead-letter threshold is escalated to the operator once per crossing
// while retries continue.
type Sweeper struct {
	repo      Repository
	transport Transport
	notifier  Notifier // optional
	lock      distlock.DistLock
	cfg       SweeperConfig
	done      chan struct{}
}

// NewSweeper creates an outbox sweeper.
func NewSweeper(repo Repository, transport Transport, notifier Notifier, lock distlock.DistLock, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 10 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 15 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.DeadLetterAttempts <= 0 {
		cfg.DeadLetterAttempts = 10
	}
	return &Sweeper{
		repo:      repo,
		transport: transport,
		notifier:  notifier,
		lock:      lock,
		cfg:       cfg,
		done:      make(chan struct{}),
	}
}

// Start launches the sweep loop in a goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	logger.Info("outbox sweeper started", "interval", s.cfg.Interval)
	go s.run(ctx)
}

// Stop signals the loop to exit.
func (s *Sweeper) Stop() {
	close(s.done)
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep pass. Exported for tests and for the
// inline trigger after startup.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx)
		if err != nil {
			logger.Warn("sweep lock acquire failed", "error", err)
			return
		}
		if !acquired {
			return
		}
		defer s.lock.Release(ctx)
	}

	msgs, err := s.repo.ClaimDue(ctx, time.Now().UTC(), s.cfg.BatchSize)
	if err != nil {
		logger.Error("outbox claim failed", "error", err)
		return
	}

	for _, msg := range msgs {
		s.deliver(ctx, msg)
	}
}

func (s *Sweeper) deliver(ctx context.Context, msg domain.OutboundMessage) {
	if err := s.transport.Send(ctx, msg.Payload); err != nil {
		next := time.Now().UTC().Add(s.backoff(msg.Attempts + 1))
		attempts, failErr := s.repo.Fail(ctx, msg.ID, err.Error(), next)
		if failErr != nil {
			logger.Error("outbox fail-mark failed", "message_id", msg.ID, "error", failErr)
			return
		}
		logger.Warn("outbox delivery failed",
			"message_id", msg.ID, "tracking_link_id", msg.TrackingLinkID,
			"attempts", attempts, "next_attempt", next, "error", err)

		// Escalate exactly when the threshold is crossed; the row keeps
		// retrying afterwards so a recovered topic still drains it.
		if attempts == s.cfg.DeadLetterAttempts && s.notifier != nil {
			msg.Attempts = attempts
			msg.LastError = err.Error()
			if nerr := s.notifier.NotifyStuckMessage(ctx, msg); nerr != nil {
				logger.Error("stuck-message escalation failed", "message_id", msg.ID, "error", nerr)
			}
		}
		return
	}

	if err := s.repo.MarkSent(ctx, msg.ID); err != nil {
		logger.Error("outbox mark-sent failed", "message_id", msg.ID, "error", err)
		return
	}
	logger.Info("outbox delivered", "message_id", msg.ID, "tracking_link_id", msg.TrackingLinkID)
}

func (s *Sweeper) backoff(attempts int) time.Duration {
	d := s.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= s.cfg.MaxBackoff {
			return s.cfg.MaxBackoff
		}
	}
	if d > s.cfg.MaxBackoff {
		return s.cfg.MaxBackoff
	}
	return d
}
