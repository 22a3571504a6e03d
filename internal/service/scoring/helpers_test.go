package scoring_test

import (
	"context"
	"sync"
	"time"

	"github.com/LMSJTK/training-delivery/internal/domain"
)

// trackingMem is a minimal tracking.Repository for reconciler tests.
type trackingMem struct {
	mu     sync.Mutex
	states map[string]*domain.TrackingState
	events []domain.InteractionEvent
}

func newTrackingMem() *trackingMem {
	return &trackingMem{states: make(map[string]*domain.TrackingState)}
}

func (m *trackingMem) state(id string) *domain.TrackingState {
	st, ok := m.states[id]
	if !ok {
		st = &domain.TrackingState{TrackingLinkID: id}
		m.states[id] = st
	}
	return st
}

func setIfNull(field **time.Time) {
	if *field == nil {
		now := time.Now().UTC()
		*field = &now
	}
}

func (m *trackingMem) MarkTrainingViewed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	setIfNull(&m.state(id).TrainingViewedAt)
	return nil
}

func (m *trackingMem) MarkTrainingCompleted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	setIfNull(&m.state(id).TrainingCompletedAt)
	return nil
}

func (m *trackingMem) MarkTrainingReported(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	setIfNull(&m.state(id).TrainingReportedAt)
	return nil
}

func (m *trackingMem) MarkFollowOnViewed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	setIfNull(&m.state(id).FollowOnViewedAt)
	return nil
}

func (m *trackingMem) MarkFollowOnCompleted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	setIfNull(&m.state(id).FollowOnCompletedAt)
	return nil
}

func (m *trackingMem) MarkDataEntered(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	setIfNull(&m.state(id).DataEnteredAt)
	return nil
}

func (m *trackingMem) GetState(_ context.Context, id string) (*domain.TrackingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.state(id)
	return &cp, nil
}

func (m *trackingMem) AppendInteraction(_ context.Context, ev *domain.InteractionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return nil
}

func (m *trackingMem) ListInteractions(_ context.Context, id string) ([]domain.InteractionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.InteractionEvent
	for _, ev := range m.events {
		if ev.TrackingLinkID == id {
			out = append(out, ev)
		}
	}
	return out, nil
}
