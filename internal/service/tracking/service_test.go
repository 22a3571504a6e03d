package tracking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/LMSJTK/training-delivery/internal/service/tracking"
)

// memRepo implements tracking.Repository with set-if-null semantics.
type memRepo struct {
	mu     sync.Mutex
	states map[string]*domain.TrackingState
	events []domain.InteractionEvent
}

func newMemRepo() *memRepo {
	return &memRepo{states: make(map[string]*domain.TrackingState)}
}

func (m *memRepo) state(id string) *domain.TrackingState {
	st, ok := m.states[id]
	if !ok {
		st = &domain.TrackingState{TrackingLinkID: id}
		m.states[id] = st
	}
	return st
}

func (m *memRepo) setIfNull(field **time.Time) {
	if *field == nil {
		now := time.Now().UTC()
		*field = &now
	}
}

func (m *memRepo) MarkTrainingViewed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setIfNull(&m.state(id).TrainingViewedAt)
	return nil
}

func (m *memRepo) MarkTrainingCompleted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setIfNull(&m.state(id).TrainingCompletedAt)
	return nil
}

func (m *memRepo) MarkTrainingReported(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setIfNull(&m.state(id).TrainingReportedAt)
	return nil
}

func (m *memRepo) MarkFollowOnViewed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setIfNull(&m.state(id).FollowOnViewedAt)
	return nil
}

func (m *memRepo) MarkFollowOnCompleted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setIfNull(&m.state(id).FollowOnCompletedAt)
	return nil
}

func (m *memRepo) MarkDataEntered(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setIfNull(&m.state(id).DataEnteredAt)
	return nil
}

func (m *memRepo) GetState(_ context.Context, id string) (*domain.TrackingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.state(id)
	return &cp, nil
}

func (m *memRepo) AppendInteraction(_ context.Context, ev *domain.InteractionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return nil
}

func (m *memRepo) ListInteractions(_ context.Context, id string) ([]domain.InteractionEvent, error) {
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

const linkID = "9b2f1c44-0a5e-4d2b-8f6a-7c1d2e3f4a5b"

func TestMarkViewedRoleBranching(t *testing.T) {
	repo := newMemRepo()
	svc := tracking.NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.MarkViewed(ctx, linkID, domain.RoleTraining))
	st, err := svc.State(ctx, linkID)
	require.NoError(t, err)
	assert.NotNil(t, st.TrainingViewedAt)
	assert.Nil(t, st.FollowOnViewedAt)

	require.NoError(t, svc.MarkViewed(ctx, linkID, domain.RoleFollowOn))
	st, err = svc.State(ctx, linkID)
	require.NoError(t, err)
	assert.NotNil(t, st.FollowOnViewedAt)
}

func TestMarkViewedLandingUsesPrimaryField(t *testing.T) {
	repo := newMemRepo()
	svc := tracking.NewService(repo)

	require.NoError(t, svc.MarkViewed(context.Background(), linkID, domain.RoleLanding))
	st, err := svc.State(context.Background(), linkID)
	require.NoError(t, err)
	assert.NotNil(t, st.TrainingViewedAt)
	assert.Nil(t, st.FollowOnViewedAt)
}

func TestMarkTwiceIsNoOp(t *testing.T) {
	repo := newMemRepo()
	svc := tracking.NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.MarkViewed(ctx, linkID, domain.RoleTraining))
	first, err := svc.State(ctx, linkID)
	require.NoError(t, err)
	require.NotNil(t, first.TrainingViewedAt)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, svc.MarkViewed(ctx, linkID, domain.RoleTraining))
	second, err := svc.State(ctx, linkID)
	require.NoError(t, err)

	assert.Equal(t, *first.TrainingViewedAt, *second.TrainingViewedAt,
		"second mark must not move the timestamp")
}

func TestMarkCompletedAndReported(t *testing.T) {
	repo := newMemRepo()
	svc := tracking.NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.MarkCompleted(ctx, linkID, domain.RoleTraining))
	require.NoError(t, svc.MarkCompleted(ctx, linkID, domain.RoleFollowOn))
	require.NoError(t, svc.MarkReported(ctx, linkID))
	require.NoError(t, svc.MarkDataEntered(ctx, linkID))

	st, err := svc.State(ctx, linkID)
	require.NoError(t, err)
	assert.NotNil(t, st.TrainingCompletedAt)
	assert.NotNil(t, st.FollowOnCompletedAt)
	assert.NotNil(t, st.TrainingReportedAt)
	assert.NotNil(t, st.DataEnteredAt)
}

func TestRecordInteractionAppends(t *testing.T) {
	repo := newMemRepo()
	svc := tracking.NewService(repo)
	ctx := context.Background()

	ok := true
	require.NoError(t, svc.RecordInteraction(ctx, linkID, "quiz-q1", "click", "optionB", &ok))
	require.NoError(t, svc.RecordInteraction(ctx, linkID, "quiz-q2", "click", "optionA", nil))
	require.NoError(t, svc.RecordInteraction(ctx, "other-link", "quiz-q1", "click", "", nil))

	evs, err := svc.Interactions(ctx, linkID)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "quiz-q1", evs[0].Tag)
	assert.Equal(t, "quiz-q2", evs[1].Tag)
	assert.NotEmpty(t, evs[0].ID)
	require.NotNil(t, evs[0].Success)
	assert.True(t, *evs[0].Success)
}
