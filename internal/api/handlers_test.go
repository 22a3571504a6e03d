package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/LMSJTK/training-delivery/internal/content"
	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/LMSJTK/training-delivery/internal/launch"
	"github.com/LMSJTK/training-delivery/internal/render"
	"github.com/LMSJTK/training-delivery/internal/service/scoring"
	"github.com/LMSJTK/training-delivery/internal/service/session"
	"github.com/LMSJTK/training-delivery/internal/service/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTrackingID = "aaaaaaaa-1111-4111-8111-111111111111"
	testTrainingID = "bbbbbbbb-2222-4222-8222-222222222222"
	testLandingID  = "cccccccc-3333-4333-8333-333333333333"
	testContentID  = "dddddddd-4444-4444-8444-444444444444"
	testFollowOnID = "eeeeeeee-5555-4555-8555-555555555555"
)

// memStore backs every repository interface the handlers need.
type memStore struct {
	mu        sync.Mutex
	sessions  map[string]*domain.TrackingSession
	scenarios map[string]*domain.TrainingScenario
	contents  map[string]*domain.ContentRecord
	states    map[string]*domain.TrackingState
	events    map[string][]domain.InteractionEvent
	scores    map[string]*domain.ScoreRecord
}

func newMemStore() *memStore {
	return &memStore{
		sessions:  make(map[string]*domain.TrackingSession),
		scenarios: make(map[string]*domain.TrainingScenario),
		contents:  make(map[string]*domain.ContentRecord),
		states:    make(map[string]*domain.TrackingState),
		events:    make(map[string][]domain.InteractionEvent),
		scores:    make(map[string]*domain.ScoreRecord),
	}
}

func (m *memStore) GetByTrackingLinkID(_ context.Context, id string) (*domain.TrackingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) GetScenario(_ context.Context, trainingID string) (*domain.TrainingScenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.scenarios[trainingID]
	if !ok {
		return nil, launch.ErrScenarioNotFound
	}
	cp := *sc
	return &cp, nil
}

func (m *memStore) GetContent(_ context.Context, id string) (*domain.ContentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contents[id]
	if !ok {
		return nil, content.ErrContentNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) state(id string) *domain.TrackingState {
	st, ok := m.states[id]
	if !ok {
		st = &domain.TrackingState{TrackingLinkID: id}
		m.states[id] = st
	}
	return st
}

func (m *memStore) mark(id string, pick func(*domain.TrackingState) **time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := pick(m.state(id))
	if *f == nil {
		now := time.Now().UTC()
		*f = &now
	}
	return nil
}

func (m *memStore) MarkTrainingViewed(_ context.Context, id string) error {
	return m.mark(id, func(s *domain.TrackingState) **time.Time { return &s.TrainingViewedAt })
}

func (m *memStore) MarkTrainingCompleted(_ context.Context, id string) error {
	return m.mark(id, func(s *domain.TrackingState) **time.Time { return &s.TrainingCompletedAt })
}

func (m *memStore) MarkTrainingReported(_ context.Context, id string) error {
	return m.mark(id, func(s *domain.TrackingState) **time.Time { return &s.TrainingReportedAt })
}

func (m *memStore) MarkFollowOnViewed(_ context.Context, id string) error {
	return m.mark(id, func(s *domain.TrackingState) **time.Time { return &s.FollowOnViewedAt })
}

func (m *memStore) MarkFollowOnCompleted(_ context.Context, id string) error {
	return m.mark(id, func(s *domain.TrackingState) **time.Time { return &s.FollowOnCompletedAt })
}

func (m *memStore) MarkDataEntered(_ context.Context, id string) error {
	return m.mark(id, func(s *domain.TrackingState) **time.Time { return &s.DataEnteredAt })
}

func (m *memStore) GetState(_ context.Context, id string) (*domain.TrackingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.state(id)
	return &cp, nil
}

func (m *memStore) AppendInteraction(_ context.Context, ev *domain.InteractionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[ev.TrackingLinkID] = append(m.events[ev.TrackingLinkID], *ev)
	return nil
}

func (m *memStore) ListInteractions(_ context.Context, id string) ([]domain.InteractionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.InteractionEvent(nil), m.events[id]...), nil
}

func (m *memStore) scoreKey(id string, role domain.ContentRole) string {
	return id + "|" + string(role)
}

func (m *memStore) CommitScore(_ context.Context, id string, role domain.ContentRole, score float64) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.scoreKey(id, role)
	rec, ok := m.scores[k]
	if !ok || rec.Score == 0 {
		m.scores[k] = &domain.ScoreRecord{
			TrackingLinkID: id, ContentRole: role, Score: score, RecordedAt: time.Now().UTC(),
		}
		return score, true, nil
	}
	return rec.Score, false, nil
}

func (m *memStore) GetScore(_ context.Context, id string, role domain.ContentRole) (*domain.ScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.scores[m.scoreKey(id, role)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func str(s string) *string { return &s }

func testStack(t *testing.T) (*memStore, http.Handler) {
	t.Helper()
	store := newMemStore()

	store.sessions[testTrackingID] = &domain.TrackingSession{
		TrackingLinkID: testTrackingID,
		TrainingID:     testTrainingID,
		RecipientID:    "rcpt-1",
		RecipientEmail: "jordan@acme.example",
	}
	store.scenarios[testTrainingID] = &domain.TrainingScenario{
		ID:             testTrainingID,
		Name:           "Q1 Awareness",
		LandingPageID:  str(testLandingID),
		TrainingPageID: str(testContentID),
		FollowOnPageID: str(testFollowOnID),
		FromEmail:      "it-help@acme.example",
		FromName:       "IT Helpdesk",
	}
	store.contents[testLandingID] = &domain.ContentRecord{
		ID:          testLandingID,
		ContentType: domain.ContentHTML,
		HTMLBody: str(`<html><head></head><body>
			<a href="{{{trainingURL}}}">continue</a>
			<form method="post"><input name="username"></form>
		</body></html>`),
	}
	store.contents[testContentID] = &domain.ContentRecord{
		ID:          testContentID,
		ContentType: domain.ContentHTML,
		HTMLBody:    str(`<html><head></head><body>training module</body></html>`),
	}

	sessions := session.NewService(store, nil, time.Minute)
	tracker := tracking.NewService(store)
	scorer := scoring.NewService(store, store, tracker, nil, domain.RoleTraining)
	loader := content.NewLoader(store, nil, "", "", "")
	engine := render.NewEngine("/assets/tracker.js", "https://t.acme.example", "")

	h := NewHandlers(sessions, tracker, scorer, loader, engine, "https://t.acme.example", false)
	return store, SetupRoutes(h)
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLaunchServesSubstitutedLandingPage(t *testing.T) {
	_, handler := testStack(t)

	path := "/t/" + launch.StripUUID(testLandingID) + "/" + launch.StripUUID(testTrackingID)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.NotContains(t, html, "{{{trainingURL}}}")
	assert.Contains(t, html, "/t/"+launch.StripUUID(testContentID)+"/"+launch.StripUUID(testTrackingID))
	assert.Contains(t, html, `name="next-url"`)
	assert.Contains(t, html, "/assets/tracker.js")
	assert.Contains(t, html, `<meta name="tracking-id" content="`+testTrackingID+`">`)
}

func TestLaunchQueryForms(t *testing.T) {
	_, handler := testStack(t)

	paths := []string{
		"/t?path=ignored/prefix/" + launch.StripUUID(testContentID) + "/" + launch.StripUUID(testTrackingID),
		"/t?content=" + testContentID + "&trackingId=" + testTrackingID,
	}
	for _, p := range paths {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, p)
		assert.Contains(t, rec.Body.String(), "training module", p)
	}
}

func TestLaunchMalformedIdentifier(t *testing.T) {
	_, handler := testStack(t)

	req := httptest.NewRequest(http.MethodGet, "/t/onlyonesegment", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLaunchUnknownSessionIsForbidden(t *testing.T) {
	_, handler := testStack(t)

	unknown := "99999999-9999-4999-8999-999999999999"
	path := "/t/" + launch.StripUUID(testLandingID) + "/" + launch.StripUUID(unknown)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUnknownLinkNever404Or500(t *testing.T) {
	_, handler := testStack(t)

	endpoints := []string{"/api/track/view", "/api/track/interaction", "/api/track/score", "/api/track/report"}
	for _, ep := range endpoints {
		rec := postJSON(t, handler, ep, map[string]any{
			"tracking_link_id": "99999999-9999-4999-8999-999999999999",
			"tag_name":         "x",
			"interaction_type": "click",
			"score":            50,
		})
		assert.Equal(t, http.StatusForbidden, rec.Code, ep)
	}
}

func TestViewMarkIsRoleAwareAndIdempotent(t *testing.T) {
	store, handler := testStack(t)

	rec := postJSON(t, handler, "/api/track/view", trackRequest{TrackingLinkID: testTrackingID})
	require.Equal(t, http.StatusOK, rec.Code)

	st := store.states[testTrackingID]
	require.NotNil(t, st.TrainingViewedAt)
	first := *st.TrainingViewedAt

	rec = postJSON(t, handler, "/api/track/view", trackRequest{TrackingLinkID: testTrackingID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, first, *st.TrainingViewedAt, "second view must not move the timestamp")

	rec = postJSON(t, handler, "/api/track/view", trackRequest{TrackingLinkID: testTrackingID, ContentID: testFollowOnID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, st.FollowOnViewedAt)
}

func TestInteractionDataEntrySetsMilestone(t *testing.T) {
	store, handler := testStack(t)

	rec := postJSON(t, handler, "/api/track/interaction", interactionRequest{
		TrackingLinkID:   testTrackingID,
		Tag:              "login-form",
		InteractionType:  "data_entry",
		InteractionValue: "username,password",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.NotNil(t, store.states[testTrackingID].DataEnteredAt)
	require.Len(t, store.events[testTrackingID], 1)
	assert.Equal(t, "login-form", store.events[testTrackingID][0].Tag)
}

func TestScoreCommitAndDuplicate(t *testing.T) {
	_, handler := testStack(t)

	rec := postJSON(t, handler, "/api/track/score", scoreRequest{
		TrackingLinkID: testTrackingID, Score: 85, ContentID: testContentID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res scoring.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 85.0, res.Score)
	assert.Equal(t, domain.RoleTraining, res.ContentRole)
	assert.False(t, res.AlreadyRecorded)

	rec = postJSON(t, handler, "/api/track/score", scoreRequest{
		TrackingLinkID: testTrackingID, Score: 40, ContentID: testContentID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.AlreadyRecorded)
	assert.Equal(t, 85.0, res.Score, "duplicate echoes the recorded score")
}

func TestScoreAcceptsBeaconBody(t *testing.T) {
	_, handler := testStack(t)

	// navigator.sendBeacon posts text/plain.
	body := []byte(`{"tracking_link_id":"` + testTrackingID + `","score":70}`)
	req := httptest.NewRequest(http.MethodPost, "/api/track/score", bytes.NewReader(body))
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReportMark(t *testing.T) {
	store, handler := testStack(t)

	rec := postJSON(t, handler, "/api/track/report", trackRequest{TrackingLinkID: testTrackingID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, store.states[testTrackingID].TrainingReportedAt)
}

func TestTrackerScriptServed(t *testing.T) {
	_, handler := testStack(t)

	req := httptest.NewRequest(http.MethodGet, "/assets/tracker.js", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, rec.Body.String(), "recordFinalScore")
	assert.Contains(t, rec.Body.String(), "API_1484_11")
}

func TestHealth(t *testing.T) {
	_, handler := testStack(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
