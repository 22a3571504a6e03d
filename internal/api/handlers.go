package api

import (
	"errors"
	"net/http"

	"github.com/LMSJTK/training-delivery/internal/content"
	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/LMSJTK/training-delivery/internal/launch"
	"github.com/LMSJTK/training-delivery/internal/pkg/httputil"
	"github.com/LMSJTK/training-delivery/internal/pkg/logger"
	"github.com/LMSJTK/training-delivery/internal/render"
	"github.com/LMSJTK/training-delivery/internal/service/scoring"
	"github.com/LMSJTK/training-delivery/internal/service/session"
	"github.com/LMSJTK/training-delivery/internal/service/tracking"
)

// Handlers carries the wired services behind the HTTP surface.
type Handlers struct {
	sessions      *session.Service
	tracker       *tracking.Service
	scorer        *scoring.Service
	loader        *content.Loader
	engine        *render.Engine
	publicBaseURL string
	debug         bool
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(sessions *session.Service, tracker *tracking.Service, scorer *scoring.Service, loader *content.Loader, engine *render.Engine, publicBaseURL string, debug bool) *Handlers {
	return &Handlers{
		sessions:      sessions,
		tracker:       tracker,
		scorer:        scorer,
		loader:        loader,
		engine:        engine,
		publicBaseURL: publicBaseURL,
		debug:         debug,
	}
}

// HandleLaunch serves a tracking link: resolve identifiers, validate the
// session, classify the content's role, load the body, substitute, serve.
func (h *Handlers) HandleLaunch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := launch.Resolve(r)
	if err != nil {
		httputil.BadRequest(w, "invalid launch request")
		return
	}

	sess, err := h.sessions.Validate(ctx, ids.TrackingLinkID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	scenario, err := h.sessions.Scenario(ctx, sess)
	if err != nil {
		h.respondError(w, err)
		return
	}

	cls, ok := launch.Classify(scenario, ids.ContentID, sess.TrackingLinkID, h.publicBaseURL)
	if !ok {
		logger.Error("content not referenced by scenario",
			"content_id", ids.ContentID, "training_id", sess.TrainingID)
		httputil.NotFound(w, "content not found")
		return
	}

	res, err := h.loader.Resolve(ctx, ids.ContentID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if res.Record.ContentType == domain.ContentVideo {
		h.serveVideo(w, r, res.Record)
		return
	}

	html := h.engine.Render(render.Input{
		Body:        res.Body,
		Source:      res.Source,
		ContentID:   ids.ContentID,
		Session:     sess,
		Scenario:    scenario,
		Role:        cls.Role,
		NextStepURL: cls.NextStepURL,
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write([]byte(html)); err != nil {
		logger.Error("launch response write failed", "error", err)
	}
}

func (h *Handlers) serveVideo(w http.ResponseWriter, r *http.Request, rec *domain.ContentRecord) {
	key, localPath, err := h.loader.VideoSource(rec)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if key != "" {
		http.Redirect(w, r, h.loader.ObjectURL(key), http.StatusFound)
		return
	}
	http.ServeFile(w, r, localPath)
}

type trackRequest struct {
	TrackingLinkID string `json:"tracking_link_id"`
	ContentID      string `json:"content_id,omitempty"`
}

// HandleView marks a content view. Role-aware: a content id belonging to
// the scenario's follow-on slot updates the follow-on view field.
func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req trackRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.TrackingLinkID == "" {
		httputil.BadRequest(w, "tracking_link_id is required")
		return
	}

	sess, err := h.sessions.Validate(ctx, req.TrackingLinkID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	role := domain.RoleTraining
	if req.ContentID != "" {
		if scenario, err := h.sessions.Scenario(ctx, sess); err == nil {
			if slot, ok := scenario.RoleOf(req.ContentID); ok {
				role = slot
			}
		}
	}

	if err := h.tracker.MarkViewed(ctx, sess.TrackingLinkID, role); err != nil {
		h.respondError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "ok"})
}

type interactionRequest struct {
	TrackingLinkID   string `json:"tracking_link_id"`
	Tag              string `json:"tag_name"`
	InteractionType  string `json:"interaction_type"`
	InteractionValue string `json:"interaction_value,omitempty"`
	Success          *bool  `json:"success,omitempty"`
}

// HandleInteraction appends one interaction event. A data_entry
// interaction also sets the data-entered milestone; only field names ever
// arrive here, never submitted values.
func (h *Handlers) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req interactionRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.TrackingLinkID == "" || req.Tag == "" || req.InteractionType == "" {
		httputil.BadRequest(w, "tracking_link_id, tag_name and interaction_type are required")
		return
	}

	sess, err := h.sessions.Validate(ctx, req.TrackingLinkID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.tracker.RecordInteraction(ctx, sess.TrackingLinkID, req.Tag, req.InteractionType, req.InteractionValue, req.Success); err != nil {
		h.respondError(w, err)
		return
	}

	if req.InteractionType == "data_entry" {
		if err := h.tracker.MarkDataEntered(ctx, sess.TrackingLinkID); err != nil {
			logger.Warn("data-entered mark failed",
				"tracking_link_id", sess.TrackingLinkID, "error", err)
		}
	}
	httputil.OK(w, map[string]string{"status": "ok"})
}

type scoreRequest struct {
	TrackingLinkID string                     `json:"tracking_link_id"`
	Score          float64                    `json:"score"`
	ContentID      string                     `json:"content_id,omitempty"`
	Role           string                     `json:"content_role,omitempty"`
	Interactions   []scoring.InteractionInput `json:"interactions,omitempty"`
}

// HandleScore runs the score reconciler. A duplicate submission is a 200
// with already_recorded set, never an error.
func (h *Handlers) HandleScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req scoreRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.TrackingLinkID == "" {
		httputil.BadRequest(w, "tracking_link_id is required")
		return
	}

	sess, err := h.sessions.Validate(ctx, req.TrackingLinkID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	res, err := h.scorer.Record(ctx, sess, scoring.Submission{
		Score:        req.Score,
		ContentID:    req.ContentID,
		RoleHint:     domain.ContentRole(req.Role),
		Interactions: req.Interactions,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httputil.OK(w, res)
}

// HandleReport marks the phishing-report milestone. Idempotent.
func (h *Handlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req trackRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.TrackingLinkID == "" {
		httputil.BadRequest(w, "tracking_link_id is required")
		return
	}

	sess, err := h.sessions.Validate(ctx, req.TrackingLinkID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.tracker.MarkReported(ctx, sess.TrackingLinkID); err != nil {
		h.respondError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "ok"})
}

// HandleTrackerScript serves the embedded client bridge.
func (h *Handlers) HandleTrackerScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if _, err := w.Write(render.TrackerScript); err != nil {
		logger.Error("tracker script write failed", "error", err)
	}
}

// HandleHealth is the liveness probe.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "healthy"})
}

// respondError maps service errors onto the HTTP taxonomy. Session
// failures are always 403: the response never discloses whether the link
// was unknown or expired.
func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		httputil.Forbidden(w, "access denied")
	case errors.Is(err, launch.ErrScenarioNotFound):
		logger.Error("scenario missing for session", "error", err)
		httputil.NotFound(w, "scenario not found")
	case errors.Is(err, content.ErrContentNotFound):
		logger.Error("content missing", "error", err)
		httputil.NotFound(w, "content not found")
	default:
		httputil.InternalError(w, err, h.debug)
	}
}
