package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes wires the public surface. Tracked content runs inside mail
// clients and third-party training packages, so the tracking endpoints are
// wide open for CORS; there is nothing authenticated here.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HandleHealth)
	r.Get("/assets/tracker.js", h.HandleTrackerScript)

	// Launch entrypoint: /t/<content><tracking> path form plus the query
	// forms, all handled by the resolver.
	r.Get("/t", h.HandleLaunch)
	r.Get("/t/*", h.HandleLaunch)

	r.Route("/api/track", func(r chi.Router) {
		r.Post("/view", h.HandleView)
		r.Post("/interaction", h.HandleInteraction)
		r.Post("/score", h.HandleScore)
		r.Post("/report", h.HandleReport)
	})

	return r
}
