package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes assembles the full API router.
func (h *Handler) Routes(allowedOrigins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/nights", h.GetNights)
		r.Get("/nights/{night_id}", h.GetNight)
		r.Get("/reports", h.GetReports)
		r.Get("/weeks", h.GetWeeks)
		r.Get("/rankings", h.GetRankings)
		r.Get("/attendance", h.GetAttendance)
		r.Get("/forecast", h.GetForecast)

		r.Post("/ingest", h.IngestReport)
		r.Post("/compute", h.Compute)
		r.Post("/roster", h.UpsertRoster)
		r.Post("/aliases", h.UpsertAlias)
		r.Post("/overrides/availability", h.UpsertAvailabilityOverride)
		r.Post("/overrides/night", h.UpsertNightOverride)
	})

	return r
}
