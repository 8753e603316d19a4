package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/guildops/bench-api/internal/models"
)

// GetNights returns every computed night's summary.
// GET /api/v1/nights
func (h *Handler) GetNights(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.results.NightSummaries(r.Context())
	if err != nil {
		h.logger.Errorw("failed to load night summaries", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load nights")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"nights": summaries,
		"count":  len(summaries),
	})
}

// NightDetail is one night's summary plus its full ledger.
type NightDetail struct {
	Summary models.NightSummary      `json:"summary"`
	Players []models.BenchNightTotal `json:"players"`
}

// GetNight returns one night's summary and per-player ledger rows.
// GET /api/v1/nights/{night_id}
func (h *Handler) GetNight(w http.ResponseWriter, r *http.Request) {
	nightID := chi.URLParam(r, "night_id")

	summaries, err := h.results.NightSummaries(r.Context())
	if err != nil {
		h.logger.Errorw("failed to load night summaries", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load night")
		return
	}
	var summary *models.NightSummary
	for i := range summaries {
		if summaries[i].NightID == nightID {
			summary = &summaries[i]
			break
		}
	}
	if summary == nil {
		h.errorResponse(w, http.StatusNotFound, "Night not found")
		return
	}

	totals, err := h.results.NightTotals(r.Context())
	if err != nil {
		h.logger.Errorw("failed to load night totals", "night_id", nightID, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load night")
		return
	}
	players := make([]models.BenchNightTotal, 0)
	for _, t := range totals {
		if t.NightID == nightID {
			players = append(players, t)
		}
	}

	h.jsonResponse(w, http.StatusOK, NightDetail{Summary: *summary, Players: players})
}

// GetReports returns ingested report metadata.
// GET /api/v1/reports
func (h *Handler) GetReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.Reports(r.Context())
	if err != nil {
		h.logger.Errorw("failed to load reports", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load reports")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}
