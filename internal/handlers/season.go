package handlers

import (
	"net/http"

	"github.com/guildops/bench-api/internal/logic"
	"github.com/guildops/bench-api/internal/models"
)

// GetWeeks returns the reset-aligned weekly totals.
// GET /api/v1/weeks
func (h *Handler) GetWeeks(w http.ResponseWriter, r *http.Request) {
	totals, err := h.results.WeekTotals(r.Context())
	if err != nil {
		h.logger.Errorw("failed to load week totals", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load weeks")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"weeks": totals,
		"count": len(totals),
	})
}

// GetRankings returns the season bench ranking, least benched first.
// GET /api/v1/rankings
func (h *Handler) GetRankings(w http.ResponseWriter, r *http.Request) {
	rankings, err := h.results.Rankings(r.Context())
	if err != nil {
		h.logger.Errorw("failed to load rankings", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load rankings")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"rankings": rankings,
		"count":    len(rankings),
	})
}

// GetAttendance returns the per-player season attendance ledger with weekly
// status letters.
// GET /api/v1/attendance
func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	rows, err := h.attendanceRows(r)
	if err != nil {
		h.logger.Errorw("failed to compute attendance", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to compute attendance")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"attendance": rows,
		"count":      len(rows),
	})
}

// GetForecast returns the "at least K attend" probability table.
// GET /api/v1/forecast
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	attendance, err := h.attendanceRows(r)
	if err != nil {
		h.logger.Errorw("failed to compute attendance for forecast", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to compute forecast")
		return
	}

	rates := logic.AttendanceRates(attendance)
	rows := logic.ForecastRows(rates, h.engine.Forecast)
	if rows == nil {
		h.jsonResponse(w, http.StatusOK, map[string]interface{}{
			"forecast": []interface{}{},
			"players":  len(rates),
			"note":     "roster below minimum size for a forecast",
		})
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"forecast":      rows,
		"players":       len(rates),
		"baseline_rate": h.engine.Forecast.BaselineRate,
	})
}

func (h *Handler) attendanceRows(r *http.Request) ([]models.AttendanceRow, error) {
	ctx := r.Context()
	summaries, err := h.results.NightSummaries(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := h.results.NightTotals(ctx)
	if err != nil {
		return nil, err
	}
	roster, err := h.config.Roster(ctx)
	if err != nil {
		return nil, err
	}
	return logic.AttendanceRows(logic.AttendanceInput{
		Summaries:   summaries,
		NightTotals: totals,
		Roster:      roster,
		ResetDay:    h.engine.ResetDay,
	})
}
