package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/guildops/bench-api/internal/models"
)

// IngestRequest names one report to pull from the combat-log service.
type IngestRequest struct {
	ReportURL string `json:"report_url" validate:"required"`
}

// IngestReport fetches a report and stores its fights.
// POST /api/v1/ingest
func (h *Handler) IngestReport(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.ingestor.IngestReport(r.Context(), req.ReportURL)
	if err != nil {
		h.logger.Errorw("ingest failed", "report_url", req.ReportURL, "error", err)
		h.errorResponse(w, http.StatusBadGateway, "Failed to ingest report")
		return
	}
	h.jsonResponse(w, http.StatusOK, res)
}

// Compute runs the full attendance pipeline.
// POST /api/v1/compute
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	result, err := h.pipeline.Run(r.Context())
	if err != nil {
		h.logger.Errorw("pipeline run failed", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Pipeline run failed")
		return
	}
	h.jsonResponse(w, http.StatusOK, result)
}

// RosterRequest upserts one roster entry.
type RosterRequest struct {
	Main       string `json:"main" validate:"required"`
	JoinNight  string `json:"join_night,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LeaveNight string `json:"leave_night,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Active     bool   `json:"active"`
}

// UpsertRoster writes one roster entry.
// POST /api/v1/roster
func (h *Handler) UpsertRoster(w http.ResponseWriter, r *http.Request) {
	var req RosterRequest
	if !h.decode(w, r, &req) {
		return
	}

	entry := models.RosterEntry{
		Main:       req.Main,
		JoinNight:  req.JoinNight,
		LeaveNight: req.LeaveNight,
		Active:     req.Active,
	}
	if err := h.config.UpsertRosterEntry(r.Context(), entry); err != nil {
		h.logger.Errorw("roster upsert failed", "main", req.Main, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to save roster entry")
		return
	}
	h.jsonResponse(w, http.StatusOK, entry)
}

// AliasRequest maps an alt name to a roster main.
type AliasRequest struct {
	Alt  string `json:"alt" validate:"required"`
	Main string `json:"main" validate:"required"`
}

// UpsertAlias writes one alt-to-main mapping.
// POST /api/v1/aliases
func (h *Handler) UpsertAlias(w http.ResponseWriter, r *http.Request) {
	var req AliasRequest
	if !h.decode(w, r, &req) {
		return
	}

	alias := models.Alias{Alt: req.Alt, Main: req.Main}
	if err := h.config.UpsertAlias(r.Context(), alias); err != nil {
		h.logger.Errorw("alias upsert failed", "alt", req.Alt, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to save alias")
		return
	}
	h.jsonResponse(w, http.StatusOK, alias)
}

// AvailabilityOverrideRequest is a manual per-half availability ruling.
type AvailabilityOverrideRequest struct {
	NightID   string `json:"night_id" validate:"required,datetime=2006-01-02"`
	Player    string `json:"player" validate:"required"`
	Half      string `json:"half" validate:"required,oneof=pre post"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// UpsertAvailabilityOverride writes one availability ruling.
// POST /api/v1/overrides/availability
func (h *Handler) UpsertAvailabilityOverride(w http.ResponseWriter, r *http.Request) {
	var req AvailabilityOverrideRequest
	if !h.decode(w, r, &req) {
		return
	}

	ov := models.AvailabilityOverride{
		NightID:   req.NightID,
		Player:    req.Player,
		Half:      models.Half(req.Half),
		Available: req.Available,
		Reason:    req.Reason,
	}
	if err := h.config.UpsertAvailabilityOverride(r.Context(), ov); err != nil {
		h.logger.Errorw("availability override upsert failed", "night_id", req.NightID, "player", req.Player, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to save override")
		return
	}
	h.jsonResponse(w, http.StatusOK, ov)
}

// NightOverrideRequest carries manual break and envelope endpoints for one
// night. All values are absolute epoch ms.
type NightOverrideRequest struct {
	NightID         string `json:"night_id" validate:"required,datetime=2006-01-02"`
	BreakStartMs    *int64 `json:"break_start_ms,omitempty"`
	BreakEndMs      *int64 `json:"break_end_ms,omitempty"`
	EnvelopeStartMs *int64 `json:"envelope_start_ms,omitempty"`
	EnvelopeEndMs   *int64 `json:"envelope_end_ms,omitempty"`
}

// UpsertNightOverride writes one night's manual break/envelope ruling.
// POST /api/v1/overrides/night
func (h *Handler) UpsertNightOverride(w http.ResponseWriter, r *http.Request) {
	var req NightOverrideRequest
	if !h.decode(w, r, &req) {
		return
	}
	if (req.BreakStartMs == nil) != (req.BreakEndMs == nil) {
		h.errorResponse(w, http.StatusBadRequest, "Break override needs both start and end")
		return
	}

	ov := models.NightOverride{NightID: req.NightID}
	if req.BreakStartMs != nil {
		ov.Break = &models.Interval{StartMs: *req.BreakStartMs, EndMs: *req.BreakEndMs}
		if !ov.Break.Valid() {
			h.errorResponse(w, http.StatusBadRequest, "Break override ends before it starts")
			return
		}
	}
	if req.EnvelopeStartMs != nil || req.EnvelopeEndMs != nil {
		ov.Envelope = &models.PartialInterval{StartMs: req.EnvelopeStartMs, EndMs: req.EnvelopeEndMs}
	}

	if err := h.config.UpsertNightOverride(r.Context(), ov); err != nil {
		h.logger.Errorw("night override upsert failed", "night_id", req.NightID, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to save override")
		return
	}
	h.jsonResponse(w, http.StatusOK, ov)
}

// decode reads a size-limited JSON body and validates it. Writes the error
// response itself and reports whether the request may proceed.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}
