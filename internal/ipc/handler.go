// Package ipc provides the HTTP API for the xenopark backend.
package ipc

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xenopark/xenopark/internal/campaign"
	"github.com/xenopark/xenopark/internal/crisis"
	"github.com/xenopark/xenopark/internal/domain"
	"github.com/xenopark/xenopark/internal/game"
	"github.com/xenopark/xenopark/internal/notify"
	"github.com/xenopark/xenopark/internal/park"
	"github.com/xenopark/xenopark/internal/store"
)

const defaultListLimit = 50

// Handler holds all dependencies for the HTTP handlers.
type Handler struct {
	Park       *park.Park
	Crisis     *crisis.Engine
	Loop       *game.Loop
	Feed       *notify.Feed
	Campaign   *campaign.Manager
	DB         *sql.DB
	CrisisRepo *store.CrisisRepo
	Version    string
}

// RespondRequest is the body for POST /api/v1/crisis/respond.
// Exactly one of Response or Option must be set.
type RespondRequest struct {
	Response string `json:"response,omitempty"`
	Option   *int   `json:"option,omitempty"`
}

// CountRequest is the body for the contain and release endpoints.
type CountRequest struct {
	Count int `json:"count"`
}

// SecurityRequest is the body for PUT /api/v1/park/security.
type SecurityRequest struct {
	Level domain.SecurityLevel `json:"level"`
}

// CheckpointRequest is the body for POST /api/v1/checkpoints.
type CheckpointRequest struct {
	Label string `json:"label"`
}

// HistoryResponse is the response for GET /api/v1/crisis/history.
type HistoryResponse struct {
	History       []string `json:"history"`
	LastCrisisDay int      `json:"last_crisis_day"`
}

// APIError is a structured error response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.Version,
		"day":     h.Park.CurrentDay(),
		"phase":   h.Crisis.Phase(),
	})
}

// GetPark handles GET /api/v1/park.
func (h *Handler) GetPark(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Park.Snapshot())
}

// Tick handles POST /api/v1/park/tick and settles one day immediately.
func (h *Handler) Tick(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Loop.Step(r.Context()))
}

// Contain handles POST /api/v1/park/contain.
func (h *Handler) Contain(w http.ResponseWriter, r *http.Request) {
	var req CountRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Park.Contain(req.Count); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Park.Snapshot())
}

// Release handles POST /api/v1/park/release.
func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	var req CountRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.Park.Release(req.Count); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Park.Snapshot())
}

// SetSecurity handles PUT /api/v1/park/security.
func (h *Handler) SetSecurity(w http.ResponseWriter, r *http.Request) {
	var req SecurityRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Park.SetSecurity(req.Level); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Park.Snapshot())
}

// GetCrisis handles GET /api/v1/crisis.
func (h *Handler) GetCrisis(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Crisis.View())
}

// Respond handles POST /api/v1/crisis/respond.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	var req RespondRequest
	if !decode(w, r, &req) {
		return
	}
	if (req.Response == "") == (req.Option == nil) {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "exactly one of response or option is required"})
		return
	}

	var err error
	if req.Option != nil {
		err = h.Crisis.SubmitOption(*req.Option)
	} else {
		err = h.Crisis.SubmitResponse(req.Response)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.Crisis.View())
}

// CrisisHistory handles GET /api/v1/crisis/history.
func (h *Handler) CrisisHistory(w http.ResponseWriter, r *http.Request) {
	hist := h.Crisis.History()
	if hist == nil {
		hist = []string{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{History: hist, LastCrisisDay: h.Crisis.LastCrisisDay()})
}

// CrisisCatalog handles GET /api/v1/crisis/catalog.
func (h *Handler) CrisisCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Crisis.Catalog())
}

// CrisisLog handles GET /api/v1/crisis/log?limit=N.
func (h *Handler) CrisisLog(w http.ResponseWriter, r *http.Request) {
	records, err := h.CrisisRepo.ListRecent(r.Context(), h.DB, limitParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.CrisisRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Notifications handles GET /api/v1/notifications?limit=N.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	notes := h.Feed.Recent(limitParam(r))
	if notes == nil {
		notes = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// ListSaves handles GET /api/v1/saves.
func (h *Handler) ListSaves(w http.ResponseWriter, r *http.Request) {
	saves, err := h.Campaign.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if saves == nil {
		saves = []domain.SaveRecord{}
	}
	writeJSON(w, http.StatusOK, saves)
}

// Save handles POST /api/v1/saves/{slot}.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Campaign.Save(r.Context(), chi.URLParam(r, "slot"))
	if err != nil {
		writeError(w, err)
		return
	}
	rec.Payload = ""
	writeJSON(w, http.StatusCreated, rec)
}

// Load handles POST /api/v1/saves/{slot}/load.
func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Campaign.Load(r.Context(), chi.URLParam(r, "slot"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// QuickSave handles POST /api/v1/quicksave.
func (h *Handler) QuickSave(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Campaign.QuickSave(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rec.Payload = ""
	writeJSON(w, http.StatusCreated, rec)
}

// QuickLoad handles POST /api/v1/quickload.
func (h *Handler) QuickLoad(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Campaign.QuickLoad(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListCheckpoints handles GET /api/v1/checkpoints.
func (h *Handler) ListCheckpoints(w http.ResponseWriter, r *http.Request) {
	cps, err := h.Campaign.ListCheckpoints(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if cps == nil {
		cps = []domain.SaveRecord{}
	}
	writeJSON(w, http.StatusOK, cps)
}

// Checkpoint handles POST /api/v1/checkpoints. The body is optional.
func (h *Handler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	var req CheckpointRequest
	if r.ContentLength != 0 {
		if !decode(w, r, &req) {
			return
		}
	}
	rec, err := h.Campaign.Checkpoint(r.Context(), req.Label)
	if err != nil {
		writeError(w, err)
		return
	}
	rec.Payload = ""
	writeJSON(w, http.StatusCreated, rec)
}

// RestoreCheckpoint handles POST /api/v1/checkpoints/{id}/restore.
func (h *Handler) RestoreCheckpoint(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Campaign.RestoreCheckpoint(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return false
	}
	return true
}

func limitParam(r *http.Request) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return defaultListLimit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var engErr *domain.EngineError
	if errors.As(err, &engErr) {
		status := http.StatusInternalServerError
		switch engErr.Code {
		case domain.ErrSaveNotFound.Code, domain.ErrCheckpointNotFound.Code:
			status = http.StatusNotFound
		case domain.ErrNoActiveCrisis.Code, domain.ErrCrisisResolving.Code, domain.ErrCrisisActive.Code:
			status = http.StatusConflict
		case domain.ErrUnknownResponse.Code, domain.ErrSaveVersion.Code, domain.ErrSaveCorrupt.Code:
			status = http.StatusUnprocessableEntity
		case domain.ErrInvalidAmount.Code, domain.ErrInvalidSecurity.Code, domain.ErrInvalidSlot.Code:
			status = http.StatusBadRequest
		case domain.ErrEngineClosed.Code:
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, APIError{Code: engErr.Code, Message: engErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, APIError{Code: -1, Message: err.Error()})
}
