// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/event-checkin/internal/filter"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
	"github.com/go-chi/chi/v5"
)

// EventHandler holds all HTTP handlers for the check-in API.
type EventHandler struct {
	svc    *service.EventService
	logger *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// writeSuccess answers a mutation with the console's notification text.
func writeSuccess(w http.ResponseWriter, status int, entity, action string, data any) {
	writeJSON(w, status, model.MutationResponse{
		Message: model.SuccessMessage(entity, action),
		Data:    data,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps service errors onto HTTP statuses. entity names
// the resource in not-found messages.
func (h *EventHandler) writeServiceError(w http.ResponseWriter, r *http.Request, entity string, err error) {
	h.writeServiceErrorData(w, r, entity, err, nil)
}

// writeServiceErrorData is writeServiceError with a partial result attached
// to the error envelope.
func (h *EventHandler) writeServiceErrorData(w http.ResponseWriter, r *http.Request, entity string, err error, data any) {
	var (
		status int
		msg    string
	)
	switch {
	case errors.Is(err, model.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrNotFound):
		status, msg = http.StatusNotFound, entity+" not found"
	case errors.Is(err, service.ErrWrongEvent):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, repository.ErrUnavailable):
		h.logger.Error("store unavailable", "path", r.URL.Path, "error", err)
		status, msg = http.StatusServiceUnavailable, "service temporarily unavailable, please retry"
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		status, msg = http.StatusInternalServerError, "internal error"
	}
	writeJSON(w, status, model.ErrorResponse{Error: msg, Data: data})
}

func mineOnly(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("mine"))
	return v
}

// ownerFilter returns the creator uid to filter by, or "" for everyone.
func ownerFilter(r *http.Request) string {
	if mineOnly(r) {
		return IdentityFrom(r.Context()).UID
	}
	return ""
}

// ─── Events ───────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req, IdentityFrom(r.Context()).UID)
	if err != nil {
		h.writeServiceError(w, r, "event", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "event", "created", event)
}

// ListEvents handles GET /events?mine=&q=&status=&category=
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := filter.Events{
		Search:   q.Get("q"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
	}
	events, err := h.svc.ListEvents(r.Context(), ownerFilter(r), f)
	if err != nil {
		h.writeServiceError(w, r, "event", err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "event", err)
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PATCH /events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var patch model.EventPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	event, err := h.svc.UpdateEvent(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeServiceError(w, r, "event", err)
		return
	}
	writeSuccess(w, http.StatusOK, "event", "updated", event)
}

// DeleteEvent handles DELETE /events/{id}
// Attendees of the event are removed with it.
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, "event", err)
		return
	}
	writeSuccess(w, http.StatusOK, "event", "deleted", nil)
}

// EventStats handles GET /events/{id}/stats
func (h *EventHandler) EventStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.EventStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "event", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ReconcileEvent handles POST /events/{id}/reconcile
func (h *EventHandler) ReconcileEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.ReconcileEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "event", err)
		return
	}
	writeSuccess(w, http.StatusOK, "event", "reconciled", event)
}

// Dashboard handles GET /dashboard?mine=
func (h *EventHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context(), ownerFilter(r))
	if err != nil {
		h.writeServiceError(w, r, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ─── Profiles ─────────────────────────────────────────────────────────────────

// GetProfile handles GET /me
// The profile is created the first time a user is seen.
func (h *EventHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.EnsureProfile(r.Context(), IdentityFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, "profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PATCH /me
func (h *EventHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch model.ProfilePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	profile, err := h.svc.UpdateProfile(r.Context(), IdentityFrom(r.Context()).UID, patch)
	if err != nil {
		h.writeServiceError(w, r, "profile", err)
		return
	}
	writeSuccess(w, http.StatusOK, "profile", "updated", profile)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
