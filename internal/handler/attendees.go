package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Shivanand-hulikatti/event-checkin/internal/filter"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/go-chi/chi/v5"
)

// ListAttendees handles GET /events/{id}/attendees?q=&category=&status=
func (h *EventHandler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := filter.Attendees{
		Search:   q.Get("q"),
		Category: q.Get("category"),
		Status:   q.Get("status"),
	}
	attendees, err := h.svc.GetAttendees(r.Context(), chi.URLParam(r, "id"), f)
	if err != nil {
		h.writeServiceError(w, r, "event", err)
		return
	}
	if attendees == nil {
		attendees = []model.Attendee{}
	}
	writeJSON(w, http.StatusOK, attendees)
}

// CreateAttendee handles POST /events/{id}/attendees
func (h *EventHandler) CreateAttendee(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAttendeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.EventID = chi.URLParam(r, "id")

	attendee, err := h.svc.CreateAttendee(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, "event", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "attendee", "registered", attendee)
}

// GetAttendee handles GET /attendees/{id}
func (h *EventHandler) GetAttendee(w http.ResponseWriter, r *http.Request) {
	attendee, err := h.svc.GetAttendee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "attendee", err)
		return
	}
	writeJSON(w, http.StatusOK, attendee)
}

// UpdateAttendee handles PATCH /attendees/{id}
func (h *EventHandler) UpdateAttendee(w http.ResponseWriter, r *http.Request) {
	var patch model.AttendeePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	attendee, err := h.svc.UpdateAttendee(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeServiceError(w, r, "attendee", err)
		return
	}
	writeSuccess(w, http.StatusOK, "attendee", "updated", attendee)
}

// DeleteAttendee handles DELETE /attendees/{id}
func (h *EventHandler) DeleteAttendee(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.DeleteAttendee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "attendee", err)
		return
	}
	writeJSON(w, http.StatusOK, model.MutationResponse{
		Message: fmt.Sprintf("%s removed successfully!", displayName(removed)),
		Data:    removed,
	})
}

// CheckIn handles POST /events/{id}/attendees/{attendeeID}/check-in
// Checking in twice is not an error; the response says so instead.
func (h *EventHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.CheckInAttendee(r.Context(), chi.URLParam(r, "attendeeID"), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "attendee", err)
		return
	}
	msg := fmt.Sprintf("%s checked in successfully!", displayName(result.Attendee))
	if result.AlreadyCheckedIn {
		msg = fmt.Sprintf("%s is already checked in!", displayName(result.Attendee))
	}
	writeJSON(w, http.StatusOK, model.MutationResponse{Message: msg, Data: result})
}

// ImportAttendees handles POST /events/{id}/attendees/import
// The body is CSV with a header row. When the import stops part way the
// error envelope carries the rows already created.
func (h *EventHandler) ImportAttendees(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	result, err := h.svc.ImportAttendees(r.Context(), chi.URLParam(r, "id"), r.Body)
	if err != nil {
		if result != nil {
			h.writeServiceErrorData(w, r, "event", err, result)
			return
		}
		h.writeServiceError(w, r, "event", err)
		return
	}
	writeJSON(w, http.StatusOK, model.MutationResponse{
		Message: fmt.Sprintf("%d attendees imported successfully!", result.Created),
		Data:    result,
	})
}

// ExportAttendees handles GET /events/{id}/attendees/export
func (h *EventHandler) ExportAttendees(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// Resolve the event first so a bad id still gets a JSON error.
	event, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "event", err)
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="attendees-%s.csv"`, id))
	if err := h.svc.ExportAttendees(r.Context(), id, w); err != nil {
		// Headers are gone; all we can do is log.
		h.logger.Error("export attendees", "event_id", id, "error", err)
	}
}

// ─── Scanner ──────────────────────────────────────────────────────────────────

type scanRequest struct {
	Payload string `json:"payload"`
}

// Scan handles POST /events/{id}/scans
// The payload is the text read from an attendee's QR code.
func (h *EventHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	rec, err := h.svc.ScanCheckIn(r.Context(), chi.URLParam(r, "id"), req.Payload)
	if err != nil {
		if rec == nil {
			h.writeServiceError(w, r, "event", err)
			return
		}
		status := http.StatusUnprocessableEntity
		if errors.Is(err, repository.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, rec)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// RecentScans handles GET /events/{id}/scans
func (h *EventHandler) RecentScans(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.RecentScans(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "event", err)
		return
	}
	if records == nil {
		records = []model.ScanRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// ClearScans handles DELETE /events/{id}/scans
func (h *EventHandler) ClearScans(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearScans(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, "event", err)
		return
	}
	writeSuccess(w, http.StatusOK, "scan history", "cleared", nil)
}

func displayName(a *model.Attendee) string {
	if a == nil || a.Name == "" {
		return "Attendee"
	}
	return a.Name
}
