package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/live"
	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	"github.com/go-chi/chi/v5"
)

const heartbeatInterval = 25 * time.Second

// StreamEvents handles GET /events/stream?mine=
func (h *EventHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	creatorUID := ownerFilter(r)
	stream(w, r, h.logger, func(ctx context.Context, fn func(live.Snapshot[model.Event])) (func(), error) {
		return h.svc.SubscribeEvents(ctx, creatorUID, fn)
	}, func(err error) { h.writeServiceError(w, r, "event", err) })
}

// StreamAttendees handles GET /events/{id}/attendees/stream
func (h *EventHandler) StreamAttendees(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	stream(w, r, h.logger, func(ctx context.Context, fn func(live.Snapshot[model.Attendee])) (func(), error) {
		return h.svc.SubscribeAttendees(ctx, eventID, fn)
	}, func(err error) { h.writeServiceError(w, r, "event", err) })
}

type subscribeFunc[T any] func(ctx context.Context, fn func(live.Snapshot[T])) (func(), error)

// stream relays a subscription to the client as Server-Sent Events. Only
// the newest undelivered snapshot is kept, so a slow client skips
// intermediate states instead of stalling the subscription.
func stream[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, subscribe subscribeFunc[T], fail func(error)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	latest := make(chan live.Snapshot[T], 1)
	push := func(s live.Snapshot[T]) {
		for {
			select {
			case latest <- s:
				return
			default:
			}
			select {
			case <-latest:
			default:
			}
		}
	}

	ctx := r.Context()
	unsubscribe, err := subscribe(ctx, push)
	if err != nil {
		fail(err)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snap := <-latest:
			if snap.Items == nil {
				snap.Items = []T{}
			}
			data, err := json.Marshal(snap)
			if err != nil {
				logger.Error("encode snapshot", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\nid: %d\ndata: %s\n\n", snap.Seq, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
