package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the full HTTP surface. webDir, when non-empty, is served
// at the root for the console's static assets.
func NewRouter(h *EventHandler, logger *slog.Logger, webDir string) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(logger))          // structured access log
	r.Use(CORS)
	r.Use(Identity)

	// Health
	r.Get("/health", HealthCheck)

	r.Get("/me", h.GetProfile)
	r.Patch("/me", h.UpdateProfile)
	r.Get("/dashboard", h.Dashboard)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/stream", h.StreamEvents)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Patch("/", h.UpdateEvent)
			r.Delete("/", h.DeleteEvent)
			r.Get("/stats", h.EventStats)
			r.Post("/reconcile", h.ReconcileEvent)

			r.Get("/attendees", h.ListAttendees)
			r.Post("/attendees", h.CreateAttendee)
			r.Get("/attendees/stream", h.StreamAttendees)
			r.Post("/attendees/import", h.ImportAttendees)
			r.Get("/attendees/export", h.ExportAttendees)
			r.Post("/attendees/{attendeeID}/check-in", h.CheckIn)

			r.Get("/scans", h.RecentScans)
			r.Post("/scans", h.Scan)
			r.Delete("/scans", h.ClearScans)
		})
	})

	r.Route("/attendees/{id}", func(r chi.Router) {
		r.Get("/", h.GetAttendee)
		r.Patch("/", h.UpdateAttendee)
		r.Delete("/", h.DeleteAttendee)
	})

	// Static console assets
	if webDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(webDir)))
	}

	return r
}
