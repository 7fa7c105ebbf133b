package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/model"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Identity headers set by the identity-aware proxy in front of the API.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserName  = "X-User-Name"
	HeaderUserEmail = "X-User-Email"
)

type identityKey struct{}

// Identity stores the caller's identity headers in the request context.
// Missing headers yield an empty identity; operations that need an owner
// reject it themselves.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := model.Identity{
			UID:         strings.TrimSpace(r.Header.Get(HeaderUserID)),
			DisplayName: strings.TrimSpace(r.Header.Get(HeaderUserName)),
			Email:       strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

// IdentityFrom returns the identity stored by Identity.
func IdentityFrom(ctx context.Context) model.Identity {
	id, _ := ctx.Value(identityKey{}).(model.Identity)
	return id
}

// Logger returns a structured access log middleware.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", chimiddleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// CORS allows the console to call the API from another origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", strings.Join([]string{
			"Content-Type", HeaderUserID, HeaderUserName, HeaderUserEmail,
		}, ", "))
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
