package middleware

import (
	"log/slog"
	"net/http"

	"hrms/internal/transport/http/api"
)

// Recoverer turns panics into a structured 500 response; the stack never
// reaches the client.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered",
					"err", rec,
					"path", r.URL.Path,
					"method", r.Method,
					"requestId", GetRequestID(r.Context()),
				)
				api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", GetRequestID(r.Context()))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
