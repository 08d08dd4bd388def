// campusvoice/handlers/middleware.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"campusvoice/utils"

	"github.com/go-chi/chi/v5/middleware"
)

// NewStructuredLogger writes one access log line per request.
func NewStructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				logger.Info("Request served",
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start).Round(time.Microsecond),
					"request_id", middleware.GetReqID(r.Context()),
					"ip", r.RemoteAddr,
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// RequireLAN restricts access to a handler to private or loopback IP addresses.
// Forwarding headers count only when trustProxy is set.
func RequireLAN(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !utils.IsLANRequest(r, trustProxy) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{"error": "Forbidden: admin access restricted to LAN"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
