package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"challenge-hub/internal/metrics"
)

// Instrument records request counts and latencies keyed by the chi route
// pattern so path parameters do not explode label cardinality.
func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(recorder, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			m.ObserveRequest(r.Method, pattern, recorder.status, time.Since(start))
		})
	}
}
