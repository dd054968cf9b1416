package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// statusRecorder captures the response status and body so failed requests
// can be logged with the error the client actually received.
type statusRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status >= http.StatusBadRequest {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

// RequestLogger tags every request with an id and logs it at a level
// matching the response class.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		attrs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(start).String(),
			"remote_addr", r.RemoteAddr,
		}

		switch {
		case recorder.status >= http.StatusInternalServerError:
			attrs = append(attrs, "error", extractErrorMessage(recorder.body.Bytes()))
			slog.Error("request failed", attrs...)
		case recorder.status >= http.StatusBadRequest:
			attrs = append(attrs, "error", extractErrorMessage(recorder.body.Bytes()))
			slog.Warn("request rejected", attrs...)
		default:
			slog.Info("request completed", attrs...)
		}
	})
}

func extractErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}
