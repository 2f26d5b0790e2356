package logging

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// quietPaths are polled by monitoring and never logged
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// LoggingMiddleware logs each request with its chi request id. Server errors are logged
// at error level, client errors at warn, everything else at info.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quietPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			requestID := middleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = "unknown"
			}

			attrs := []any{
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
			}
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "query", redactQuery(r))
			}
			attrs = append(attrs,
				"status_code", ww.status,
				"bytes_written", ww.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			)

			level := slog.LevelInfo
			switch {
			case ww.status >= 500:
				level = slog.LevelError
			case ww.status >= 400:
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "HTTP request", attrs...)
		})
	}
}

// redactedParams carry patient names and never reach the log files
var redactedParams = []string{"q"}

func redactQuery(r *http.Request) string {
	values := r.URL.Query()
	for _, key := range redactedParams {
		if values.Has(key) {
			values.Set(key, "REDACTED")
		}
	}
	return values.Encode()
}

// statusRecorder captures the status code and byte count of a response
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Write(data []byte) (int, error) {
	n, err := w.ResponseWriter.Write(data)
	w.bytes += n
	return n, err
}
