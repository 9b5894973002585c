package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"mediadex/internal/logging"
	"mediadex/internal/metrics"
)

// responseWriter captures the status code for logging and metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Logging logs one line per request at debug level, errors at warn.
func Logging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			if wrapped.statusCode >= 500 {
				logging.Warn("%s %s -> %d (%s)", r.Method, r.URL.Path, wrapped.statusCode, duration)
			} else {
				logging.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, wrapped.statusCode, duration)
			}
		})
	}
}

// Metrics records request counts, latency and in-flight gauge. Probe and
// metrics endpoints are skipped to keep the series useful.
func Metrics() func(http.Handler) http.Handler {
	skip := []string{"/metrics", "/healthz", "/readyz"}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range skip {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			wrapped := newResponseWriter(w)
			start := time.Now()
			next.ServeHTTP(wrapped, r)

			path := normalizePath(r.URL.Path)
			status := strconv.Itoa(wrapped.statusCode)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath collapses per-item segments so the path label stays
// low-cardinality.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/api/items/") && path != "/api/items/" {
		return "/api/items/{id}"
	}
	return path
}
