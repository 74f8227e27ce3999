package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/templui/goalboard/internal/metrics"
)

// Metrics records request counts and latencies per route pattern. It must
// wrap the mux directly so the matched pattern is visible after serving.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrapResponseWriter(w)

		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}

		metrics.RequestCounter.WithLabelValues(
			r.Method,
			route,
			strconv.Itoa(rw.statusCode),
		).Inc()

		metrics.RequestDuration.WithLabelValues(
			r.Method,
			route,
		).Observe(time.Since(start).Seconds())
	})
}
