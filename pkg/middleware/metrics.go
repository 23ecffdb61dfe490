package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/searchlab/termindex/pkg/metrics"
)

// Metrics records per-request count, latency, and the in-flight gauge.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			method, path := r.Method, r.URL.Path
			m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(rec.code)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
		})
	}
}

// statusRecorder captures the first status code written to the response.
type statusRecorder struct {
	http.ResponseWriter
	code int
	set  bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.set {
		s.code = code
		s.set = true
	}
	s.ResponseWriter.WriteHeader(code)
}
