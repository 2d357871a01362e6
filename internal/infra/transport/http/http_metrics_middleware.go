package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fanhub-app/fanhub/internal/infra/metrics"
)

// MetricsMiddleware creates middleware that records request durations. Labels
// are method and status class only, to keep cardinality bounded.
func MetricsMiddleware(next http.Handler, mtr *metrics.Metrics) http.Handler {
	//nolint:varnamelen
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := &LoggingMiddlewareResponseWriter{
			ResponseWriter: w,
			StatusCode:     http.StatusOK,
			BytesSent:      0,
		}

		start := time.Now()

		next.ServeHTTP(mw, r)

		status := strconv.Itoa(mw.StatusCode/100*100) + "s"
		mtr.ObserveRequest(r.Method, status, time.Since(start).Seconds())
	})
}
