package server

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"stravadash/app/metrics"
	"strconv"

	"github.com/gorilla/mux"
)

func PanicRecovery(metricsManager *metrics.Manager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic serving request", "path", req.URL.Path, "panic", r, "stack", string(debug.Stack()))
					if metricsManager != nil {
						metricsManager.CounterRequestPanics.Inc()
					}
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, req)
		})
	}
}

func LogRequest() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slog.Debug("request", "method", r.Method, "path", r.URL.Path, "ua", r.Header.Get("User-Agent"))
			next.ServeHTTP(w, r)
		})
	}
}

// RequestMetrics counts requests by route name and status code.
func RequestMetrics(metricsManager *metrics.Manager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			resp := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(resp, req)

			if metricsManager == nil {
				return
			}
			route := "unknown"
			if current := mux.CurrentRoute(req); current != nil && current.GetName() != "" {
				route = current.GetName()
			}
			metricsManager.CounterRequests.WithLabelValues(route, strconv.Itoa(resp.statusCode)).Inc()
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.statusCode = statusCode
}
