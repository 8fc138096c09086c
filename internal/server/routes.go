package server

import (
	"net/http"
	"time"

	"github.com/jackzampolin/layerscope/internal/server/endpoints"
	"github.com/jackzampolin/layerscope/internal/svcctx"
)

// routes builds the endpoint registry and wraps the mux in the middleware
// chain: services first, so the access log sees the same context handlers do.
func (s *Server) routes(swaggerSpecPath string) http.Handler {
	s.endpointRegistry = endpoints.Registry(endpoints.Config{SwaggerSpecPath: swaggerSpecPath})

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	return s.withServices(s.logRequests(mux))
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures a document API client exists.
// Returns 503 Service Unavailable until one is configured.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.backend.Load() == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"document API not configured"}`))
			return
		}
		next(w, r)
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests writes one debug line per API request. Static asset requests
// are not logged.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if !isAPIPath(r.URL.Path) {
			return
		}
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func isAPIPath(p string) bool {
	switch {
	case len(p) >= 5 && p[:5] == "/api/":
		return true
	case p == "/health", p == "/ready":
		return true
	}
	return false
}
