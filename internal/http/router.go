// Package httpapi assembles the public HTTP surface: feature handlers,
// platform middleware, health, and metrics.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"govnav/pkg/platform/httputil"
	"govnav/pkg/platform/middleware/identity"
	"govnav/pkg/platform/middleware/requestid"
	"govnav/pkg/platform/middleware/requesttime"
)

// Registrar mounts a feature's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports readiness of one backend dependency.
type HealthChecker func(r *http.Request) error

// NewRouter wires all public endpoints.
func NewRouter(health map[string]HealthChecker, features ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(identity.Middleware)

	r.Get("/healthz", healthHandler(health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, feature := range features {
		feature.Register(r)
	}
	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(r); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			} else {
				body[name] = "ok"
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}
