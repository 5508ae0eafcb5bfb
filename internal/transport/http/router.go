// Package httptransport assembles the HTTP surface: middleware, the tax
// endpoints, and the operational routes. Business logic stays in the
// services; this layer only wires.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"goalplan/internal/liability/handler"
	"goalplan/pkg/platform/middleware/auth"
	"goalplan/pkg/platform/middleware/request"
)

// Deps carries everything the router mounts.
type Deps struct {
	Handler *handler.Handler
	Auth    auth.TokenValidator
	Logger  *slog.Logger
}

// NewRouter wires the public surface. Reference data and operational routes
// are open; everything touching a user's own figures sits behind the bearer
// token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(request.WithRequestID)
	r.Use(request.WithRequestTime)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	deps.Handler.RegisterPublic(r)

	r.Group(func(protected chi.Router) {
		protected.Use(auth.RequireAuth(deps.Auth, deps.Logger))
		deps.Handler.Register(protected)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
