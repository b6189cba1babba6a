package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chainpass/internal/platform/middleware"
)

// Deps collects everything the router mounts. Health is optional; when set
// it is consulted by /healthz so load balancers see backend outages.
type Deps struct {
	Logger   *slog.Logger
	Registry *RegistryHandler
	Ceremony *CeremonyHandler
	Health   func(ctx context.Context) error
}

// NewRouter builds the full route tree with the standard middleware chain.
// Request ID comes first so every later middleware and handler can log it.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Device)
	r.Use(middleware.Logger(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(r.Context()); err != nil {
				deps.Logger.ErrorContext(r.Context(), "health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unhealthy"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	deps.Registry.Register(r)
	deps.Ceremony.Register(r)
	return r
}
