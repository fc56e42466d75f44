package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bincollect/internal/middleware"
	"bincollect/pkg/metrics"
	"bincollect/pkg/ratelimit"
)

// RouterDeps зависимости роутера
type RouterDeps struct {
	Reports    *ReportHandler
	Downloads  *DownloadHandler
	Dashboard  *DashboardHandler
	Exports    *ExportHandler
	Health     *HealthHandler
	Authorizer middleware.Authorizer
	Limiter    ratelimit.Limiter // nil выключает ограничение частоты
	MetricsOn  bool
}

// NewRouter собирает HTTP роутер админки
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	if deps.Limiter != nil {
		r.Use(middleware.RateLimit(deps.Limiter))
	}

	r.Get("/healthz", deps.Health.Healthz)
	if deps.MetricsOn {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(deps.Authorizer))

		r.Get("/dashboard", deps.Dashboard.Get)

		r.Route("/reports", func(r chi.Router) {
			r.Post("/", deps.Reports.Create)
			r.Get("/{id}", deps.Reports.Get)
			r.Get("/{id}/download", deps.Downloads.Download)
		})

		r.Get("/collections/export", deps.Exports.Collections)
	})

	return r
}
