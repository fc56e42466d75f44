package handlers

import (
	"context"
	"net/http"
	"time"

	"bincollect/pkg/database"
)

// HealthHandler проверка живости сервиса
type HealthHandler struct {
	db      database.DB
	version string
}

// NewHealthHandler создаёт обработчик health check
func NewHealthHandler(db database.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Healthz обрабатывает GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]any{
		"status":  "ok",
		"version": h.version,
	}

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			respondJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}

	respondJSON(w, http.StatusOK, status)
}
