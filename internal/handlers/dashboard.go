package handlers

import (
	"net/http"

	"bincollect/internal/service"
)

// DashboardHandler отдаёт снапшот дашборда
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler создаёт обработчик дашборда
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get обрабатывает GET /api/admin/dashboard.
// Сервис дашборда не возвращает ошибок: частичные сбои уже
// превращены в нули и пустые списки.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.dashboard.Dashboard(r.Context()))
}
