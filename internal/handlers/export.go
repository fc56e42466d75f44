package handlers

import (
	"fmt"
	"net/http"
	"time"

	"bincollect/internal/middleware"
	"bincollect/internal/repository"
	"bincollect/internal/service"
	"bincollect/pkg/audit"
	"bincollect/pkg/logger"
)

// ExportHandler выгружает вывозы в файл
type ExportHandler struct {
	exports *service.ExportService
	auditor audit.Logger
}

// NewExportHandler создаёт обработчик экспорта
func NewExportHandler(exports *service.ExportService, auditor audit.Logger) *ExportHandler {
	if auditor == nil {
		auditor = audit.NewNopLogger()
	}
	return &ExportHandler{exports: exports, auditor: auditor}
}

// Collections обрабатывает GET /api/admin/collections/export.
// Параметры запроса: from, to (YYYY-MM-DD), status, format (csv|excel).
func (h *ExportHandler) Collections(w http.ResponseWriter, r *http.Request) {
	filter := &repository.CollectionFilter{
		Status: r.URL.Query().Get("status"),
	}

	from, err := parseFormDate(r.URL.Query().Get("from"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, &response{
			Success: false,
			Message: "from must be in YYYY-MM-DD format",
			Error:   "from must be in YYYY-MM-DD format",
			Field:   "from",
		})
		return
	}
	filter.From = from

	to, err := parseFormDate(r.URL.Query().Get("to"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, &response{
			Success: false,
			Message: "to must be in YYYY-MM-DD format",
			Error:   "to must be in YYYY-MM-DD format",
			Field:   "to",
		})
		return
	}
	filter.To = to

	format := r.URL.Query().Get("format")
	if format == "" {
		format = repository.FormatCSV
	}

	result, err := h.exports.ExportCollections(r.Context(), filter, format)
	if err != nil {
		respondError(w, err)
		return
	}

	h.auditExport(r, format)

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(result.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Content); err != nil {
		logger.Log.Warn("Export download interrupted", "file", result.Filename, "error", err)
	}
}

func (h *ExportHandler) auditExport(r *http.Request, format string) {
	entry := audit.NewEntry(audit.ActionExport, audit.OutcomeSuccess).
		WithClientIP(middleware.ClientIP(r)).
		WithMetadata("format", format).
		WithMetadata("exported_at", time.Now().UTC().Format(time.RFC3339))
	if identity, ok := middleware.IdentityFromContext(r.Context()); ok {
		entry = entry.WithAdmin(identity.AdminID)
	}

	if err := h.auditor.Log(r.Context(), entry); err != nil {
		logger.Log.Warn("Failed to write audit entry", "error", err)
	}
}
