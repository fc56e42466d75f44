package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"bincollect/internal/middleware"
	"bincollect/internal/repository"
	"bincollect/internal/service"
	"bincollect/pkg/apperror"
	"bincollect/pkg/logger"
)

// ReportHandler обработчики создания и просмотра отчётов
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler создаёт обработчик отчётов
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Create обрабатывает POST /api/admin/reports.
// Ошибки валидации формы отдаются со статусом 200 и success=false:
// фронтенд админки показывает их инлайново, не как ошибку транспорта.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondJSON(w, http.StatusOK, &response{
			Success: false,
			Message: "invalid form data",
			Error:   "invalid form data",
		})
		return
	}

	params := &service.CreateReportParams{
		Name:        r.FormValue("name"),
		Type:        r.FormValue("type"),
		Description: r.FormValue("description"),
		Format:      r.FormValue("format"),
		RequestedIP: middleware.ClientIP(r),
	}

	if identity, ok := middleware.IdentityFromContext(r.Context()); ok {
		params.AdminID = &identity.AdminID
	}

	dateFrom, err := parseFormDate(r.FormValue("from_date"))
	if err != nil {
		respondJSON(w, http.StatusOK, &response{
			Success: false,
			Message: "from_date must be in YYYY-MM-DD format",
			Error:   "from_date must be in YYYY-MM-DD format",
			Field:   "from_date",
		})
		return
	}
	params.DateFrom = dateFrom

	dateTo, err := parseFormDate(r.FormValue("to_date"))
	if err != nil {
		respondJSON(w, http.StatusOK, &response{
			Success: false,
			Message: "to_date must be in YYYY-MM-DD format",
			Error:   "to_date must be in YYYY-MM-DD format",
			Field:   "to_date",
		})
		return
	}
	params.DateTo = dateTo

	if params.DateFrom != nil && params.DateTo != nil && params.DateTo.Before(*params.DateFrom) {
		respondJSON(w, http.StatusOK, &response{
			Success: false,
			Message: "to_date must not precede from_date",
			Error:   "to_date must not precede from_date",
			Field:   "to_date",
		})
		return
	}

	report, err := h.reports.CreateReport(r.Context(), params)
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) && appErr.Code == apperror.CodeValidation {
			respondJSON(w, http.StatusOK, &response{
				Success: false,
				Message: appErr.Message,
				Error:   appErr.Message,
				Field:   appErr.Field,
			})
			return
		}
		respondError(w, err)
		return
	}

	if report.Status != repository.StatusCompleted {
		respondJSON(w, http.StatusOK, &response{
			Success: false,
			Report:  report,
			Message: "report generation failed",
			Error:   "report generation failed",
		})
		return
	}

	respondReport(w, http.StatusOK, report)
}

// Get обрабатывает GET /api/admin/reports/{id}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseReportID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	report, err := h.reports.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondReport(w, http.StatusOK, report)
}

// parseReportID разбирает идентификатор отчёта из пути.
// Принимаются только положительные целые.
func parseReportID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewWithField(apperror.CodeValidation, "report id must be a positive integer", "id")
	}
	return id, nil
}

// parseFormDate разбирает дату формы. Пустая строка - отсутствие даты.
func parseFormDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		logger.Log.Debug("Rejected form date", "value", raw, "error", err)
		return nil, err
	}
	return &t, nil
}
