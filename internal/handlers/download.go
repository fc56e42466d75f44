package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"bincollect/internal/middleware"
	"bincollect/internal/repository"
	"bincollect/internal/service"
	"bincollect/pkg/apperror"
	"bincollect/pkg/audit"
	"bincollect/pkg/logger"
	"bincollect/pkg/metrics"
	"bincollect/pkg/safepath"
)

// downloadChunkSize размер блока потоковой отдачи файла
const downloadChunkSize = 8192

// sniffLen сколько байт отдаётся DetectContentType
const sniffLen = 512

// DownloadHandler отдаёт файлы готовых отчётов.
// Проверки выполняются строго по порядку: личность, id, существование
// записи, статус, наличие пути, безопасность пути, читаемость файла.
// Порядок гарантирует, что неаутентифицированный вызов не узнаёт даже
// о существовании отчёта.
type DownloadHandler struct {
	reports  *service.ReportService
	resolver *safepath.Resolver
	auditor  audit.Logger
}

// NewDownloadHandler создаёт обработчик скачивания
func NewDownloadHandler(reports *service.ReportService, resolver *safepath.Resolver, auditor audit.Logger) *DownloadHandler {
	if auditor == nil {
		auditor = audit.NewNopLogger()
	}
	return &DownloadHandler{reports: reports, resolver: resolver, auditor: auditor}
}

// Download обрабатывает GET /api/admin/reports/{id}/download
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok || !identity.Admin {
		metrics.Get().DownloadsTotal.WithLabelValues("denied").Inc()
		respondError(w, apperror.ErrPermissionDenied)
		return
	}

	id, err := parseReportID(chi.URLParam(r, "id"))
	if err != nil {
		metrics.Get().DownloadsTotal.WithLabelValues("invalid_id").Inc()
		respondError(w, err)
		return
	}

	report, err := h.reports.GetByID(r.Context(), id)
	if err != nil {
		metrics.Get().DownloadsTotal.WithLabelValues("not_found").Inc()
		respondError(w, err)
		return
	}

	if !strings.EqualFold(report.Status, repository.StatusCompleted) {
		metrics.Get().DownloadsTotal.WithLabelValues("not_ready").Inc()
		h.auditDownload(r, identity, id, audit.OutcomeDenied, apperror.ErrNotReady)
		respondError(w, apperror.ErrNotReady)
		return
	}

	if report.FilePath == "" {
		metrics.Get().DownloadsTotal.WithLabelValues("no_file").Inc()
		respondError(w, apperror.ErrFileNotFound)
		return
	}

	absPath, err := h.resolver.Resolve(report.FilePath)
	if err != nil {
		// Детали отказа только в логи и аудит, клиенту - общий отказ
		metrics.Get().DownloadsTotal.WithLabelValues("path_rejected").Inc()
		metrics.Get().PathRejectionsTotal.Inc()
		logger.Log.Warn("Report file path rejected",
			"report_id", id,
			"stored_path", report.FilePath,
			"error", err,
		)
		h.auditDownload(r, identity, id, audit.OutcomeDenied, err)
		respondError(w, apperror.New(apperror.CodePermissionDenied, "access denied"))
		return
	}

	info, err := os.Stat(absPath)
	if err != nil || !info.Mode().IsRegular() {
		metrics.Get().DownloadsTotal.WithLabelValues("file_missing").Inc()
		logger.Log.Warn("Report file is missing or not regular",
			"report_id", id,
			"path", absPath,
			"error", err,
		)
		respondError(w, apperror.ErrFileNotFound)
		return
	}

	file, err := os.Open(absPath)
	if err != nil {
		metrics.Get().DownloadsTotal.WithLabelValues("file_missing").Inc()
		respondError(w, apperror.ErrFileNotFound)
		return
	}
	defer file.Close()

	h.auditDownload(r, identity, id, audit.OutcomeSuccess, nil)
	metrics.Get().DownloadsTotal.WithLabelValues("success").Inc()

	h.stream(w, file, info.Size(), filepath.Base(absPath))
}

// stream отдаёт файл с заголовками скачивания и без кэширования
func (h *DownloadHandler) stream(w http.ResponseWriter, file *os.File, size int64, name string) {
	contentType := sniffContentType(file)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	buf := make([]byte, downloadChunkSize)
	if _, err := io.CopyBuffer(w, file, buf); err != nil {
		// Заголовки уже ушли, остаётся только залогировать
		logger.Log.Warn("Report download interrupted", "file", name, "error", err)
	}
}

// sniffContentType определяет тип содержимого по первым байтам файла
func sniffContentType(file *os.File) string {
	buf := make([]byte, sniffLen)
	n, err := file.Read(buf)
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "application/octet-stream"
	}
	if err != nil && n == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(buf[:n])
}

func (h *DownloadHandler) auditDownload(r *http.Request, identity *middleware.Identity, id int64, outcome audit.Outcome, cause error) {
	entry := audit.NewEntry(audit.ActionDownload, outcome).
		WithClientIP(middleware.ClientIP(r)).
		WithResource("report", fmt.Sprintf("%d", id))
	if identity != nil {
		entry = entry.WithAdmin(identity.AdminID)
	}
	if cause != nil {
		entry = entry.WithError(string(apperror.Code(cause)), cause.Error())
	}

	if err := h.auditor.Log(r.Context(), entry); err != nil {
		logger.Log.Warn("Failed to write audit entry", "error", err)
	}
}
