package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bincollect/internal/repository"
)

func TestDownload_Success(t *testing.T) {
	content := []byte("id,name\n5,Monthly\n")
	env := newTestEnv(t, newFakeReportRepo(completedReport(5, "generated/reports/report_5.csv")))
	env.writeStoredFile(t, "generated/reports/report_5.csv", content)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/reports/5/download", nil)
	env.authorize(t, r)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report_5.csv")
	assert.Equal(t, "18", w.Header().Get("Content-Length"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, "0", w.Header().Get("Expires"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, content, w.Body.Bytes())
}

func TestDownload_StatusCaseInsensitive(t *testing.T) {
	report := completedReport(6, "generated/reports/report_6.csv")
	report.Status = "COMPLETED"
	env := newTestEnv(t, newFakeReportRepo(report))
	env.writeStoredFile(t, "generated/reports/report_6.csv", []byte("data\n"))

	r := httptest.NewRequest(http.MethodGet, "/api/admin/reports/6/download", nil)
	env.authorize(t, r)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDownload_Unauthenticated(t *testing.T) {
	env := newTestEnv(t, newFakeReportRepo(completedReport(5, "generated/reports/report_5.csv")))

	// Даже невалидный id не раскрывается без аутентификации
	r := httptest.NewRequest(http.MethodGet, "/api/admin/reports/0/download", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "admin privileges required")
}

func TestDownload_InvalidID(t *testing.T) {
	env := newTestEnv(t, newFakeReportRepo())

	for _, id := range []string{"0", "-3", "abc", "1.5"} {
		t.Run(id, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/admin/reports/"+id+"/download", nil)
			env.authorize(t, r)
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, r)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "positive integer")
		})
	}
}

func TestDownload_NotFound(t *testing.T) {
	env := newTestEnv(t, newFakeReportRepo())

	r := httptest.NewRequest(http.MethodGet, "/api/admin/reports/999/download", nil)
	env.authorize(t, r)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "report not found")
}

func TestDownload_NotReady(t *testing.T) {
	for _, status := range []string{repository.StatusGenerating, repository.StatusFailed} {
		t.Run(status, func(t *testing.T) {
			report := completedReport(5, "")
			report.Status = status
			env := newTestEnv(t, newFakeReportRepo(report))

			r := httptest.NewRequest(http.MethodGet, "/api/admin/reports/5/download", nil)
			env.authorize(t, r)
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, r)

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Contains(t, w.Body.String(), "not ready")
		})
	}
}

func TestDownload_EmptyFilePath(t *testing.T) {
	env := newTestEnv(t, newFakeReportRepo(completedReport(5, "")))

	r := httptest.NewRequest(http.MethodGet, "/api/admin/reports/5/download", nil)
	env.authorize(t, r)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "file not found")
}

func TestDownload_PathEscapeDenied(t *testing.T) {
	// Значение из БД - такой же недоверенный ввод, как и всё остальное
	env := newTestEnv(t, newFakeReportRepo(completedReport(5, "../../etc/passwd")))

	r := httptest.NewRequest(http.MethodGet, "/api/admin/reports/5/download", nil)
	env.authorize(t, r)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	require.Equal(t, http.StatusForbidden, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "access denied")
	assert.NotContains(t, body, "passwd", "rejected path must never be echoed")
	assert.NotContains(t, body, "..")
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func TestDownload_NotRegularFile(t *testing.T) {
	env := newTestEnv(t, newFakeReportRepo(completedReport(5, "generated/reports")))
	env.writeStoredFile(t, "generated/reports/other.csv", []byte("x"))

	r := httptest.NewRequest(http.MethodGet, "/api/admin/reports/5/download", nil)
	env.authorize(t, r)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "file not found")
}

func TestDownload_MissingFileDenied(t *testing.T) {
	// Файл не существует - канонизация пути проваливается, наружу
	// уходит тот же общий отказ
	env := newTestEnv(t, newFakeReportRepo(completedReport(5, "generated/reports/report_5.csv")))

	r := httptest.NewRequest(http.MethodGet, "/api/admin/reports/5/download", nil)
	env.authorize(t, r)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "report_5.csv")
}
