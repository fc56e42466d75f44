package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bincollect/internal/aggregate"
	"bincollect/internal/generator"
	"bincollect/internal/middleware"
	"bincollect/internal/repository"
	"bincollect/internal/service"
	"bincollect/pkg/safepath"
)

// realRepoEnv окружение с настоящим postgres-репозиторием поверх pgxmock
func realRepoEnv(t *testing.T) *testEnv {
	t.Helper()

	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	adapter := &pgxMockAdapter{mock: mock}
	root := t.TempDir()

	resolver, err := safepath.NewResolver(root)
	require.NoError(t, err)

	repo := repository.NewPostgresReportRepository(adapter)
	reportSvc := service.NewReportService(adapter, repo, generator.NewTextProducer(), nil, root)
	dashboardSvc := service.NewDashboardService(aggregate.NewAggregator(adapter, ""), repo, nil, 0, 10)

	jwtAuth := middleware.NewJWTAuthorizer("test-secret", "bincollect-admin")

	router := NewRouter(&RouterDeps{
		Reports:    NewReportHandler(reportSvc),
		Downloads:  NewDownloadHandler(reportSvc, resolver, nil),
		Dashboard:  NewDashboardHandler(dashboardSvc),
		Exports:    NewExportHandler(service.NewExportService(&fakeCollectionRepo{}), nil),
		Health:     NewHealthHandler(nil, "test"),
		Authorizer: jwtAuth,
	})

	return &testEnv{router: router, jwtAuth: jwtAuth, root: root, mock: mock}
}

func postForm(t *testing.T, env *testEnv, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, "/api/admin/reports/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	env.authorize(t, r)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) *response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return &resp
}

func TestCreateReport_HTTPSuccess(t *testing.T) {
	env := realRepoEnv(t)

	filePath := "generated/reports/report_42.csv"
	now := time.Now().UTC()

	env.mock.ExpectBegin()
	env.mock.ExpectQuery("INSERT INTO reports").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))
	env.mock.ExpectExec("UPDATE reports").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.mock.ExpectQuery("SELECT (.+) FROM reports").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(reportColumns()).AddRow(
			int64(42), "Monthly", "collections", nil, nil, []byte(`{}`),
			repository.FormatCSV, repository.StatusCompleted, &filePath, nil, now,
		))
	env.mock.ExpectCommit()

	w := postForm(t, env, url.Values{
		"name":      {"Monthly"},
		"type":      {"collections"},
		"format":    {"csv"},
		"from_date": {"2026-08-01"},
		"to_date":   {"2026-08-31"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Report)
	assert.Equal(t, int64(42), resp.Report.ID)

	// Файл записан в детерминированное место
	_, statErr := os.Stat(filepath.Join(env.root, "generated", "reports", "report_42.csv"))
	assert.NoError(t, statErr)

	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateReport_ValidationIs200(t *testing.T) {
	env := realRepoEnv(t)

	cases := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"empty name", url.Values{"name": {"  "}, "type": {"collections"}}, "name"},
		{"empty type", url.Values{"name": {"Monthly"}, "type": {""}}, "type"},
		{"bad from_date", url.Values{"name": {"Monthly"}, "type": {"collections"}, "from_date": {"31-08-2026"}}, "from_date"},
		{"bad to_date", url.Values{"name": {"Monthly"}, "type": {"collections"}, "to_date": {"not-a-date"}}, "to_date"},
		{"inverted range", url.Values{
			"name": {"Monthly"}, "type": {"collections"},
			"from_date": {"2026-08-31"}, "to_date": {"2026-08-01"},
		}, "to_date"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postForm(t, env, tc.form)

			// Ошибка формы - не ошибка транспорта
			require.Equal(t, http.StatusOK, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.field, resp.Field)
			assert.NotEmpty(t, resp.Message)
			assert.Equal(t, resp.Message, resp.Error)
		})
	}

	// Хранилище не тронуто ни одним из отклонённых запросов
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateReport_GenerationFailureIs200(t *testing.T) {
	env := realRepoEnv(t)

	now := time.Now().UTC()

	// Сбой записи файла фиксируется как failed-строка
	env.mock.ExpectBegin()
	env.mock.ExpectQuery("INSERT INTO reports").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	env.mock.ExpectExec("UPDATE reports").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	env.mock.ExpectQuery("SELECT (.+) FROM reports").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(reportColumns()).AddRow(
			int64(7), "Monthly", "collections", nil, nil, []byte(`{}`),
			repository.FormatCSV, repository.StatusFailed, nil, nil, now,
		))
	env.mock.ExpectCommit()

	// Блокируем запись файла: обычный файл на месте каталога
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "generated"), []byte("x"), 0644))

	w := postForm(t, env, url.Values{
		"name":   {"Monthly"},
		"type":   {"collections"},
		"format": {"csv"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "generation failed")
	require.NotNil(t, resp.Report)
	assert.Equal(t, repository.StatusFailed, resp.Report.Status)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateReport_StoreFaultIs500(t *testing.T) {
	env := realRepoEnv(t)

	env.mock.ExpectBegin()
	env.mock.ExpectQuery("INSERT INTO reports").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("deadlock detected"))
	env.mock.ExpectRollback()

	w := postForm(t, env, url.Values{
		"name":   {"Monthly"},
		"type":   {"collections"},
		"format": {"csv"},
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "failed to create report", resp.Message)
	assert.Equal(t, "failed to create report", resp.Error)
	assert.NotContains(t, w.Body.String(), "deadlock")
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateReport_Unauthenticated(t *testing.T) {
	env := realRepoEnv(t)

	r := httptest.NewRequest(http.MethodPost, "/api/admin/reports/", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestGetReport_HTTP(t *testing.T) {
	env := newTestEnv(t, newFakeReportRepo(completedReport(5, "generated/reports/report_5.csv")))

	r := httptest.NewRequest(http.MethodGet, "/api/admin/reports/5", nil)
	env.authorize(t, r)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"report_id":5`)
}

// Отчёт лежит в конверте под ключом report, description - поле самого
// отчёта, а не только метаданных.
func TestGetReport_ReportEnvelope(t *testing.T) {
	env := realRepoEnv(t)

	filePath := "generated/reports/report_5.csv"
	now := time.Now().UTC()

	env.mock.ExpectQuery("SELECT (.+) FROM reports").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(reportColumns()).AddRow(
			int64(5), "Monthly", "collections", nil, nil,
			[]byte(`{"description":"Monthly summary","requested_ip":"10.0.0.1"}`),
			repository.FormatCSV, repository.StatusCompleted, &filePath, nil, now,
		))

	r := httptest.NewRequest(http.MethodGet, "/api/admin/reports/5", nil)
	env.authorize(t, r)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "data")

	report, ok := body["report"].(map[string]any)
	require.True(t, ok, "report object must sit under the report key")
	assert.Equal(t, float64(5), report["report_id"])
	assert.Equal(t, "Monthly summary", report["description"])

	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func reportColumns() []string {
	return []string{
		"id", "name", "type", "date_from", "date_to", "metadata",
		"format", "status", "file_path", "generated_by", "created_at",
	}
}
