package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bincollect/internal/repository"
)

func expectSnapshotQueries(mock pgxmock.PgxPoolIface, collections, pending, completed, reports int64) {
	mock.ExpectQuery("FROM collections").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(collections))
	mock.ExpectQuery("FROM bins").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(pending))
	mock.ExpectQuery("FROM collections").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(completed))
	mock.ExpectQuery("FROM reports").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(reports))
}

func TestDashboard_HTTP(t *testing.T) {
	env := realRepoEnv(t)

	expectSnapshotQueries(env.mock, 12, 4, 9, 3)
	env.mock.ExpectQuery("SELECT (.+) FROM reports").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(reportColumns()).AddRow(
			int64(3), "Monthly", "collections", nil, nil, []byte(`{}`),
			repository.FormatCSV, repository.StatusCompleted, nil, nil, time.Now().UTC(),
		))

	r := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	env.authorize(t, r)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"collectionsThisMonth":12`)
	assert.Contains(t, body, `"pendingCount":4`)
	assert.Contains(t, body, `"completedThisMonth":9`)
	assert.Contains(t, body, `"reportsCount":3`)
	assert.Contains(t, body, `"recentReports"`)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestDashboard_Unauthenticated(t *testing.T) {
	env := realRepoEnv(t)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
