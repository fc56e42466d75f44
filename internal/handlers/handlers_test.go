package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"bincollect/internal/aggregate"
	"bincollect/internal/generator"
	"bincollect/internal/middleware"
	"bincollect/internal/repository"
	"bincollect/internal/service"
	"bincollect/pkg/apperror"
	"bincollect/pkg/safepath"
)

type pgxMockAdapter struct {
	mock pgxmock.PgxPoolIface
}

func (a *pgxMockAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.mock.Exec(ctx, sql, args...)
}

func (a *pgxMockAdapter) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return a.mock.Query(ctx, sql, args...)
}

func (a *pgxMockAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return a.mock.QueryRow(ctx, sql, args...)
}

func (a *pgxMockAdapter) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return a.mock.BeginTx(ctx, txOptions)
}

func (a *pgxMockAdapter) Close() {
	a.mock.Close()
}

func (a *pgxMockAdapter) Ping(ctx context.Context) error {
	return a.mock.Ping(ctx)
}

// fakeReportRepo репозиторий отчётов на карте в памяти
type fakeReportRepo struct {
	reports map[int64]*repository.Report
}

func newFakeReportRepo(reports ...*repository.Report) *fakeReportRepo {
	m := make(map[int64]*repository.Report, len(reports))
	for _, r := range reports {
		m[r.ID] = r
	}
	return &fakeReportRepo{reports: m}
}

func (f *fakeReportRepo) InsertGenerating(_ context.Context, _ *repository.CreateParams) (int64, error) {
	return 0, apperror.New(apperror.CodeStoreFault, "not implemented")
}

func (f *fakeReportRepo) MarkCompleted(_ context.Context, _ int64, _ string) error {
	return apperror.New(apperror.CodeStoreFault, "not implemented")
}

func (f *fakeReportRepo) MarkFailed(_ context.Context, _ int64) error {
	return apperror.New(apperror.CodeStoreFault, "not implemented")
}

func (f *fakeReportRepo) GetByID(_ context.Context, id int64) (*repository.Report, error) {
	report, ok := f.reports[id]
	if !ok {
		return nil, apperror.ErrReportNotFound
	}
	return report, nil
}

func (f *fakeReportRepo) ListRecent(_ context.Context, _ int) ([]*repository.Report, error) {
	return nil, nil
}

func (f *fakeReportRepo) WithTx(_ pgx.Tx) repository.ReportRepository {
	return f
}

// fakeCollectionRepo репозиторий вывозов с фиксированным содержимым
type fakeCollectionRepo struct {
	collections []*repository.Collection
}

func (f *fakeCollectionRepo) ListForExport(_ context.Context, _ *repository.CollectionFilter) ([]*repository.Collection, error) {
	return f.collections, nil
}

// testEnv собранный роутер с авторизатором и корнем хранилища
type testEnv struct {
	router  http.Handler
	jwtAuth *middleware.JWTAuthorizer
	root    string
	mock    pgxmock.PgxPoolIface
}

// newTestEnv собирает полный HTTP-стек: репозиторий отчётов задаёт
// вызывающий, остальное - заглушки и pgxmock.
func newTestEnv(t *testing.T, repo repository.ReportRepository) *testEnv {
	t.Helper()

	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	adapter := &pgxMockAdapter{mock: mock}
	root := t.TempDir()

	resolver, err := safepath.NewResolver(root)
	require.NoError(t, err)

	reportSvc := service.NewReportService(adapter, repo, generator.NewTextProducer(), nil, root)
	dashboardSvc := service.NewDashboardService(aggregate.NewAggregator(adapter, ""), repo, nil, 0, 10)
	exportSvc := service.NewExportService(&fakeCollectionRepo{})

	jwtAuth := middleware.NewJWTAuthorizer("test-secret", "bincollect-admin")

	router := NewRouter(&RouterDeps{
		Reports:    NewReportHandler(reportSvc),
		Downloads:  NewDownloadHandler(reportSvc, resolver, nil),
		Dashboard:  NewDashboardHandler(dashboardSvc),
		Exports:    NewExportHandler(exportSvc, nil),
		Health:     NewHealthHandler(nil, "test"),
		Authorizer: jwtAuth,
	})

	return &testEnv{router: router, jwtAuth: jwtAuth, root: root, mock: mock}
}

// authorize добавляет валидный админский токен
func (e *testEnv) authorize(t *testing.T, r *http.Request) {
	t.Helper()
	token, err := e.jwtAuth.IssueToken(1, "admin", time.Minute)
	require.NoError(t, err)
	r.Header.Set("Authorization", "Bearer "+token)
}

// writeStoredFile кладёт файл отчёта внутрь корня хранилища
func (e *testEnv) writeStoredFile(t *testing.T, relPath string, content []byte) {
	t.Helper()
	abs := filepath.Join(e.root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0755))
	require.NoError(t, os.WriteFile(abs, content, 0644))
}

func completedReport(id int64, filePath string) *repository.Report {
	return &repository.Report{
		ID:       id,
		Name:     "Monthly",
		Type:     repository.TypeCollections,
		Format:   repository.FormatCSV,
		Status:   repository.StatusCompleted,
		FilePath: filePath,
	}
}
