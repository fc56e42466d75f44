package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"bincollect/pkg/apperror"
	"bincollect/pkg/database"
)

// MaxRecentLimit верхняя граница выборки последних отчётов
const MaxRecentLimit = 50

// PostgresReportRepository реализация хранилища отчётов на PostgreSQL
type PostgresReportRepository struct {
	db database.Querier
}

// NewPostgresReportRepository создаёт новый репозиторий
func NewPostgresReportRepository(db database.Querier) *PostgresReportRepository {
	return &PostgresReportRepository{db: db}
}

// WithTx возвращает копию репозитория поверх транзакции.
// Весь SQL работает через database.Querier, поэтому один и тот же код
// обслуживает и пул, и транзакцию.
func (r *PostgresReportRepository) WithTx(tx pgx.Tx) ReportRepository {
	return &PostgresReportRepository{db: tx}
}

// InsertGenerating вставляет отчёт в статусе generating
func (r *PostgresReportRepository) InsertGenerating(ctx context.Context, params *CreateParams) (int64, error) {
	if strings.TrimSpace(params.Name) == "" {
		return 0, apperror.NewWithField(apperror.CodeValidation, "report name is required", "name")
	}
	if strings.TrimSpace(params.Type) == "" {
		return 0, apperror.NewWithField(apperror.CodeValidation, "report type is required", "type")
	}

	metadata, err := json.Marshal(Metadata{
		Description: params.Description,
		RequestedIP: params.RequestedIP,
	})
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeStoreFault, "failed to encode report metadata")
	}

	query := `
		INSERT INTO reports (
			name, type, date_from, date_to, metadata,
			format, status, file_path, generated_by, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NULL, $8, NOW()
		) RETURNING id`

	var id int64
	err = r.db.QueryRow(ctx, query,
		params.Name, params.Type, params.DateFrom, params.DateTo, metadata,
		NormalizeFormat(params.Format), StatusGenerating, params.GeneratedBy,
	).Scan(&id)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeStoreFault, "failed to insert report")
	}

	return id, nil
}

// MarkCompleted переводит отчёт generating -> completed.
// file_path хранится относительно корня хранилища, никогда абсолютным.
func (r *PostgresReportRepository) MarkCompleted(ctx context.Context, id int64, filePath string) error {
	query := `
		UPDATE reports
		SET status = $2, file_path = $3
		WHERE id = $1 AND status = $4`

	result, err := r.db.Exec(ctx, query, id, StatusCompleted, filePath, StatusGenerating)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeStoreFault, "failed to mark report completed")
	}
	if result.RowsAffected() == 0 {
		return apperror.New(apperror.CodeStoreFault,
			fmt.Sprintf("report %d is not in generating state", id))
	}

	return nil
}

// MarkFailed переводит отчёт generating -> failed
func (r *PostgresReportRepository) MarkFailed(ctx context.Context, id int64) error {
	query := `
		UPDATE reports
		SET status = $2, file_path = NULL
		WHERE id = $1 AND status = $3`

	result, err := r.db.Exec(ctx, query, id, StatusFailed, StatusGenerating)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeStoreFault, "failed to mark report failed")
	}
	if result.RowsAffected() == 0 {
		return apperror.New(apperror.CodeStoreFault,
			fmt.Sprintf("report %d is not in generating state", id))
	}

	return nil
}

// GetByID возвращает отчёт по id
func (r *PostgresReportRepository) GetByID(ctx context.Context, id int64) (*Report, error) {
	query := `
		SELECT id, name, type, date_from, date_to, metadata,
			format, status, file_path, generated_by, created_at
		FROM reports
		WHERE id = $1`

	return r.scanReport(r.db.QueryRow(ctx, query, id))
}

// ListRecent возвращает последние отчёты, новые первыми
func (r *PostgresReportRepository) ListRecent(ctx context.Context, limit int) ([]*Report, error) {
	if limit <= 0 || limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	query := `
		SELECT id, name, type, date_from, date_to, metadata,
			format, status, file_path, generated_by, created_at
		FROM reports
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStoreFault, "failed to list reports")
	}
	defer rows.Close()

	var reports []*Report
	for rows.Next() {
		report, err := r.scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStoreFault, "failed to read report rows")
	}

	return reports, nil
}

func (r *PostgresReportRepository) scanReport(row pgx.Row) (*Report, error) {
	var report Report
	var metadata []byte
	var filePath *string

	err := row.Scan(
		&report.ID, &report.Name, &report.Type,
		&report.DateFrom, &report.DateTo, &metadata,
		&report.Format, &report.Status, &filePath,
		&report.GeneratedBy, &report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, apperror.Wrap(err, apperror.CodeStoreFault, "failed to scan report")
	}

	// Десериализуем на границе хранилища - нетипизированные блобы не
	// уходят глубже репозитория
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &report.Metadata); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeStoreFault, "failed to decode report metadata")
		}
	}
	report.Description = report.Metadata.Description
	if filePath != nil {
		report.FilePath = *filePath
	}

	return &report, nil
}
