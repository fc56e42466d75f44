// Package service - оркестрация создания отчётов, сборка дашборда и
// экспорт вывозов.
package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"bincollect/internal/generator"
	"bincollect/internal/repository"
	"bincollect/pkg/apperror"
	"bincollect/pkg/audit"
	"bincollect/pkg/database"
	"bincollect/pkg/logger"
	"bincollect/pkg/metrics"
	"bincollect/pkg/telemetry"
)

// reportsDir фиксированный каталог артефактов внутри корня хранилища
const reportsDir = "generated/reports"

// CreateReportParams параметры запроса на создание отчёта
type CreateReportParams struct {
	Name        string
	Type        string
	DateFrom    *time.Time
	DateTo      *time.Time
	Description string
	Format      string
	RequestedIP string
	AdminID     *int64
}

// ReportService оркестратор создания отчётов.
// Машина состояний: Validating -> Inserted(generating) -> {Completed, Failed}.
type ReportService struct {
	db          database.DB
	repo        repository.ReportRepository
	producer    generator.Producer
	auditor     audit.Logger
	storageRoot string
}

// NewReportService создаёт сервис отчётов
func NewReportService(
	db database.DB,
	repo repository.ReportRepository,
	producer generator.Producer,
	auditor audit.Logger,
	storageRoot string,
) *ReportService {
	if auditor == nil {
		auditor = audit.NewNopLogger()
	}
	return &ReportService{
		db:          db,
		repo:        repo,
		producer:    producer,
		auditor:     auditor,
		storageRoot: storageRoot,
	}
}

// GetByID возвращает отчёт по id
func (s *ReportService) GetByID(ctx context.Context, id int64) (*repository.Report, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateReport создаёт запись отчёта и её файл как одно логически
// атомарное целое.
//
// Политика терминальных состояний: сбой генерации или записи файла
// фиксируется как committed-строка failed (попытка остаётся наблюдаемой
// и аудируемой), сбой хранилища откатывает транзакцию целиком - никакой
// частичной строки. Commit никогда не оставляет completed без читаемого
// файла.
func (s *ReportService) CreateReport(ctx context.Context, params *CreateReportParams) (*repository.Report, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.CreateReport")
	defer span.End()

	format := repository.NormalizeFormat(params.Format)
	telemetry.SetAttributes(ctx,
		telemetry.AttrReportType(params.Type),
		telemetry.AttrReportFormat(format),
	)

	// Валидация до любого обращения к хранилищу
	if strings.TrimSpace(params.Name) == "" {
		return nil, apperror.NewWithField(apperror.CodeValidation, "report name is required", "name")
	}
	if strings.TrimSpace(params.Type) == "" {
		return nil, apperror.NewWithField(apperror.CodeValidation, "report type is required", "type")
	}

	start := time.Now()

	report, err := database.WithTransactionResult(ctx, s.db, func(tx pgx.Tx) (*repository.Report, error) {
		return s.createInTx(ctx, tx, params, format)
	})
	if err != nil {
		metrics.Get().ReportsCreatedTotal.WithLabelValues(format, "error").Inc()
		s.auditCreate(ctx, params, 0, audit.OutcomeFailure, err)

		if apperror.Is(err, apperror.CodeValidation) {
			return nil, err
		}

		// Детали падения остаются в логах, клиент видит общую формулировку
		logger.Log.Error("Report creation failed",
			"name", params.Name,
			"type", params.Type,
			"format", format,
			"error", err,
		)
		telemetry.SetError(ctx, err)
		return nil, apperror.Wrap(err, apperror.CodeStoreFault, "failed to create report")
	}

	metrics.Get().ReportGenerationDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	metrics.Get().ReportsCreatedTotal.WithLabelValues(format, report.Status).Inc()

	outcome := audit.OutcomeSuccess
	if report.Status != repository.StatusCompleted {
		outcome = audit.OutcomeFailure
	}
	s.auditCreate(ctx, params, report.ID, outcome, nil)

	logger.Log.Info("Report created",
		"report_id", report.ID,
		"status", report.Status,
		"format", report.Format,
		"file_path", report.FilePath,
	)

	return report, nil
}

// createInTx выполняет шаги 2-6 машины состояний внутри транзакции
func (s *ReportService) createInTx(ctx context.Context, tx pgx.Tx, params *CreateReportParams, format string) (*repository.Report, error) {
	txRepo := s.repo.WithTx(tx)

	id, err := txRepo.InsertGenerating(ctx, &repository.CreateParams{
		Name:        params.Name,
		Type:        params.Type,
		DateFrom:    params.DateFrom,
		DateTo:      params.DateTo,
		Description: params.Description,
		RequestedIP: params.RequestedIP,
		Format:      format,
		GeneratedBy: params.AdminID,
	})
	if err != nil {
		return nil, err
	}

	content, ext, err := s.producer.Produce(ctx, &generator.ReportData{
		ID:          id,
		Name:        params.Name,
		Type:        params.Type,
		Format:      format,
		Description: params.Description,
		RequestedIP: params.RequestedIP,
		DateFrom:    params.DateFrom,
		DateTo:      params.DateTo,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		// Сбой генерации - терминальный failed, не ошибка вызова
		logger.Log.Warn("Report content generation failed",
			"report_id", id,
			"format", format,
			"error", err,
		)
		return s.finishFailed(ctx, txRepo, id)
	}

	// Детерминированное имя: report_<id>.<ext>, id уникален по построению
	relPath := path.Join(reportsDir, fmt.Sprintf("report_%d.%s", id, ext))
	absPath := filepath.Join(s.storageRoot, filepath.FromSlash(relPath))

	if err := s.writeFile(absPath, content); err != nil {
		// Сбой записи файла тоже фиксируется как failed и коммитится
		logger.Log.Warn("Report file write failed",
			"report_id", id,
			"error", err,
		)
		return s.finishFailed(ctx, txRepo, id)
	}

	if err := txRepo.MarkCompleted(ctx, id, relPath); err != nil {
		// Строка не станет completed - убираем осиротевший файл до отката
		if rmErr := os.Remove(absPath); rmErr != nil {
			logger.Log.Warn("Failed to remove stray report file",
				"path", absPath,
				"error", rmErr,
			)
		}
		return nil, err
	}

	return txRepo.GetByID(ctx, id)
}

// finishFailed помечает отчёт failed внутри той же транзакции.
// Возврат без ошибки - транзакция коммитится и попытка остаётся видимой.
func (s *ReportService) finishFailed(ctx context.Context, txRepo repository.ReportRepository, id int64) (*repository.Report, error) {
	if err := txRepo.MarkFailed(ctx, id); err != nil {
		return nil, err
	}
	return txRepo.GetByID(ctx, id)
}

func (s *ReportService) writeFile(absPath string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(absPath, content, 0644)
}

func (s *ReportService) auditCreate(ctx context.Context, params *CreateReportParams, id int64, outcome audit.Outcome, cause error) {
	entry := audit.NewEntry(audit.ActionCreate, outcome).
		WithClientIP(params.RequestedIP).
		WithMetadata("report_type", params.Type)
	if id > 0 {
		entry = entry.WithResource("report", fmt.Sprintf("%d", id))
	}
	if params.AdminID != nil {
		entry = entry.WithAdmin(*params.AdminID)
	}
	if cause != nil {
		entry = entry.WithError(string(apperror.Code(cause)), cause.Error())
	}

	if err := s.auditor.Log(ctx, entry); err != nil {
		logger.Log.Warn("Failed to write audit entry", "error", err)
	}
}
