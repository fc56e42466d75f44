package service

import (
	"context"
	"fmt"
	"time"

	"bincollect/internal/generator"
	"bincollect/internal/repository"
	"bincollect/pkg/apperror"
	"bincollect/pkg/metrics"
	"bincollect/pkg/telemetry"
)

// ExportResult готовый к отдаче экспортный файл
type ExportResult struct {
	Content     []byte
	Filename    string
	ContentType string
}

// ExportService экспортирует отфильтрованные вывозы в файл.
// Ничего не персистится: файл собирается в памяти и отдаётся сразу.
type ExportService struct {
	collections repository.CollectionRepository
}

// NewExportService создаёт сервис экспорта
func NewExportService(collections repository.CollectionRepository) *ExportService {
	return &ExportService{collections: collections}
}

// ExportCollections выгружает вывозы в csv или excel
func (s *ExportService) ExportCollections(ctx context.Context, filter *repository.CollectionFilter, format string) (*ExportResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ExportCollections")
	defer span.End()

	if format != repository.FormatCSV && format != repository.FormatExcel {
		return nil, apperror.NewWithField(apperror.CodeValidation,
			"export format must be csv or excel", "format")
	}

	collections, err := s.collections.ListForExport(ctx, filter)
	if err != nil {
		metrics.Get().ExportsTotal.WithLabelValues(format, "error").Inc()
		telemetry.SetError(ctx, err)
		return nil, err
	}

	stamp := time.Now().UTC().Format("20060102_150405")
	result := &ExportResult{}

	switch format {
	case repository.FormatExcel:
		content, err := generator.CollectionsExcel(collections)
		if err != nil {
			metrics.Get().ExportsTotal.WithLabelValues(format, "error").Inc()
			return nil, apperror.Wrap(err, apperror.CodeGenerationFault, "failed to build export file")
		}
		result.Content = content
		result.Filename = fmt.Sprintf("collections_%s.xlsx", stamp)
		result.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		content, err := generator.CollectionsCSV(collections)
		if err != nil {
			metrics.Get().ExportsTotal.WithLabelValues(format, "error").Inc()
			return nil, apperror.Wrap(err, apperror.CodeGenerationFault, "failed to build export file")
		}
		result.Content = content
		result.Filename = fmt.Sprintf("collections_%s.csv", stamp)
		result.ContentType = "text/csv"
	}

	metrics.Get().ExportsTotal.WithLabelValues(format, "success").Inc()
	return result, nil
}
