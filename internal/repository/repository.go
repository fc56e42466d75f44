// Package repository - доступ к записям отчётов и вывозов в PostgreSQL.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// ReportRepository интерфейс хранилища отчётов
type ReportRepository interface {
	// InsertGenerating вставляет отчёт в статусе generating и возвращает id.
	// Валидирует name/type до любого обращения к хранилищу.
	InsertGenerating(ctx context.Context, params *CreateParams) (int64, error)

	// MarkCompleted переводит отчёт в completed и записывает путь к файлу
	MarkCompleted(ctx context.Context, id int64, filePath string) error

	// MarkFailed переводит отчёт в failed
	MarkFailed(ctx context.Context, id int64) error

	// GetByID возвращает отчёт по id
	GetByID(ctx context.Context, id int64) (*Report, error)

	// ListRecent возвращает последние отчёты, новые первыми
	ListRecent(ctx context.Context, limit int) ([]*Report, error)

	// WithTx возвращает копию репозитория поверх транзакции
	WithTx(tx pgx.Tx) ReportRepository
}

// CollectionRepository интерфейс чтения вывозов для экспорта
type CollectionRepository interface {
	// ListForExport возвращает отфильтрованные вывозы, новые первыми
	ListForExport(ctx context.Context, filter *CollectionFilter) ([]*Collection, error)
}
