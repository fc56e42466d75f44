// Package generator синтезирует содержимое файлов отчётов.
// Producer - абстрактная возможность: метаданные отчёта на входе,
// байты и расширение файла на выходе.
package generator

import (
	"context"
	"strings"
	"time"
)

// Форматы отчётов, повторяют значения в хранилище
const (
	FormatPDF   = "pdf"
	FormatExcel = "excel"
	FormatCSV   = "csv"
)

// ReportData метаданные отчёта для генерации содержимого
type ReportData struct {
	ID          int64
	Name        string
	Type        string
	Format      string
	Description string
	RequestedIP string
	DateFrom    *time.Time
	DateTo      *time.Time
	CreatedAt   time.Time
}

// Producer интерфейс генератора содержимого отчёта.
// Возвращает байты файла и предлагаемое расширение без точки.
type Producer interface {
	Produce(ctx context.Context, data *ReportData) (content []byte, ext string, err error)
}

// PeriodFrom возвращает начало периода отчёта в отображаемом виде
func (d *ReportData) PeriodFrom() string {
	return formatDate(d.DateFrom)
}

// PeriodTo возвращает конец периода отчёта в отображаемом виде
func (d *ReportData) PeriodTo() string {
	return formatDate(d.DateTo)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

// normalizeDescription заменяет переводы строк пробелами, чтобы
// сохранить построчную раскладку "одна запись - одна строка"
func normalizeDescription(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}
