package repository

import (
	"time"
)

// Статусы отчёта. generating - единственное нетерминальное состояние,
// переходы только generating -> completed и generating -> failed.
const (
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Форматы отчёта
const (
	FormatPDF   = "pdf"
	FormatExcel = "excel"
	FormatCSV   = "csv"
)

// Типы отчётов - открытое перечисление
const (
	TypeCollections = "collections"
	TypePerformance = "performance"
	TypeStatus      = "status"
	TypeRevenue     = "revenue"
	TypeCustom      = "custom"
)

// NormalizeFormat приводит формат к одному из поддерживаемых.
// Нераспознанный ввод превращается в pdf.
func NormalizeFormat(format string) string {
	switch format {
	case FormatPDF, FormatExcel, FormatCSV:
		return format
	default:
		return FormatPDF
	}
}

// Metadata структурированный блоб отчёта, хранится как JSONB
type Metadata struct {
	Description string `json:"description,omitempty"`
	RequestedIP string `json:"requested_ip,omitempty"`
}

// Report модель отчёта в хранилище.
// Description дублирует Metadata.Description на верхнем уровне:
// клиенты читают report.description, не лазая в raw.
type Report struct {
	ID          int64      `json:"report_id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	DateFrom    *time.Time `json:"date_from,omitempty"`
	DateTo      *time.Time `json:"date_to,omitempty"`
	Metadata    Metadata   `json:"raw"`
	Format      string     `json:"format"`
	Status      string     `json:"status"`
	FilePath    string     `json:"file_path,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	GeneratedBy *int64     `json:"generated_by,omitempty"`
}

// CreateParams параметры вставки нового отчёта
type CreateParams struct {
	Name        string
	Type        string
	DateFrom    *time.Time
	DateTo      *time.Time
	Description string
	RequestedIP string
	Format      string
	GeneratedBy *int64
}

// Collection запись о вывозе мусора (для экспорта)
type Collection struct {
	ID          int64      `json:"id"`
	BinID       int64      `json:"bin_id"`
	Address     string     `json:"address"`
	Status      string     `json:"status"`
	WeightKg    float64    `json:"weight_kg"`
	CollectedAt *time.Time `json:"collected_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CollectionFilter фильтр экспорта вывозов
type CollectionFilter struct {
	From   *time.Time
	To     *time.Time
	Status string
}
