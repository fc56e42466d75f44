package generator

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"
)

// TextProducer эталонная реализация Producer: человекочитаемая
// текстовая таблица (строка заголовка + одна строка записи) вместо
// настоящих PDF/XLSX контейнеров. Заглушка по контракту: реальные
// кодировщики документов подключаются за тем же интерфейсом.
type TextProducer struct{}

// NewTextProducer создаёт эталонный producer
func NewTextProducer() *TextProducer {
	return &TextProducer{}
}

// csvWriter обёртка для отслеживания ошибок
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record []string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() {
	if cw.err != nil {
		return
	}
	cw.w.Flush()
	cw.err = cw.w.Error()
}

// Produce генерирует таблицу с заголовком и одной строкой данных
func (p *TextProducer) Produce(_ context.Context, data *ReportData) ([]byte, string, error) {
	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	cw.Write([]string{
		"id", "name", "type", "requested_by", "date_from", "date_to", "created_at", "description",
	})
	cw.Write([]string{
		fmt.Sprintf("%d", data.ID),
		data.Name,
		data.Type,
		data.RequestedIP,
		data.PeriodFrom(),
		data.PeriodTo(),
		data.CreatedAt.Format(time.RFC3339),
		normalizeDescription(data.Description),
	})

	cw.Flush()
	if cw.err != nil {
		return nil, "", fmt.Errorf("text producer write error: %w", cw.err)
	}

	return buf.Bytes(), TextExtension(data.Format), nil
}

// TextExtension выбирает расширение файла для эталонного producer.
// excel здесь - CSV с расширением .csv, не настоящий контейнер.
func TextExtension(format string) string {
	switch format {
	case FormatExcel, FormatCSV:
		return "csv"
	default:
		return "pdf"
	}
}
