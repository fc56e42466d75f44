package generator

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"bincollect/internal/repository"
)

// CollectionsCSV сериализует вывозы в CSV для экспорта
func CollectionsCSV(collections []*repository.Collection) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"id", "bin_id", "address", "status", "weight_kg", "collected_at", "created_at"},
	}
	for _, c := range collections {
		records = append(records, []string{
			fmt.Sprintf("%d", c.ID),
			fmt.Sprintf("%d", c.BinID),
			c.Address,
			c.Status,
			fmt.Sprintf("%.2f", c.WeightKg),
			formatDate(c.CollectedAt),
			c.CreatedAt.Format(time.RFC3339),
		})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("csv write error: %w", err)
	}
	return buf.Bytes(), nil
}

// CollectionsExcel сериализует вывозы в настоящий .xlsx
func CollectionsExcel(collections []*repository.Collection) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Collections"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})

	headers := []string{"ID", "Bin", "Address", "Status", "Weight (kg)", "Collected at", "Created at"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheetName, "A1", last, headerStyle)

	for rowIdx, c := range collections {
		values := []any{
			c.ID, c.BinID, c.Address, c.Status, c.WeightKg,
			formatDate(c.CollectedAt),
			c.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
