package generator

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/xuri/excelize/v2"
)

// DocumentProducer настоящие кодировщики за тем же контрактом:
// excelize для excel (.xlsx), maroto для pdf (.pdf), csv.Writer для csv.
type DocumentProducer struct{}

// NewDocumentProducer создаёт producer настоящих документов
func NewDocumentProducer() *DocumentProducer {
	return &DocumentProducer{}
}

// Produce генерирует документ в запрошенном формате
func (p *DocumentProducer) Produce(ctx context.Context, data *ReportData) ([]byte, string, error) {
	switch data.Format {
	case FormatExcel:
		content, err := p.produceExcel(data)
		return content, "xlsx", err
	case FormatCSV:
		content, err := p.produceCSV(data)
		return content, "csv", err
	default:
		content, err := p.producePDF(data)
		return content, "pdf", err
	}
}

func (p *DocumentProducer) produceCSV(data *ReportData) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"id", "name", "type", "requested_by", "date_from", "date_to", "created_at", "description"},
		{
			fmt.Sprintf("%d", data.ID),
			data.Name,
			data.Type,
			data.RequestedIP,
			data.PeriodFrom(),
			data.PeriodTo(),
			data.CreatedAt.Format(time.RFC3339),
			normalizeDescription(data.Description),
		},
	}
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("csv write error: %w", err)
	}

	return buf.Bytes(), nil
}

func (p *DocumentProducer) produceExcel(data *ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Report"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	f.SetCellValue(sheetName, "A1", data.Name)
	f.MergeCell(sheetName, "A1", "B1")

	rows := [][2]any{
		{"ID", data.ID},
		{"Type", data.Type},
		{"Requested by", data.RequestedIP},
		{"Period from", data.PeriodFrom()},
		{"Period to", data.PeriodTo()},
		{"Created at", data.CreatedAt.Format("2006-01-02 15:04:05")},
		{"Description", normalizeDescription(data.Description)},
	}

	f.SetCellValue(sheetName, "A3", "Field")
	f.SetCellValue(sheetName, "B3", "Value")
	f.SetCellStyle(sheetName, "A3", "B3", headerStyle)

	for i, r := range rows {
		row := 4 + i
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r[0])
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r[1])
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

var (
	pdfTitleStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
	}

	pdfLabelStyle = props.Text{
		Size:  10,
		Style: fontstyle.Bold,
	}

	pdfValueStyle = props.Text{
		Size: 10,
	}
)

func (p *DocumentProducer) producePDF(data *ReportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	m.AddRow(15, text.NewCol(12, data.Name, pdfTitleStyle))
	m.AddRow(5, line.NewCol(12))

	p.addPDFField(m, "ID", fmt.Sprintf("%d", data.ID))
	p.addPDFField(m, "Type", data.Type)
	p.addPDFField(m, "Requested by", data.RequestedIP)
	p.addPDFField(m, "Period", fmt.Sprintf("%s - %s", data.PeriodFrom(), data.PeriodTo()))
	p.addPDFField(m, "Created at", data.CreatedAt.Format("2006-01-02 15:04:05"))

	if desc := normalizeDescription(data.Description); desc != "" {
		m.AddRow(8)
		m.AddRow(6, text.NewCol(12, desc, pdfValueStyle))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func (p *DocumentProducer) addPDFField(m core.Maroto, label, value string) {
	m.AddRow(6,
		text.NewCol(4, label, pdfLabelStyle),
		col.New(8).Add(text.New(value, pdfValueStyle)),
	)
}
