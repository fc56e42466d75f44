package generator

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bincollect/internal/repository"
)

func TestDocumentProducer_CSV(t *testing.T) {
	p := NewDocumentProducer()

	content, ext, err := p.Produce(context.Background(), testReportData())
	require.NoError(t, err)
	assert.Equal(t, "csv", ext)

	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "42", records[1][0])
}

func TestDocumentProducer_Excel(t *testing.T) {
	p := NewDocumentProducer()

	data := testReportData()
	data.Format = FormatExcel

	content, ext, err := p.Produce(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", ext)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err, "excel output must be a real xlsx container")
	defer f.Close()

	title, err := f.GetCellValue("Report", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Monthly", title)
}

func TestDocumentProducer_PDF(t *testing.T) {
	p := NewDocumentProducer()

	data := testReportData()
	data.Format = FormatPDF

	content, ext, err := p.Produce(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "pdf", ext)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")), "pdf output must be a real PDF document")
}

func TestCollectionsCSV(t *testing.T) {
	collected := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	collections := []*repository.Collection{
		{ID: 1, BinID: 11, Address: "Lenina 5", Status: "completed", WeightKg: 42.5,
			CollectedAt: &collected, CreatedAt: collected},
		{ID: 2, BinID: 12, Address: "Mira 3", Status: "pending", WeightKg: 0,
			CreatedAt: collected},
	}

	content, err := CollectionsCSV(collections)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Lenina 5", records[1][2])
	assert.Equal(t, "-", records[2][5], "pending collection has no collected_at")
}

func TestCollectionsExcel(t *testing.T) {
	collections := []*repository.Collection{
		{ID: 1, BinID: 11, Address: "Lenina 5", Status: "completed", WeightKg: 42.5,
			CreatedAt: time.Now().UTC()},
	}

	content, err := CollectionsExcel(collections)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	address, err := f.GetCellValue("Collections", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Lenina 5", address)
}
