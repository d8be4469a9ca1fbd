package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hairline-crm/internal/model"
)

func TestColumn(t *testing.T) {
	assert.Equal(t, "A", column(0))
	assert.Equal(t, "Z", column(25))
	assert.Equal(t, "AA", column(26))
	assert.Equal(t, "AZ", column(51))
	assert.Equal(t, "BA", column(52))
	assert.Equal(t, "C7", cell(2, 7))
}

func TestWriteXLSX(t *testing.T) {
	table := &model.Table{
		Title:   "Counsellor Performance",
		Columns: []string{"Counsellor", "Total Patients", "Conversion Rate (%)"},
		Rows: [][]interface{}{
			{"Dr. A", 3, 66.67},
			{"Dr. B", 1, 0.0},
		},
	}

	data, err := XLSX(table)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)

	rows := book.GetRows("Counsellor Performance")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Counsellor", "Total Patients", "Conversion Rate (%)"}, rows[0])
	assert.Equal(t, "Dr. A", rows[1][0])
	assert.Equal(t, "3", rows[1][1])
	assert.Equal(t, "Dr. B", book.GetCellValue("Counsellor Performance", "A3"))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Report", sheetName(""))
	assert.Equal(t, "ab", sheetName("a/b"))
	assert.Len(t, sheetName("A very long report title that exceeds the limit"), maxSheetName)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "agents-2024-03-14.xlsx", Filename("agents", time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)))
}

func TestReadRows(t *testing.T) {
	data, err := XLSX(&model.Table{
		Title:   "Import",
		Columns: []string{"personal.name", "personal.phone"},
		Rows:    [][]interface{}{{"Sanjay", "9811122233"}, {"Priya", "9000000000"}},
	})
	require.NoError(t, err)

	header, rows, err := ReadRows(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"personal.name", "personal.phone"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, "Priya", rows[1][0])

	_, _, err = ReadRows(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)
}
