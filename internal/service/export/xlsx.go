package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"

	"github.com/jwalitptl/hairline-crm/internal/model"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// sheet names are limited to 31 characters by the file format.
	maxSheetName = 31
)

// WriteXLSX renders table as a single-sheet workbook: a header row followed by
// one row per table row.
func WriteXLSX(w io.Writer, table *model.Table) error {
	file := excelize.NewFile()
	sheet := sheetName(table.Title)
	file.SetSheetName("Sheet1", sheet)

	for i, col := range table.Columns {
		file.SetCellValue(sheet, cell(i, 1), col)
	}
	for r, row := range table.Rows {
		for i, v := range row {
			file.SetCellValue(sheet, cell(i, r+2), v)
		}
	}
	if n := len(table.Columns); n > 0 {
		file.SetColWidth(sheet, column(0), column(n-1), 18)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// XLSX returns the workbook bytes for table.
func XLSX(table *model.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename names the attachment for a report, e.g. "counsellors-2024-03-14.xlsx".
func Filename(reportType string, at time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", reportType, at.Format("2006-01-02"))
}

// ReadRows returns the header row and the data rows of the first sheet of a
// workbook. Short rows are not padded.
func ReadRows(r io.Reader) ([]string, [][]string, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	rows := file.GetRows(file.GetSheetName(1))
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("workbook has no rows")
	}
	return rows[0], rows[1:], nil
}

func sheetName(title string) string {
	name := strings.NewReplacer(":", "", "\\", "", "/", "", "?", "", "*", "", "[", "", "]", "").Replace(title)
	if name == "" {
		name = "Report"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

// cell returns the A1 reference for a zero-based column and one-based row.
func cell(col, row int) string {
	return fmt.Sprintf("%s%d", column(col), row)
}

// column converts a zero-based index to spreadsheet letters: 0 is A, 26 is AA.
func column(i int) string {
	name := ""
	for i >= 0 {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
	}
	return name
}
