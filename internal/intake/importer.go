package intake

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalitptl/hairline-crm/internal/model"
)

// listSeparator splits multi-valued cells such as "Biotin; Minoxidil".
const listSeparator = ";"

// RowError reports why one spreadsheet row was not imported. Row is the
// one-based sheet row, counting the header.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

type ImportResult struct {
	Created []*model.Patient
	Failed  []RowError
}

// Import registers one patient per row by driving a fresh intake form with the
// row's cells. header names the field path of each column; list columns take
// several values separated by ";". Blank rows are skipped and a failing row
// does not stop the rest.
func Import(ctx context.Context, submitter Submitter, actor string, header []string, rows [][]string) ImportResult {
	var result ImportResult
	for i, row := range rows {
		if blank(row) {
			continue
		}
		w := NewIntake(submitter, actor)
		err := w.fill(ctx, header, row)
		if err == nil {
			err = w.Dispatch(ctx, Submit{})
		}
		if err != nil {
			result.Failed = append(result.Failed, RowError{Row: i + 2, Err: err})
			continue
		}
		result.Created = append(result.Created, w.Submitted())
	}
	return result
}

func (w *Wizard) fill(ctx context.Context, header []string, row []string) error {
	for col, path := range header {
		path = strings.TrimSpace(path)
		if path == "" || col >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[col])
		if value == "" {
			continue
		}

		if _, ok := stringLists[path]; ok {
			for _, item := range strings.Split(value, listSeparator) {
				if item = strings.TrimSpace(item); item == "" {
					continue
				}
				if err := w.Dispatch(ctx, AddItem{List: path, Value: item}); err != nil {
					return err
				}
			}
			continue
		}
		if err := w.Dispatch(ctx, SetField{Path: path, Value: value}); err != nil {
			return err
		}
	}
	return nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
