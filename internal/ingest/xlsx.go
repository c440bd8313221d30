package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/recondesk/recon-backend/internal/domain/transaction"
)

// LoadXLSX reads a statement from the first sheet of an XLSX workbook.
// Values come back as display text; the same normalization as the CSV path
// applies, including Excel serial dates that excelize surfaces as numbers.
func LoadXLSX(path string, mapping ColumnMapping) ([]transaction.Transaction, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := detectColumns(rows[0], mapping)
	if cols.amount < 0 {
		return nil, fmt.Errorf("no amount column found in header %v", rows[0])
	}

	items := make([]transaction.Transaction, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		items = append(items, buildTransaction(cols, row))
	}
	return items, nil
}

// Load dispatches on file extension: .xlsx to the workbook reader, anything
// else to the CSV reader.
func Load(path string, mapping ColumnMapping) ([]transaction.Transaction, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return LoadXLSX(path, mapping)
	}
	return LoadCSV(path, mapping)
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
