package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/recondesk/recon-backend/internal/domain/transaction"
)

// LoadCSV reads a statement from a CSV file. The first row is the header;
// columns are resolved via the mapping (auto-detected where unset).
func LoadCSV(path string, mapping ColumnMapping) ([]transaction.Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return ReadCSV(file, mapping)
}

// ReadCSV parses CSV content from a reader.
func ReadCSV(r io.Reader, mapping ColumnMapping) ([]transaction.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // statements are frequently ragged

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := detectColumns(records[0], mapping)
	if cols.amount < 0 {
		return nil, fmt.Errorf("no amount column found in header %v", records[0])
	}

	items := make([]transaction.Transaction, 0, len(records)-1)
	for _, record := range records[1:] {
		items = append(items, buildTransaction(cols, record))
	}
	return items, nil
}
