// Package table provides pprl.Table adapters over concrete data sources,
// the translation layer between the core's row-keyed interface and a
// caller's actual storage. Modeled on the internal/db package:
// CSVDatabase's read-everything-into-memory shape (csv.go) and
// PostgresDatabase's schema-driven column discovery and parameterized row
// scan (postgres.go), generalized from a fixed key/value or key-columns
// shape to arbitrary columns addressed by row index.
package table

import (
	"encoding/csv"
	"fmt"
	"os"
)

// CSVTable implements pprl.Table over an in-memory copy of a CSV file's
// rows, keyed by column name from the header row.
type CSVTable struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// LoadCSV reads the entire file at path into a CSVTable. The first row is
// treated as the header and becomes the column names.
func LoadCSV(path string) (*CSVTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("table: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("table: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return &CSVTable{index: map[string]int{}}, nil
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	return &CSVTable{columns: header, index: index, rows: records[1:]}, nil
}

func (t *CSVTable) Columns() []string { return t.columns }
func (t *CSVTable) NumRows() int      { return len(t.rows) }

func (t *CSVTable) Value(row int, column string) (string, error) {
	if row < 0 || row >= len(t.rows) {
		return "", fmt.Errorf("table: row %d out of range", row)
	}
	col, ok := t.index[column]
	if !ok {
		return "", fmt.Errorf("table: unknown column %q", column)
	}
	if col >= len(t.rows[row]) {
		return "", nil
	}
	return t.rows[row][col], nil
}
