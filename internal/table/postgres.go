package table

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresTable implements pprl.Table by loading every row of a named
// table into memory once at construction, the way CSVTable does for a
// file. Schema (column list) is discovered from information_schema, as in
// PostgresDatabase.loadTableSchema, rather than required
// from the caller.
type PostgresTable struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// OpenPostgresTable connects using dsn, discovers tableName's columns, and
// loads every row as text.
func OpenPostgresTable(dsn, tableName string) (*PostgresTable, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("table: open postgres: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("table: ping postgres: %w", err)
	}

	columns, err := loadColumns(db, tableName)
	if err != nil {
		return nil, err
	}

	rows, err := loadRows(db, tableName, columns)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(columns))
	for i, name := range columns {
		index[name] = i
	}
	return &PostgresTable{columns: columns, index: index, rows: rows}, nil
}

func loadColumns(db *sql.DB, tableName string) ([]string, error) {
	rows, err := db.Query(
		`SELECT column_name FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position`,
		tableName,
	)
	if err != nil {
		return nil, fmt.Errorf("table: query schema: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("table: scan column: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table: iterate schema: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table: %s has no columns or does not exist", tableName)
	}
	return columns, nil
}

func loadRows(db *sql.DB, tableName string, columns []string) ([][]string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", quoteIdentList(columns), quoteIdent(tableName))
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("table: query rows: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		raw := make([]sql.NullString, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("table: scan row: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range raw {
			row[i] = v.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table: iterate rows: %w", err)
	}
	return out, nil
}

// quoteIdent wraps a single SQL identifier in double quotes, escaping any
// embedded quote. Table/column names come from our own config or from
// information_schema, never from row data, but callers may hand-author
// table names in YAML, so they're quoted rather than trusted verbatim.
func quoteIdent(name string) string {
	escaped := ""
	for _, r := range name {
		if r == '"' {
			escaped += `""`
			continue
		}
		escaped += string(r)
	}
	return `"` + escaped + `"`
}

func quoteIdentList(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += quoteIdent(n)
	}
	return out
}

func (t *PostgresTable) Columns() []string { return t.columns }
func (t *PostgresTable) NumRows() int      { return len(t.rows) }

func (t *PostgresTable) Value(row int, column string) (string, error) {
	if row < 0 || row >= len(t.rows) {
		return "", fmt.Errorf("table: row %d out of range", row)
	}
	col, ok := t.index[column]
	if !ok {
		return "", fmt.Errorf("table: unknown column %q", column)
	}
	return t.rows[row][col], nil
}
