package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCSVColumnsAndRows(t *testing.T) {
	path := writeCSV(t, "first,last\nJane,Doe\nJohn,Smith\n")

	tbl, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "last"}, tbl.Columns())
	assert.Equal(t, 2, tbl.NumRows())

	v, err := tbl.Value(0, "last")
	require.NoError(t, err)
	assert.Equal(t, "Doe", v)
}

func TestLoadCSVEmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	tbl, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.NumRows())
	assert.Empty(t, tbl.Columns())
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestCSVTableValueOutOfRange(t *testing.T) {
	path := writeCSV(t, "a\n1\n")
	tbl, err := LoadCSV(path)
	require.NoError(t, err)

	_, err = tbl.Value(5, "a")
	assert.Error(t, err)
}

func TestCSVTableValueUnknownColumn(t *testing.T) {
	path := writeCSV(t, "a\n1\n")
	tbl, err := LoadCSV(path)
	require.NoError(t, err)

	_, err = tbl.Value(0, "b")
	assert.Error(t, err)
}

func TestLoadCSVRejectsRaggedRows(t *testing.T) {
	// encoding/csv enforces a consistent field count per record once the
	// header has fixed it.
	_, err := LoadCSV(writeCSV(t, "a,b\n1\n"))
	assert.Error(t, err)
}
