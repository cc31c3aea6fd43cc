package pprl

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTable struct {
	columns []string
	rows    []map[string]string
}

func (s *staticTable) Columns() []string { return s.columns }
func (s *staticTable) NumRows() int      { return len(s.rows) }
func (s *staticTable) Value(row int, column string) (string, error) {
	if row < 0 || row >= len(s.rows) {
		return "", fmt.Errorf("out of range")
	}
	return s.rows[row][column], nil
}

func TestEmbedBasicTable(t *testing.T) {
	cfg, err := NewEmbedderConfig(512, 6, []byte("s"), nil)
	require.NoError(t, err)
	embedder := NewEmbedder(cfg, NewFeatureFactory())

	tbl := &staticTable{
		columns: []string{"first", "dob"},
		rows: []map[string]string{
			{"first": "Jane", "dob": "1990-01-01"},
			{"first": "", "dob": ""},
		},
	}
	spec := ColumnSpec{
		"first": {Type: "name"},
		"dob":   {Type: "dob"},
	}

	ds, err := embedder.Embed(tbl, spec, true)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Greater(t, ds.Records[0].Norm, 0.0)
	assert.Equal(t, 0.0, ds.Records[1].Norm, "an all-empty row embeds to a zero vector")
}

func TestEmbedUnknownFeatureTypeFailsFast(t *testing.T) {
	cfg, err := NewEmbedderConfig(512, 6, nil, nil)
	require.NoError(t, err)
	embedder := NewEmbedder(cfg, NewFeatureFactory())

	tbl := &staticTable{columns: []string{"x"}, rows: []map[string]string{{"x": "v"}}}
	spec := ColumnSpec{"x": {Type: "not-a-real-type"}}

	_, err = embedder.Embed(tbl, spec, false)
	assert.ErrorIs(t, err, &CoreError{Kind: ErrUnknownFeatureType})
}

func TestEmbedRetainsFeaturesWhenRequested(t *testing.T) {
	cfg, err := NewEmbedderConfig(512, 6, nil, nil)
	require.NoError(t, err)
	embedder := NewEmbedder(cfg, NewFeatureFactory())
	embedder.RetainFeatures = true

	tbl := &staticTable{columns: []string{"first"}, rows: []map[string]string{{"first": "Amy"}}}
	spec := ColumnSpec{"first": {Type: "name"}}

	ds, err := embedder.Embed(tbl, spec, false)
	require.NoError(t, err)
	require.NotNil(t, ds.Records[0].Features)
	assert.NotEmpty(t, ds.Records[0].Features["first"])
}

func TestSelfNormZeroForEmptyIndices(t *testing.T) {
	cfg, err := NewEmbedderConfig(64, 4, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, selfNorm(nil, cfg))
}

func TestSelfNormIdentityEqualsSqrtPopcount(t *testing.T) {
	cfg, err := NewEmbedderConfig(64, 4, nil, nil)
	require.NoError(t, err)
	idx := []uint32{1, 2, 3, 4}
	assert.InDelta(t, 2.0, selfNorm(idx, cfg), 1e-9)
}
