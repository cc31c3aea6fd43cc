// dataset.go implements the orchestrator's embed() operation and the
// EmbeddedRecord / EmbeddedDataset data model.
// Grounded on internal/pprl/record.go (CreateRecord's
// build-filter-then-derive-signature shape) and internal/pprl/storage.go
// (Record's field layout, carried forward as EmbeddedRecord).
package pprl

import (
	"fmt"
	"math"
)

// Table is the adapter interface a caller's dataset must satisfy to be
// embedded. It is the translation of the source's dynamic-dataframe
// reliance into a small interface the caller adapts at the edge (see
// internal/table for CSV/Postgres implementations, and InMemoryRows in
// this package for an in-memory one).
type Table interface {
	// Columns returns the available column names.
	Columns() []string
	// NumRows returns the number of rows.
	NumRows() int
	// Value returns the cell at (row, column) as text. Missing/null
	// values should be returned as "".
	Value(row int, column string) (string, error)
}

// ColumnSpec maps a column name to the feature type that should extract
// it, with an optional label override. Columns absent from the map do
// not contribute to the embedding.
type ColumnSpec map[string]ColumnFeature

// ColumnFeature names the extractor type to use for a column, and
// optionally overrides the label that type would otherwise assign (used
// by the miscellaneous extractors so differently-named columns can share
// a label space).
type ColumnFeature struct {
	Type  string
	Label string // empty means "use the extractor's default label"
}

// EmbeddedRecord is the per-row output of embed(): the set of bit
// positions the record's feature bag sets, its SCM self-norm, its
// per-row match-acceptability threshold, and optionally the retained
// feature bag for debugging.
type EmbeddedRecord struct {
	Config    *EmbedderConfig
	Indices   []uint32
	Norm      float64
	Threshold float64
	Features  map[string]FeatureBag // optional, nil unless retained
}

// EmbeddedDataset is an ordered sequence of EmbeddedRecords sharing one
// EmbedderConfig. Row order is the identity the matcher operates on.
type EmbeddedDataset struct {
	Config  *EmbedderConfig
	Records []*EmbeddedRecord
}

// Len returns the number of records in the dataset.
func (d *EmbeddedDataset) Len() int { return len(d.Records) }

// Embedder wires an EmbedderConfig to a FeatureFactory and exposes the
// embed/compare public surface (match lives in hungarian.go, operating on
// the SimilarityMatrix compare produces).
type Embedder struct {
	Config  *EmbedderConfig
	Factory *FeatureFactory

	// RetainFeatures controls whether embed() keeps each record's
	// per-column FeatureBag for debug/inspection. Off by default: it
	// roughly doubles memory.
	RetainFeatures bool
}

// NewEmbedder returns an Embedder over the given config and feature
// factory.
func NewEmbedder(cfg *EmbedderConfig, factory *FeatureFactory) *Embedder {
	return &Embedder{Config: cfg, Factory: factory}
}

// Embed runs embed() over every row of table per colspec. When
// updateThresholds is true, per-row acceptance thresholds are computed
// immediately; otherwise Threshold is left at 0 until
// ComputeThresholds is called separately (useful when the caller wants to
// embed once and recompute thresholds repeatedly as the dataset changes).
func (e *Embedder) Embed(table Table, spec ColumnSpec, updateThresholds bool) (*EmbeddedDataset, error) {
	// Resolve extractors up front so an UnknownFeatureType error surfaces
	// before any row is processed (no partial progress).
	type resolvedColumn struct {
		name  string
		ex    Extractor
		label string
	}
	var columns []resolvedColumn
	for name, feat := range spec {
		ex, err := e.Factory.Lookup(feat.Type)
		if err != nil {
			return nil, err
		}
		label := feat.Label
		columns = append(columns, resolvedColumn{name: name, ex: ex, label: label})
	}

	n := table.NumRows()
	records := make([]*EmbeddedRecord, n)
	for row := 0; row < n; row++ {
		var bag FeatureBag
		var byColumn map[string]FeatureBag
		if e.RetainFeatures {
			byColumn = make(map[string]FeatureBag, len(columns))
		}

		for _, col := range columns {
			value, err := table.Value(row, col.name)
			if err != nil {
				return nil, wrapErr(ErrInvalidFieldValue, fmt.Sprintf("row %d column %q", row, col.name), err)
			}
			label := col.label
			colBag, err := col.ex.Extract(value, labelOrColumn(label, col.name))
			if err != nil {
				return nil, wrapErr(ErrInvalidFieldValue, fmt.Sprintf("row %d column %q", row, col.name), err)
			}
			bag.Extend(colBag)
			if byColumn != nil {
				byColumn[col.name] = colBag
			}
		}

		rec := e.embedBag(bag)
		rec.Features = byColumn
		records[row] = rec
	}

	ds := &EmbeddedDataset{Config: e.Config, Records: records}
	if updateThresholds {
		if err := ComputeThresholds(ds, DefaultThresholdOptions()); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func labelOrColumn(label, column string) string {
	if label != "" {
		return label
	}
	return column
}

// embedBag hashes an aggregated FeatureBag to bit indices and computes its
// self-norm, leaving Threshold at 0 (the caller decides when to derive
// thresholds, since that step is O(n^2) across the whole dataset).
func (e *Embedder) embedBag(bag FeatureBag) *EmbeddedRecord {
	indices := embedBag(bag, e.Config)
	return &EmbeddedRecord{
		Config: e.Config,
		Indices: indices,
		Norm:    selfNorm(indices, e.Config),
	}
}

// selfNorm computes ||v||_S = sqrt(v^T S v) for the binary vector
// implied by indices. For identity S this is sqrt(popcount(v)).
func selfNorm(indices []uint32, cfg *EmbedderConfig) float64 {
	if len(indices) == 0 {
		return 0
	}
	if cfg.Identity() {
		return math.Sqrt(float64(len(indices)))
	}
	var sum float64
	for _, i := range indices {
		for _, j := range indices {
			sum += cfg.S.Get(i, j)
		}
	}
	if sum < 0 {
		sum = 0 // guard against floating-point underflow producing a tiny negative
	}
	return math.Sqrt(sum)
}
