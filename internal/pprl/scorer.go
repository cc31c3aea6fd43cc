// scorer.go implements the Soft Cosine Measure scorer.
// Grounded on internal/pprl/bloom.go HammingDistance (dense
// bit-array XOR+popcount) generalized to AND+popcount for intersection
// size, and internal/match/fuzzy.go's CompareRecords orchestration shape
// (deserialize/derive once per side, then score pairwise).
package pprl

import (
	"time"

	"github.com/auroradata-ai/pprl-core/internal/pprllog"
)

// scm computes the Soft Cosine Measure between two EmbeddedRecords under
// the same EmbedderConfig: (u^T S v) / (||u||_S * ||v||_S), clipped to
// [0, 1] to absorb floating-point error at the boundary. Empty-vector
// records score 0 against everything rather than NaN.
func scm(a, b *EmbeddedRecord, cfg *EmbedderConfig) float64 {
	if a.Norm == 0 || b.Norm == 0 {
		return 0
	}
	var numerator float64
	if cfg.Identity() {
		numerator = float64(intersectionSize(a.Indices, b.Indices))
	} else {
		numerator = quadraticForm(a.Indices, b.Indices, cfg.S)
	}
	score := numerator / (a.Norm * b.Norm)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// intersectionSize returns |a ∩ b| for two sorted, deduplicated index
// slices via a linear merge — avoids materializing a dense bit array for
// a single pair (the dense AND+popcount path is reserved for compare()'s
// bulk scoring, where amortizing the packing cost across many
// comparisons pays off).
func intersectionSize(a, b []uint32) int {
	var i, j, count int
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			count++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return count
}

// quadraticForm computes u^T S v sparsely over indices(u) x indices(v).
func quadraticForm(a, b []uint32, s *TokenSimilarity) float64 {
	var sum float64
	for _, i := range a {
		for _, j := range b {
			sum += s.Get(i, j)
		}
	}
	return sum
}

// SimilarityCell is one scored pair, carrying provenance back to its
// source row indices.
type SimilarityCell struct {
	Row, Col int
	Score    float64
}

// SimilarityMatrix is the dense n1 x n2 array of SCM scores produced by
// Compare, in [0, 1] for the binary-vector case.
type SimilarityMatrix struct {
	Left, Right *EmbeddedDataset
	Rows, Cols  int
	scores      []float64 // row-major, Rows*Cols
}

func newSimilarityMatrix(left, right *EmbeddedDataset) *SimilarityMatrix {
	rows, cols := left.Len(), right.Len()
	return &SimilarityMatrix{
		Left: left, Right: right,
		Rows: rows, Cols: cols,
		scores: make([]float64, rows*cols),
	}
}

// At returns the SCM score between left row i and right row j.
func (m *SimilarityMatrix) At(i, j int) float64 { return m.scores[i*m.Cols+j] }

func (m *SimilarityMatrix) set(i, j int, v float64) { m.scores[i*m.Cols+j] = v }

// Cell returns the scored cell with provenance for (i, j).
func (m *SimilarityMatrix) Cell(i, j int) SimilarityCell {
	return SimilarityCell{Row: i, Col: j, Score: m.At(i, j)}
}

// Compare produces the full n1 x n2 SCM similarity matrix between two
// embedded datasets. Both datasets must share the same
// EmbedderConfig identity (same m, k, salt, and S); a mismatch fails with
// ConfigMismatch before any computation, never returning a partial matrix.
func Compare(left, right *EmbeddedDataset) (*SimilarityMatrix, error) {
	if !left.Config.sameAs(right.Config) {
		return nil, newErr(ErrConfigMismatch, "left and right datasets were embedded with different EmbedderConfigs")
	}

	m := newSimilarityMatrix(left, right)
	if m.Rows == 0 || m.Cols == 0 {
		return m, nil
	}

	cfg := left.Config
	start := time.Now()

	if cfg.Identity() {
		pprllog.Debugf("compare: dense AND+popcount fast path, %dx%d cells", m.Rows, m.Cols)
		// Fast path: materialize both sides as dense bit matrices once
		// and score by population-count over AND, instead of re-walking
		// each record's sparse index list n1*n2 times.
		leftBits := packAll(left, cfg.M)
		rightBits := packAll(right, cfg.M)
		parallelFor(m.Rows, func(i int) {
			a := left.Records[i]
			ab := leftBits[i]
			for j := 0; j < m.Cols; j++ {
				b := right.Records[j]
				if a.Norm == 0 || b.Norm == 0 {
					continue
				}
				score := float64(ab.intersectionCount(rightBits[j])) / (a.Norm * b.Norm)
				m.set(i, j, clip01(score))
			}
		})
		pprllog.Debugf("compare: dense path finished in %s", time.Since(start))
		return m, nil
	}

	pprllog.Debugf("compare: sparse quadratic-form path, %dx%d cells", m.Rows, m.Cols)
	// General path: sparse quadratic form over the supplied S matrix.
	// Row-parallel construction: each goroutine owns a contiguous band of
	// left rows and writes only into its own slice region, so no
	// synchronization is needed on the shared backing array.
	parallelFor(m.Rows, func(i int) {
		a := left.Records[i]
		for j := 0; j < m.Cols; j++ {
			b := right.Records[j]
			m.set(i, j, scm(a, b, cfg))
		}
	})
	pprllog.Debugf("compare: sparse path finished in %s", time.Since(start))
	return m, nil
}

func packAll(ds *EmbeddedDataset, m uint32) []*packedBits {
	out := make([]*packedBits, ds.Len())
	parallelFor(ds.Len(), func(i int) {
		out[i] = newPackedBits(m, ds.Records[i].Indices)
	})
	return out
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
