// norm.go implements the per-row threshold calculator.
// Grounded on internal/match/blocking.go GetBlockingStats,
// which sorts bucket sizes to take a median — the same sort-then-index
// approach is used here to take an arbitrary quantile of each row's
// self-similarity distribution.
package pprl

import (
	"math/rand"
	"sort"
	"time"

	"github.com/auroradata-ai/pprl-core/internal/pprllog"
)

// ThresholdOptions configures per-row threshold derivation.
type ThresholdOptions struct {
	// Alpha selects the quantile of the self-similarity distribution used
	// as the threshold: 1.0 (the default) takes the maximum, meaning no
	// row in the same dataset may out-score the true match. Lower values
	// trade precision for recall.
	Alpha float64

	// SampleCap bounds the number of self-comparisons per row; 0 (the
	// default) means compare against the full N-1 other rows. Set to
	// bound cost on very large datasets.
	SampleCap int

	// Rand, if non-nil, seeds the per-row subsampling when SampleCap <
	// N-1. Each row derives its own *rand.Rand from this seed plus its
	// row index, rather than sharing one generator across goroutines.
	// When nil, a fresh source with the fixed seed 1 is used.
	Rand *rand.Rand
}

// DefaultThresholdOptions returns alpha = 1 (maximum), no subsampling.
func DefaultThresholdOptions() ThresholdOptions {
	return ThresholdOptions{Alpha: 1.0, SampleCap: 0}
}

// ComputeThresholds derives each record's per-row acceptance threshold
// from the self-similarity distribution of its own dataset,
// and writes it into record.Threshold in place. Must be re-run whenever
// the dataset's contents or EmbedderConfig change (thresholds are not
// auto-invalidated).
func ComputeThresholds(ds *EmbeddedDataset, opts ThresholdOptions) error {
	n := ds.Len()
	if n == 0 {
		return nil
	}
	if n == 1 {
		ds.Records[0].Threshold = 0
		return nil
	}
	if opts.Alpha < 0 || opts.Alpha > 1 {
		return newErr(ErrInvalidConfig, "Alpha must be in [0, 1]")
	}

	seedSrc := opts.Rand
	if seedSrc == nil {
		seedSrc = rand.New(rand.NewSource(1))
	}
	// Drawn once, single-threaded, before the fan-out below: *rand.Rand is
	// not safe for concurrent use, so each row gets its own generator
	// seeded from this value rather than sharing seedSrc across goroutines.
	baseSeed := seedSrc.Int63()

	start := time.Now()
	cfg := ds.Config
	parallelFor(n, func(i int) {
		rec := ds.Records[i]
		if rec.Norm == 0 {
			rec.Threshold = 0
			return
		}
		rowRng := rand.New(rand.NewSource(baseSeed + int64(i)))
		scores := selfScoresForRow(ds, i, cfg, opts, rowRng)
		rec.Threshold = quantile(scores, opts.Alpha)
	})
	pprllog.Debugf("computed thresholds for %d rows in %s (sample_cap=%d)", n, time.Since(start), opts.SampleCap)
	return nil
}

// selfScoresForRow computes row i's SCM similarity against every other
// row in its dataset (or a capped random subsample of them). rng must be
// owned exclusively by the caller's goroutine: ComputeThresholds calls
// this from inside parallelFor with a fresh *rand.Rand per row.
func selfScoresForRow(ds *EmbeddedDataset, i int, cfg *EmbedderConfig, opts ThresholdOptions, rng *rand.Rand) []float64 {
	n := ds.Len()
	a := ds.Records[i]

	indices := make([]int, 0, n-1)
	for j := 0; j < n; j++ {
		if j != i {
			indices = append(indices, j)
		}
	}
	if opts.SampleCap > 0 && opts.SampleCap < len(indices) {
		rng.Shuffle(len(indices), func(x, y int) { indices[x], indices[y] = indices[y], indices[x] })
		indices = indices[:opts.SampleCap]
	}

	scores := make([]float64, len(indices))
	for k, j := range indices {
		scores[k] = scm(a, ds.Records[j], cfg)
	}
	return scores
}

// quantile returns the alpha-quantile of scores (alpha=1 -> max,
// alpha=0 -> min), using linear interpolation between the two nearest
// ranks of the sorted slice.
func quantile(scores []float64, alpha float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	if alpha >= 1 {
		return sorted[len(sorted)-1]
	}
	if alpha <= 0 {
		return sorted[0]
	}
	pos := alpha * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
