// hungarian.go implements the one-to-one matcher: a rectangular
// Kuhn-Munkres assignment over eligible similarity cells, with per-row
// threshold and absolute-cutoff eligibility filtering and deterministic
// tie-breaking. No assignment-problem solver was available to build on, so
// this is written directly against the standard library, following the
// same array-of-arrays, no-interface style used elsewhere in this package
// (internal/pprl/bloom.go).
package pprl

import "math"

// Matching is a one-to-one pairing between left and right dataset rows.
// Left[k] and Right[k] together name the k-th matched pair; both slices
// have the same length.
type Matching struct {
	Left  []int
	Right []int
}

// MatchOptions configures eligibility filtering for Match.
type MatchOptions struct {
	// AbsCutoff, if non-nil, excludes any cell with score below the cutoff
	// from consideration regardless of per-row thresholds.
	AbsCutoff *float64

	// RequireThresholds, when true, additionally excludes any cell whose
	// score falls below max(left.Threshold, right.Threshold), the
	// empirical per-row acceptance bar.
	RequireThresholds bool
}

// sentinelCost stands in for "ineligible" in the cost matrix: large enough
// that the solver never prefers it over any real assignment, but finite so
// the algorithm's arithmetic stays well-defined. Assignments landing on it
// are dropped from the result after solving.
const sentinelCost = math.MaxFloat64 / 4

// Match solves the rectangular assignment problem over sim's eligible
// cells and returns the resulting one-to-one pairing. Pairs
// whose only available partners are all ineligible are simply absent from
// the result, not an error; Match only errors on a structurally empty
// input matrix.
func Match(sim *SimilarityMatrix, opts MatchOptions) (*Matching, error) {
	if sim.Rows == 0 || sim.Cols == 0 {
		return nil, newErr(ErrEmptyInput, "cannot match an empty similarity matrix")
	}

	eligible := make([][]bool, sim.Rows)
	anyEligible := false
	for i := 0; i < sim.Rows; i++ {
		eligible[i] = make([]bool, sim.Cols)
		left := sim.Left.Records[i]
		for j := 0; j < sim.Cols; j++ {
			score := sim.At(i, j)
			ok := true
			if opts.AbsCutoff != nil && score < *opts.AbsCutoff {
				ok = false
			}
			if ok && opts.RequireThresholds {
				right := sim.Right.Records[j]
				bar := left.Threshold
				if right.Threshold > bar {
					bar = right.Threshold
				}
				if score < bar {
					ok = false
				}
			}
			eligible[i][j] = ok
			anyEligible = anyEligible || ok
		}
	}
	if !anyEligible {
		return &Matching{}, nil
	}

	// Kuhn-Munkres minimizes cost; similarity is a benefit, so negate
	// eligible cells and push ineligible cells to a large sentinel. Pad to
	// square since the classic algorithm operates on a square cost matrix.
	n := sim.Rows
	if sim.Cols > n {
		n = sim.Cols
	}
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			switch {
			case i < sim.Rows && j < sim.Cols && eligible[i][j]:
				cost[i][j] = -sim.At(i, j)
			default:
				cost[i][j] = sentinelCost
			}
		}
	}

	rowMatch := solveAssignment(cost)

	// Collect real (non-padding, eligible) pairs, then sort for
	// determinism: smaller left index first, then smaller right index.
	m := &Matching{}
	for i := 0; i < sim.Rows; i++ {
		j := rowMatch[i]
		if j < 0 || j >= sim.Cols || !eligible[i][j] {
			continue
		}
		m.Left = append(m.Left, i)
		m.Right = append(m.Right, j)
	}
	sortMatchingPairs(m)
	return m, nil
}

func sortMatchingPairs(m *Matching) {
	n := len(m.Left)
	for i := 1; i < n; i++ {
		l, r := m.Left[i], m.Right[i]
		j := i - 1
		for j >= 0 && (m.Left[j] > l || (m.Left[j] == l && m.Right[j] > r)) {
			m.Left[j+1] = m.Left[j]
			m.Right[j+1] = m.Right[j]
			j--
		}
		m.Left[j+1] = l
		m.Right[j+1] = r
	}
}

// solveAssignment runs the Jonker-Volgenant-free, textbook O(n^3)
// Kuhn-Munkres algorithm on a square cost matrix and returns, for each row,
// the assigned column. Implementation follows the classical potentials /
// augmenting-path formulation (successive shortest augmenting paths with
// reduced costs), operating on 1-indexed internal arrays to keep the "0
// means unmatched" sentinel unambiguous.
func solveAssignment(cost [][]float64) []int {
	n := len(cost)
	const inf = math.MaxFloat64 / 2

	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1) // p[j] = row currently assigned to column j (1-indexed), 0 = none
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := 0; j <= n; j++ {
			minv[j] = inf
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	rowMatch := make([]int, n)
	for i := range rowMatch {
		rowMatch[i] = -1
	}
	for j := 1; j <= n; j++ {
		if p[j] != 0 {
			rowMatch[p[j]-1] = j - 1
		}
	}
	return rowMatch
}
