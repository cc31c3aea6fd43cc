// evaluate.go scores a Matching against a known ground truth, grounded on
// internal/match/testharness.go EvaluateResults (true/false
// positive counting, precision/recall/F1 with the same zero-denominator
// guards) and cmd/validate's command-level reporting of the same metrics.
package pprl

// Evaluation summarizes a Matching's agreement with a ground truth mapping
// of left row index to right row index.
type Evaluation struct {
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	Precision      float64
	Recall         float64
	F1Score        float64
}

// Evaluate compares m against groundTruth (left index -> right index) and
// computes precision, recall, and F1. Pairs present in m but absent from
// groundTruth are false positives; ground-truth pairs absent from m are
// false negatives. Precision, recall, and F1 are 0 (not NaN) when their
// denominator is 0.
func Evaluate(m *Matching, groundTruth map[int]int) *Evaluation {
	found := make(map[int]int, len(m.Left))
	var tp, fp int
	for k := range m.Left {
		l, r := m.Left[k], m.Right[k]
		found[l] = r
		if truth, ok := groundTruth[l]; ok && truth == r {
			tp++
		} else {
			fp++
		}
	}

	var fn int
	for l, r := range groundTruth {
		if foundR, ok := found[l]; !ok || foundR != r {
			fn++
		}
	}

	e := &Evaluation{TruePositives: tp, FalsePositives: fp, FalseNegatives: fn}
	if tp+fp > 0 {
		e.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		e.Recall = float64(tp) / float64(tp+fn)
	}
	if e.Precision+e.Recall > 0 {
		e.F1Score = 2 * e.Precision * e.Recall / (e.Precision + e.Recall)
	}
	return e
}
