// Package metrics scores a ranked result list against binary relevance
// judgments.
package metrics

// Relevant is the set of document ids judged relevant for one query.
type Relevant = map[string]struct{}

// HitCount returns how many relevant documents appear among the first k ranked
// ids. Membership is tested per relevant id, so duplicates in ranked count once.
func HitCount(ranked []string, relevant Relevant, k int) int {
	if k <= 0 || len(ranked) == 0 || len(relevant) == 0 {
		return 0
	}

	n := min(k, len(ranked))
	found := make(map[string]struct{}, n)
	for _, id := range ranked[:n] {
		found[id] = struct{}{}
	}

	var hits int
	for id := range relevant {
		if _, ok := found[id]; ok {
			hits++
		}
	}
	return hits
}

// PrecisionAtK computes the fraction of the top-K that is relevant. The
// denominator is always k, even when fewer than k results were returned.
func PrecisionAtK(ranked []string, relevant Relevant, k int) float64 {
	if k <= 0 {
		return 0
	}
	return float64(HitCount(ranked, relevant, k)) / float64(k)
}

// RecallAtK computes the fraction of all relevant documents found in top-K.
func RecallAtK(ranked []string, relevant Relevant, k int) float64 {
	if len(relevant) == 0 {
		return 0
	}
	return float64(HitCount(ranked, relevant, k)) / float64(len(relevant))
}
