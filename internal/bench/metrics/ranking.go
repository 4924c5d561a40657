package metrics

// ReciprocalRank returns 1/rank of the first relevant document, 0 if none.
func ReciprocalRank(ranked []string, relevant Relevant) float64 {
	for i, docID := range ranked {
		if _, ok := relevant[docID]; ok {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// QueryScore is the outcome of one judged query at page size K.
type QueryScore struct {
	Hits      int
	Relevant  int
	Recall    float64
	Precision float64
	RR        float64
}

// Score computes all per-query values over the top-K.
func Score(ranked []string, relevant Relevant, k int) QueryScore {
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}

	return QueryScore{
		Hits:      HitCount(ranked, relevant, k),
		Relevant:  len(relevant),
		Recall:    RecallAtK(ranked, relevant, k),
		Precision: PrecisionAtK(ranked, relevant, k),
		RR:        ReciprocalRank(ranked, relevant),
	}
}
