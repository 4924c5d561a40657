package eval

// Report holds the aggregate retrieval quality of one evaluation run.
type Report struct {
	Engine string `json:"engine"`
	Limit  int    `json:"limit"`

	Processed     int `json:"processed"`
	Failures      int `json:"failures"`
	TotalRelevant int `json:"total_relevant"`
	TotalHits     int `json:"total_hits"`

	// OverallHitRate is TotalHits/TotalRelevant (micro-averaged recall).
	OverallHitRate float64 `json:"overall_hit_rate"`
	// MicroPrecision is TotalHits/(Processed*Limit).
	MicroPrecision       float64 `json:"micro_precision"`
	MeanAveragePrecision float64 `json:"mean_average_precision"`
	MeanAverageRecall    float64 `json:"mean_average_recall"`
	MRR                  float64 `json:"mrr"`

	PerQuery []QueryResult `json:"-"`
}

type QueryResult struct {
	QueryID   string  `json:"query_id"`
	Hits      int     `json:"hits"`
	Relevant  int     `json:"relevant"`
	Recall    float64 `json:"recall"`
	Precision float64 `json:"precision"`
	Error     string  `json:"error,omitempty"`
}

func newQueryResult(o Outcome) QueryResult {
	qr := QueryResult{
		QueryID:   o.QueryID,
		Hits:      o.Score.Hits,
		Relevant:  o.Score.Relevant,
		Recall:    o.Score.Recall,
		Precision: o.Score.Precision,
	}
	if o.Err != nil {
		qr.Error = o.Err.Error()
	}
	return qr
}
