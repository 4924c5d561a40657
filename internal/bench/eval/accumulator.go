package eval

import (
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/metrics"
	"github.com/DjordjeVuckovic/fts-bench/pkg/utils"
)

// Outcome is the scored result of one query. Failed queries carry a zero
// hit count and their judged relevant count.
type Outcome struct {
	Index   int
	QueryID string
	Score   metrics.QueryScore
	Err     error
}

func (o Outcome) Failed() bool { return o.Err != nil }

// Accumulator owns the running totals of an evaluation. It is not safe for
// concurrent use; the Evaluator feeds it from a single goroutine.
type Accumulator struct {
	limit int

	processed     int
	failures      int
	totalRelevant int
	totalHits     int
	recallSum     float64

	outcomes []Outcome
	seen     []bool
}

func NewAccumulator(size, limit int) *Accumulator {
	return &Accumulator{
		limit:    limit,
		outcomes: make([]Outcome, size),
		seen:     make([]bool, size),
	}
}

// Add records o under its query index. An index outside the accumulator or
// one already recorded is rejected.
func (a *Accumulator) Add(o Outcome) bool {
	if o.Index < 0 || o.Index >= len(a.seen) || a.seen[o.Index] {
		return false
	}
	a.seen[o.Index] = true
	a.outcomes[o.Index] = o

	a.processed++
	a.totalRelevant += o.Score.Relevant
	a.totalHits += o.Score.Hits
	a.recallSum += o.Score.Recall
	if o.Failed() {
		a.failures++
	}
	return true
}

func (a *Accumulator) Processed() int { return a.processed }

// RunningRecall is the mean recall over the queries recorded so far.
func (a *Accumulator) RunningRecall() float64 {
	return utils.SafeDiv(a.recallSum, float64(a.processed))
}

// Report reduces the recorded outcomes in query order, so the result does
// not depend on the order in which outcomes arrived.
func (a *Accumulator) Report() *Report {
	r := &Report{
		Limit:         a.limit,
		Processed:     a.processed,
		Failures:      a.failures,
		TotalRelevant: a.totalRelevant,
		TotalHits:     a.totalHits,
	}

	recalls := make([]float64, 0, a.processed)
	precisions := make([]float64, 0, a.processed)
	rrs := make([]float64, 0, a.processed)
	for i, ok := range a.seen {
		if !ok {
			continue
		}
		o := a.outcomes[i]
		recalls = append(recalls, o.Score.Recall)
		precisions = append(precisions, o.Score.Precision)
		rrs = append(rrs, o.Score.RR)
		r.PerQuery = append(r.PerQuery, newQueryResult(o))
	}

	r.OverallHitRate = utils.SafeDiv(float64(a.totalHits), float64(a.totalRelevant))
	r.MicroPrecision = utils.SafeDiv(float64(a.totalHits), float64(a.processed*a.limit))
	r.MeanAveragePrecision = utils.Mean(precisions)
	r.MeanAverageRecall = utils.Mean(recalls)
	r.MRR = utils.Mean(rrs)
	return r
}
