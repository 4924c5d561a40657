package eval

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/fts-bench/internal/apperr"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/dataset"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSearcher answers each query text with a fixed ranked list.
type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]string
	fail    map[string]bool
	jitter  bool
	calls   atomic.Int64
	seen    []string
}

func (f *fakeSearcher) Search(ctx context.Context, q string, limit int) ([]engine.Hit, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.seen = append(f.seen, q)
	f.mu.Unlock()

	if f.jitter {
		time.Sleep(time.Duration(rand.IntN(500)) * time.Microsecond)
	}
	if f.fail[q] {
		return nil, errors.New("backend unavailable")
	}
	var hits []engine.Hit
	for i, id := range f.results[q] {
		hits = append(hits, engine.Hit{DocID: id, Score: float64(100 - i)})
	}
	return hits, nil
}

func (f *fakeSearcher) Name() string { return "fake" }
func (f *fakeSearcher) Close() error { return nil }

func judged(id, text string, relevant ...string) dataset.Query {
	rel := make(map[string]struct{}, len(relevant))
	for _, r := range relevant {
		rel[r] = struct{}{}
	}
	return dataset.Query{ID: id, Text: text, Relevant: rel}
}

func TestEvaluator_SingleQuery(t *testing.T) {
	qs := &dataset.QuerySet{Queries: []dataset.Query{judged("q1", "solar power", "A", "B", "C")}}
	s := &fakeSearcher{results: map[string][]string{"solar power": {"A", "X", "B"}}}

	r, err := New(Config{}).Run(context.Background(), qs, s, 10)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Processed)
	assert.Equal(t, 3, r.TotalRelevant)
	assert.Equal(t, 2, r.TotalHits)
	assert.InDelta(t, 2.0/3.0, r.OverallHitRate, 1e-12)
	assert.InDelta(t, 0.2, r.MicroPrecision, 1e-12)
	assert.InDelta(t, 2.0/3.0, r.MeanAverageRecall, 1e-12)
	assert.InDelta(t, 0.2, r.MeanAveragePrecision, 1e-12)
	assert.InDelta(t, 1.0, r.MRR, 1e-12)
	require.Len(t, r.PerQuery, 1)
	assert.Equal(t, "q1", r.PerQuery[0].QueryID)
}

func TestEvaluator_MicroVersusMacro(t *testing.T) {
	qs := &dataset.QuerySet{Queries: []dataset.Query{
		judged("q1", "first", "A"),
		judged("q2", "second", "B", "C", "D", "E"),
	}}
	s := &fakeSearcher{results: map[string][]string{"first": {"A"}}}

	r, err := New(Config{}).Run(context.Background(), qs, s, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, r.Processed)
	assert.Equal(t, 5, r.TotalRelevant)
	assert.Equal(t, 1, r.TotalHits)
	assert.InDelta(t, 0.2, r.OverallHitRate, 1e-12)
	assert.InDelta(t, 0.5, r.MeanAverageRecall, 1e-12)
	assert.InDelta(t, 0.05, r.MeanAveragePrecision, 1e-12)
	assert.InDelta(t, 0.05, r.MicroPrecision, 1e-12)
	assert.InDelta(t, 0.5, r.MRR, 1e-12)
}

func TestEvaluator_OnlyTopLimitCounts(t *testing.T) {
	ranked := []string{"x1", "x2", "x3", "A", "B"}
	qs := &dataset.QuerySet{Queries: []dataset.Query{judged("q1", "query", "A", "B")}}
	s := &fakeSearcher{results: map[string][]string{"query": ranked}}

	r, err := New(Config{}).Run(context.Background(), qs, s, 3)
	require.NoError(t, err)
	assert.Zero(t, r.TotalHits)
	assert.Zero(t, r.MRR)
}

func TestEvaluator_NormalizesBeforeSearch(t *testing.T) {
	qs := &dataset.QuerySet{Queries: []dataset.Query{judged("q1", "what is (x+y)?", "A")}}
	s := &fakeSearcher{results: map[string][]string{"what is  x y  ": {"A"}}}

	r, err := New(Config{}).Run(context.Background(), qs, s, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"what is  x y  "}, s.seen)
	assert.Equal(t, 1, r.TotalHits)
}

func TestEvaluator_FailedQueryCountsAsZeroHits(t *testing.T) {
	qs := &dataset.QuerySet{Queries: []dataset.Query{
		judged("q1", "good", "A"),
		judged("q2", "bad", "B", "C"),
	}}
	s := &fakeSearcher{
		results: map[string][]string{"good": {"A"}, "bad": {"B", "C"}},
		fail:    map[string]bool{"bad": true},
	}

	r, err := New(Config{}).Run(context.Background(), qs, s, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, r.Processed)
	assert.Equal(t, 1, r.Failures)
	assert.Equal(t, 3, r.TotalRelevant)
	assert.Equal(t, 1, r.TotalHits)
	assert.InDelta(t, 0.5, r.MeanAverageRecall, 1e-12)
	assert.NotEmpty(t, r.PerQuery[1].Error)
}

func TestEvaluator_Idempotent(t *testing.T) {
	qs := syntheticSet(50)
	s := syntheticSearcher(qs)

	first, err := New(Config{}).Run(context.Background(), qs, s, 10)
	require.NoError(t, err)
	second, err := New(Config{}).Run(context.Background(), qs, s, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvaluator_ConcurrencyDoesNotChangeResults(t *testing.T) {
	qs := syntheticSet(300)

	sequential, err := New(Config{Workers: 1}).Run(context.Background(), qs, syntheticSearcher(qs), 10)
	require.NoError(t, err)

	s := syntheticSearcher(qs)
	s.jitter = true
	concurrent, err := New(Config{Workers: 8}).Run(context.Background(), qs, s, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(300), s.calls.Load())
	assert.Equal(t, sequential, concurrent)
}

func TestEvaluator_Progress(t *testing.T) {
	qs := syntheticSet(450)
	var got []int
	cfg := Config{
		ProgressEvery: 200,
		OnProgress:    func(p Progress) { got = append(got, p.Processed) },
	}

	_, err := New(cfg).Run(context.Background(), qs, syntheticSearcher(qs), 10)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 201, 401}, got)
}

func TestEvaluator_CancelledContext(t *testing.T) {
	qs := syntheticSet(20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := New(Config{}).Run(ctx, qs, syntheticSearcher(qs), 10)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, r)
	assert.Zero(t, r.Processed)
}

// stallingSearcher answers known texts at once and blocks on everything else
// until the context is done.
type stallingSearcher struct {
	answers map[string][]string
}

func (s *stallingSearcher) Search(ctx context.Context, q string, limit int) ([]engine.Hit, error) {
	ids, ok := s.answers[q]
	if !ok {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	hits := make([]engine.Hit, 0, len(ids))
	for _, id := range ids {
		hits = append(hits, engine.Hit{DocID: id})
	}
	return hits, nil
}

func (s *stallingSearcher) Name() string { return "stalling" }
func (s *stallingSearcher) Close() error { return nil }

func TestEvaluator_CancelMidRunKeepsOnlyCompleted(t *testing.T) {
	qs := syntheticSet(10)
	s := &stallingSearcher{answers: map[string][]string{}}
	for _, q := range qs.Queries[:3] {
		for id := range q.Relevant {
			s.answers[q.Text] = append(s.answers[q.Text], id)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ev := New(Config{
		Workers:       4,
		ProgressEvery: 1,
		OnProgress: func(p Progress) {
			if p.Processed == 3 {
				cancel()
			}
		},
	})

	r, err := ev.Run(ctx, qs, s, 10)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, r)

	assert.Equal(t, 3, r.Processed)
	assert.Zero(t, r.Failures)
	assert.Equal(t, 9, r.TotalRelevant)
	assert.Equal(t, 9, r.TotalHits)
	assert.InDelta(t, 1.0, r.MeanAverageRecall, 1e-12)
	assert.InDelta(t, 1.0, r.OverallHitRate, 1e-12)
}

func TestEvaluator_InvalidLimit(t *testing.T) {
	_, err := New(Config{}).Run(context.Background(), syntheticSet(1), &fakeSearcher{}, 0)

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "eval.limit", verr.Field)
}

func TestEvaluator_EmptySet(t *testing.T) {
	r, err := New(Config{}).Run(context.Background(), &dataset.QuerySet{}, &fakeSearcher{}, 10)
	require.NoError(t, err)
	assert.Zero(t, r.Processed)
	assert.Zero(t, r.OverallHitRate)
	assert.Zero(t, r.MicroPrecision)
}

func TestAccumulator_RejectsDuplicates(t *testing.T) {
	acc := NewAccumulator(2, 10)
	o := Outcome{Index: 0, QueryID: "q1"}
	o.Score.Hits, o.Score.Relevant = 1, 2

	assert.True(t, acc.Add(o))
	assert.False(t, acc.Add(o))
	assert.False(t, acc.Add(Outcome{Index: 5}))

	r := acc.Report()
	assert.Equal(t, 1, r.Processed)
	assert.Equal(t, 1, r.TotalHits)
	assert.Equal(t, 2, r.TotalRelevant)
}

func syntheticSet(n int) *dataset.QuerySet {
	qs := &dataset.QuerySet{Name: "synthetic"}
	for i := 0; i < n; i++ {
		rel := []string{fmt.Sprintf("d%d", i), fmt.Sprintf("d%d", i+1), fmt.Sprintf("d%d", i+2)}
		qs.Queries = append(qs.Queries, judged(fmt.Sprintf("q%d", i), fmt.Sprintf("query %d", i), rel...))
	}
	return qs
}

// syntheticSearcher returns between zero and three relevant documents per
// query, mixed with misses, so per-query values vary.
func syntheticSearcher(qs *dataset.QuerySet) *fakeSearcher {
	results := make(map[string][]string, qs.Len())
	for i, q := range qs.Queries {
		var ranked []string
		for j := 0; j < i%4; j++ {
			ranked = append(ranked, fmt.Sprintf("miss%d", j), fmt.Sprintf("d%d", i+j))
		}
		results[q.Text] = ranked
	}
	return &fakeSearcher{results: results}
}
