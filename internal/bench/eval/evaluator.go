// Package eval measures retrieval quality of a search backend against
// ground-truth relevance judgments.
package eval

import (
	"context"
	"log/slog"
	"time"

	"github.com/DjordjeVuckovic/fts-bench/internal/apperr"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/dataset"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/engine"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/metrics"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/query"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/telemetry"
	"golang.org/x/sync/errgroup"
)

const DefaultProgressEvery = 200

// Progress is a snapshot emitted while an evaluation is running.
type Progress struct {
	Processed     int
	Total         int
	RunningRecall float64
}

type Config struct {
	Engine        string
	Workers       int
	ProgressEvery int
	OnProgress    func(Progress)
	Recorder      telemetry.Recorder
}

type Evaluator struct {
	cfg      Config
	recorder telemetry.Recorder
}

func New(cfg Config) *Evaluator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	return &Evaluator{cfg: cfg, recorder: telemetry.OrNop(cfg.Recorder)}
}

// Run issues every query of qs once and scores the top-limit results. A
// failed query counts as processed with zero hits. On parent context
// cancellation the partial report, covering only queries that completed
// before it, is returned together with ctx.Err().
func (e *Evaluator) Run(ctx context.Context, qs *dataset.QuerySet, s engine.Searcher, limit int) (*Report, error) {
	if limit <= 0 {
		return nil, apperr.NewFieldValidation("eval.limit", "must be positive, got %d", limit)
	}

	n := qs.Len()
	acc := NewAccumulator(n, limit)
	outcomes := make(chan Outcome, e.cfg.Workers)

	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		for o := range outcomes {
			if !acc.Add(o) {
				continue
			}
			e.progress(acc, n)
		}
	}()

	var eg errgroup.Group
	eg.SetLimit(e.cfg.Workers)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			o := e.evaluate(ctx, s, i, &qs.Queries[i], limit)
			// cut off by cancellation, not answered by the backend
			if o.Failed() && ctx.Err() != nil {
				return nil
			}
			outcomes <- o
			return nil
		})
	}
	_ = eg.Wait()
	close(outcomes)
	<-aggDone

	report := acc.Report()
	report.Engine = e.cfg.Engine
	slog.Info("Evaluation finished",
		"engine", e.cfg.Engine,
		"processed", report.Processed,
		"failures", report.Failures,
		"hit_rate", report.OverallHitRate,
		"mean_recall", report.MeanAverageRecall,
		"mean_precision", report.MeanAveragePrecision,
	)
	return report, ctx.Err()
}

func (e *Evaluator) evaluate(ctx context.Context, s engine.Searcher, idx int, q *dataset.Query, limit int) Outcome {
	start := time.Now()
	hits, err := s.Search(ctx, query.Normalize(q.Text), limit)
	e.recorder.ObserveQuery(telemetry.PhaseEval, e.cfg.Engine, time.Since(start), err)

	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("query failed", "engine", e.cfg.Engine, "query", q.ID, "error", err)
		}
		return Outcome{
			Index:   idx,
			QueryID: q.ID,
			Score:   metrics.QueryScore{Relevant: len(q.Relevant)},
			Err:     err,
		}
	}

	return Outcome{
		Index:   idx,
		QueryID: q.ID,
		Score:   metrics.Score(engine.DocIDs(hits), q.Relevant, limit),
	}
}

func (e *Evaluator) progress(acc *Accumulator, total int) {
	processed := acc.Processed()
	if (processed-1)%e.cfg.ProgressEvery != 0 {
		return
	}
	p := Progress{Processed: processed, Total: total, RunningRecall: acc.RunningRecall()}
	slog.Info("Evaluation progress", "engine", e.cfg.Engine, "processed", p.Processed, "total", p.Total, "avg_recall", p.RunningRecall)
	if e.cfg.OnProgress != nil {
		e.cfg.OnProgress(p)
	}
}
