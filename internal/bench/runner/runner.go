package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DjordjeVuckovic/fts-bench/internal/bench/dataset"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/engine"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/eval"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/spec"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/telemetry"
)

// Runner executes the jobs of a bench spec against a loaded query set.
type Runner struct {
	config Config
}

func New(cfg Config) *Runner {
	cfg.Recorder = telemetry.OrNop(cfg.Recorder)
	return &Runner{config: cfg}
}

func (r *Runner) RunAll(
	ctx context.Context,
	bs *spec.BenchSpec,
	qs *dataset.QuerySet,
	searchers map[string]engine.Searcher,
) (*BenchmarkResult, error) {
	br := &BenchmarkResult{Dataset: qs.Name, StartedAt: time.Now()}
	defer func() { br.FinishedAt = time.Now() }()

	for _, job := range bs.Jobs {
		jr, err := r.RunJob(ctx, bs, job, qs, searchers)
		if jr != nil {
			br.Jobs = append(br.Jobs, jr)
		}
		if err != nil {
			return br, fmt.Errorf("run job %q: %w", job.Name, err)
		}
	}
	return br, nil
}

// RunJob runs one job against each of its engines in declaration order. An
// engine failure is recorded on its result and the job moves on; only
// context cancellation aborts the job.
func (r *Runner) RunJob(
	ctx context.Context,
	bs *spec.BenchSpec,
	job spec.Job,
	qs *dataset.QuerySet,
	searchers map[string]engine.Searcher,
) (*JobResult, error) {
	jobSearchers := make([]engine.Searcher, 0, len(job.Engines))
	for _, name := range job.Engines {
		s, ok := searchers[name]
		if !ok {
			return nil, fmt.Errorf("searcher %q not found", name)
		}
		jobSearchers = append(jobSearchers, s)
	}

	jr := &JobResult{JobName: job.Name, Mode: job.Mode}
	for i, name := range job.Engines {
		var er EngineResult
		var err error
		switch job.Mode {
		case spec.ModeEval:
			er, jr.Queries, err = r.runEval(ctx, bs.Eval, name, qs, jobSearchers[i])
		default:
			er, jr.Queries, err = r.runBench(ctx, bs.Load, name, qs, jobSearchers[i])
		}
		jr.Engines = append(jr.Engines, er)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return jr, err
			}
			slog.Error("engine run failed", "job", job.Name, "engine", name, "error", err)
		}
	}
	return jr, nil
}

func (r *Runner) runBench(
	ctx context.Context,
	cfg spec.LoadConfig,
	name string,
	qs *dataset.QuerySet,
	s engine.Searcher,
) (EngineResult, int, error) {
	subset := qs.Truncate(cfg.Queries)
	gen := NewLoadGenerator(LoadConfig{
		Engine:           name,
		Warmup:           cfg.Warmup,
		MaxQPS:           cfg.MaxQPS,
		ProgressInterval: r.config.ProgressInterval,
		Recorder:         r.config.Recorder,
	})

	levels, err := gen.Run(ctx, subset, engine.WithTimeout(s, cfg.Timeout), cfg.Concurrency, cfg.Limit)
	return EngineResult{Engine: name, Levels: levels, Error: err}, subset.Len(), err
}

func (r *Runner) runEval(
	ctx context.Context,
	cfg spec.EvalConfig,
	name string,
	qs *dataset.QuerySet,
	s engine.Searcher,
) (EngineResult, int, error) {
	subset := qs.Truncate(cfg.Queries)
	ev := eval.New(eval.Config{
		Engine:        name,
		Workers:       cfg.Workers,
		ProgressEvery: cfg.ProgressEvery,
		Recorder:      r.config.Recorder,
	})

	report, err := ev.Run(ctx, subset, engine.WithTimeout(s, cfg.Timeout), cfg.Limit)
	return EngineResult{Engine: name, Eval: report, Error: err}, subset.Len(), err
}
