package runner

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/DjordjeVuckovic/fts-bench/internal/apperr"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/dataset"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/engine"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/query"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/telemetry"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const maxLoggedFailures = 5

// LoadConfig tunes a LoadGenerator. The zero value runs without warmup,
// throttling or telemetry.
type LoadConfig struct {
	Engine           string
	Warmup           int
	MaxQPS           float64
	ProgressInterval time.Duration
	Recorder         telemetry.Recorder
}

// LoadGenerator replays a query set against one searcher at a series of
// concurrency levels and reports throughput and latency per level.
type LoadGenerator struct {
	cfg      LoadConfig
	recorder telemetry.Recorder
}

func NewLoadGenerator(cfg LoadConfig) *LoadGenerator {
	return &LoadGenerator{cfg: cfg, recorder: telemetry.OrNop(cfg.Recorder)}
}

// Run executes every query of qs exactly once per level. Levels are run in
// the given order, each with fresh state. On parent context cancellation the
// levels completed so far are returned together with ctx.Err().
func (g *LoadGenerator) Run(
	ctx context.Context,
	qs *dataset.QuerySet,
	s engine.Searcher,
	levels []int,
	limit int,
) ([]LevelResult, error) {
	if err := validateLevels(levels, limit); err != nil {
		return nil, err
	}

	var texts []string
	if qs.Len() > 0 {
		texts = query.NormalizeAll(qs.Texts())
	}

	if err := g.warmup(ctx, texts, s, limit); err != nil {
		return nil, err
	}

	results := make([]LevelResult, 0, len(levels))
	for _, c := range levels {
		slog.Info("Starting load level", "engine", g.cfg.Engine, "concurrency", c, "queries", len(texts))

		res, err := g.runLevel(ctx, texts, s, c, limit)
		if err != nil {
			return results, err
		}
		results = append(results, res)

		slog.Info("Load level finished",
			"engine", g.cfg.Engine,
			"concurrency", c,
			"qps", res.QPS,
			"mean_ms", res.Latency.MeanMs(),
			"p50_ms", res.Latency.P50Ms(),
			"p90_ms", res.Latency.P90Ms(),
			"p99_ms", res.Latency.P99Ms(),
			"failed", res.Failed,
		)
	}
	return results, nil
}

func validateLevels(levels []int, limit int) error {
	if len(levels) == 0 {
		return apperr.NewFieldValidation("load.concurrency", "at least one level is required")
	}
	for _, c := range levels {
		if c <= 0 {
			return apperr.NewFieldValidation("load.concurrency", "level must be positive, got %d", c)
		}
	}
	if limit <= 0 {
		return apperr.NewFieldValidation("load.limit", "must be positive, got %d", limit)
	}
	return nil
}

func (g *LoadGenerator) warmup(ctx context.Context, texts []string, s engine.Searcher, limit int) error {
	n := min(g.cfg.Warmup, len(texts))
	if n <= 0 {
		return nil
	}
	slog.Info("Warming up", "engine", g.cfg.Engine, "queries", n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		_, err := s.Search(ctx, texts[i], limit)
		g.recorder.ObserveQuery(telemetry.PhaseWarmup, g.cfg.Engine, time.Since(start), err)
	}
	return nil
}

func (g *LoadGenerator) runLevel(
	ctx context.Context,
	texts []string,
	s engine.Searcher,
	concurrency int,
	limit int,
) (LevelResult, error) {
	jobs := make(chan int, len(texts))
	for i := range texts {
		jobs <- i
	}
	close(jobs)

	var limiter *rate.Limiter
	if g.cfg.MaxQPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(g.cfg.MaxQPS), 1)
	}

	buffers := make([][]time.Duration, concurrency)
	var done, failed atomic.Int64

	stopProgress := g.startProgress(concurrency, len(texts), &done)
	defer stopProgress()

	var eg errgroup.Group
	start := time.Now()
	for w := 0; w < concurrency; w++ {
		eg.Go(func() error {
			local := make([]time.Duration, 0, len(texts)/concurrency+1)
			defer func() { buffers[w] = local }()

			for i := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return err
					}
				}

				t0 := time.Now()
				_, err := s.Search(ctx, texts[i], limit)
				elapsed := time.Since(t0)

				g.recorder.ObserveQuery(telemetry.PhaseBench, g.cfg.Engine, elapsed, err)
				done.Add(1)
				if err != nil {
					if n := failed.Add(1); n <= maxLoggedFailures {
						slog.Warn("query failed", "engine", g.cfg.Engine, "concurrency", concurrency, "index", i, "error", err)
					}
					continue
				}
				local = append(local, elapsed)
			}
			return nil
		})
	}
	err := eg.Wait()
	wall := time.Since(start)
	if err != nil {
		return LevelResult{}, err
	}

	var merged []time.Duration
	for _, b := range buffers {
		merged = append(merged, b...)
	}

	res := LevelResult{
		Concurrency: concurrency,
		Queries:     len(texts),
		Completed:   len(merged),
		Failed:      int(failed.Load()),
		Elapsed:     wall,
		Latency:     ComputeLatencyStats(merged),
	}
	if wall > 0 && len(texts) > 0 {
		res.QPS = float64(len(texts)) / wall.Seconds()
		res.SuccessQPS = float64(len(merged)) / wall.Seconds()
	}
	return res, nil
}

func (g *LoadGenerator) startProgress(concurrency, total int, done *atomic.Int64) func() {
	if g.cfg.ProgressInterval <= 0 {
		return func() {}
	}
	ticker := time.NewTicker(g.cfg.ProgressInterval)
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				slog.Info("Load progress", "engine", g.cfg.Engine, "concurrency", concurrency, "done", done.Load(), "total", total)
			case <-stop:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(stop)
	}
}
