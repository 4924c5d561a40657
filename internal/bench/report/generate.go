package report

import (
	"net/url"

	"github.com/DjordjeVuckovic/fts-bench/internal/bench/runner"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/spec"
	"github.com/google/uuid"
)

// Generate turns a benchmark result into a report. bs may be nil, in which
// case engine metadata is omitted.
func Generate(br *runner.BenchmarkResult, bs *spec.BenchSpec) *Report {
	r := &Report{
		Meta: BenchMeta{
			RunID:       uuid.NewString(),
			Timestamp:   br.StartedAt,
			Duration:    Metric(br.FinishedAt.Sub(br.StartedAt).Seconds()),
			Dataset:     br.Dataset,
			Engines:     make(map[string]EngineInfo),
			Environment: NewEnvironmentInfo(),
		},
	}

	if bs != nil {
		for _, name := range br.AllEngineNames() {
			eng, ok := bs.Engines[name]
			if !ok {
				continue
			}
			r.Meta.Engines[name] = EngineInfo{
				Type:       eng.Type,
				Connection: redact(eng.Connection),
				Index:      firstNonEmpty(eng.Index, eng.Table),
			}
		}
	}

	for _, jr := range br.Jobs {
		r.Jobs = append(r.Jobs, jobReport(jr))
	}
	return r
}

func jobReport(jr *runner.JobResult) JobReport {
	out := JobReport{JobName: jr.JobName, Mode: jr.Mode, Queries: jr.Queries}

	for _, er := range jr.Engines {
		errMsg := ""
		if er.Error != nil {
			errMsg = er.Error.Error()
		}

		if er.Eval != nil {
			ev := er.Eval
			out.Eval = append(out.Eval, EvalEntry{
				Engine:               er.Engine,
				Limit:                ev.Limit,
				Processed:            ev.Processed,
				Failures:             ev.Failures,
				TotalRelevant:        ev.TotalRelevant,
				TotalHits:            ev.TotalHits,
				OverallHitRate:       Metric(ev.OverallHitRate),
				MicroPrecision:       Metric(ev.MicroPrecision),
				MeanAveragePrecision: Metric(ev.MeanAveragePrecision),
				MeanAverageRecall:    Metric(ev.MeanAverageRecall),
				MRR:                  Metric(ev.MRR),
				Error:                errMsg,
			})
			continue
		}

		if len(er.Levels) == 0 && errMsg != "" {
			out.Levels = append(out.Levels, LevelEntry{Engine: er.Engine, Error: errMsg})
			continue
		}
		for _, lvl := range er.Levels {
			out.Levels = append(out.Levels, LevelEntry{
				Engine:      er.Engine,
				Concurrency: lvl.Concurrency,
				QPS:         Metric(lvl.QPS),
				SuccessQPS:  Metric(lvl.SuccessQPS),
				MeanMs:      Metric(lvl.Latency.MeanMs()),
				P50Ms:       Metric(lvl.Latency.P50Ms()),
				P90Ms:       Metric(lvl.Latency.P90Ms()),
				P99Ms:       Metric(lvl.Latency.P99Ms()),
				Completed:   lvl.Completed,
				Failed:      lvl.Failed,
				Error:       errMsg,
			})
		}
	}
	return out
}

// redact hides credentials embedded in URL-style connection strings.
func redact(conn string) string {
	u, err := url.Parse(conn)
	if err != nil || u.User == nil {
		return conn
	}
	return u.Redacted()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
