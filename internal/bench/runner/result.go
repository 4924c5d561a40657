package runner

import (
	"time"

	"github.com/DjordjeVuckovic/fts-bench/internal/bench/eval"
)

// LevelResult is the throughput and latency of one concurrency level.
// Failed queries are excluded from Latency and counted in Failed.
type LevelResult struct {
	Concurrency int
	Queries     int
	Completed   int
	Failed      int
	Elapsed     time.Duration
	QPS         float64
	SuccessQPS  float64
	Latency     LatencyStats
}

type EngineResult struct {
	Engine string
	Levels []LevelResult
	Eval   *eval.Report
	Error  error
}

type JobResult struct {
	JobName string
	Mode    string
	Queries int
	Engines []EngineResult
}

type BenchmarkResult struct {
	Dataset    string
	StartedAt  time.Time
	FinishedAt time.Time
	Jobs       []*JobResult
}

func (br *BenchmarkResult) AllEngineNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, jr := range br.Jobs {
		for _, er := range jr.Engines {
			if !seen[er.Engine] {
				seen[er.Engine] = true
				names = append(names, er.Engine)
			}
		}
	}
	return names
}

func (r LevelResult) MeanMs() float64 { return r.Latency.MeanMs() }
func (r LevelResult) P50Ms() float64 { return r.Latency.P50Ms() }
func (r LevelResult) P90Ms() float64 { return r.Latency.P90Ms() }
func (r LevelResult) P99Ms() float64 { return r.Latency.P99Ms() }
