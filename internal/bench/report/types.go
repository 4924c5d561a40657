package report

import (
	"encoding/json"
	"math"
	"runtime"
	"time"

	"github.com/DjordjeVuckovic/fts-bench/pkg/utils"
)

const metricDecimals = 4

type Report struct {
	Meta BenchMeta   `json:"meta"`
	Jobs []JobReport `json:"jobs"`
}

type BenchMeta struct {
	RunID       string                `json:"run_id"`
	Timestamp   time.Time             `json:"timestamp"`
	Duration    Metric                `json:"duration_seconds"`
	Dataset     string                `json:"dataset"`
	Engines     map[string]EngineInfo `json:"engines"`
	Environment EnvironmentInfo       `json:"environment"`
}

type EngineInfo struct {
	Type       string `json:"type"`
	Connection string `json:"connection,omitempty"`
	Index      string `json:"index,omitempty"`
}

type EnvironmentInfo struct {
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	NumCPU    int    `json:"num_cpu"`
}

func NewEnvironmentInfo() EnvironmentInfo {
	return EnvironmentInfo{
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		NumCPU:    runtime.NumCPU(),
	}
}

type JobReport struct {
	JobName string       `json:"job"`
	Mode    string       `json:"mode"`
	Queries int          `json:"queries"`
	Levels  []LevelEntry `json:"levels,omitempty"`
	Eval    []EvalEntry  `json:"eval,omitempty"`
}

type LevelEntry struct {
	Engine      string `json:"engine"`
	Concurrency int    `json:"concurrency"`
	QPS         Metric `json:"qps"`
	SuccessQPS  Metric `json:"success_qps"`
	MeanMs      Metric `json:"mean_ms"`
	P50Ms       Metric `json:"p50_ms"`
	P90Ms       Metric `json:"p90_ms"`
	P99Ms       Metric `json:"p99_ms"`
	Completed   int    `json:"completed"`
	Failed      int    `json:"failed"`
	Error       string `json:"error,omitempty"`
}

type EvalEntry struct {
	Engine               string `json:"engine"`
	Limit                int    `json:"limit"`
	Processed            int    `json:"processed"`
	Failures             int    `json:"failures"`
	TotalRelevant        int    `json:"total_relevant"`
	TotalHits            int    `json:"total_hits"`
	OverallHitRate       Metric `json:"overall_hit_rate"`
	MicroPrecision       Metric `json:"micro_precision"`
	MeanAveragePrecision Metric `json:"mean_average_precision"`
	MeanAverageRecall    Metric `json:"mean_average_recall"`
	MRR                  Metric `json:"mrr"`
	Error                string `json:"error,omitempty"`
}

// Metric is a float reported with fixed precision. NaN and infinities
// encode as JSON null.
type Metric float64

func (m Metric) Defined() bool {
	f := float64(m)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(utils.RoundDecimal(float64(m), metricDecimals))
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*m = Metric(f)
	return nil
}
