package runner

import (
	"math"
	"slices"
	"time"
)

// ReportedPercentiles are the latency percentiles computed for every level.
var ReportedPercentiles = []int{50, 90, 99}

type LatencyStats struct {
	Min         time.Duration         `json:"min"`
	Max         time.Duration         `json:"max"`
	Mean        time.Duration         `json:"mean"`
	Stddev      time.Duration         `json:"stddev"`
	Percentiles map[int]time.Duration `json:"percentiles"`
	SampleCount int                   `json:"sample_count"`

	meanNs float64
}

// ComputeLatencyStats summarizes a latency sample. The input is not modified.
func ComputeLatencyStats(durations []time.Duration) LatencyStats {
	if len(durations) == 0 {
		return LatencyStats{Percentiles: make(map[int]time.Duration)}
	}

	sorted := slices.Clone(durations)
	slices.Sort(sorted)

	stats := LatencyStats{
		Min:         sorted[0],
		Max:         sorted[len(sorted)-1],
		Percentiles: make(map[int]time.Duration, len(ReportedPercentiles)),
		SampleCount: len(sorted),
	}

	var sum float64
	for _, d := range sorted {
		sum += float64(d)
	}
	stats.meanNs = sum / float64(len(sorted))
	stats.Mean = time.Duration(stats.meanNs)

	if len(sorted) > 1 {
		var sumSquares float64
		for _, d := range sorted {
			diff := float64(d) - stats.meanNs
			sumSquares += diff * diff
		}
		stats.Stddev = time.Duration(math.Sqrt(sumSquares / float64(len(sorted)-1)))
	}

	for _, p := range ReportedPercentiles {
		stats.Percentiles[p] = Percentile(sorted, p)
	}

	return stats
}

// Percentile returns the nearest-rank p-th percentile of an ascending sample:
// the element at index N*p/100 - 1, clamped to the bounds of the sample.
func Percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted)*p/100 - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

func (s LatencyStats) IsZero() bool {
	return s.SampleCount == 0
}

// MeanMs is the mean latency in milliseconds, NaN for an empty sample.
func (s LatencyStats) MeanMs() float64 {
	if s.IsZero() {
		return math.NaN()
	}
	return s.meanNs / float64(time.Millisecond)
}

// PercentileMs is the p-th percentile in milliseconds, NaN for an empty
// sample or a percentile that was not computed.
func (s LatencyStats) PercentileMs(p int) float64 {
	d, ok := s.Percentiles[p]
	if s.IsZero() || !ok {
		return math.NaN()
	}
	return float64(d) / float64(time.Millisecond)
}

func (s LatencyStats) P50Ms() float64 { return s.PercentileMs(50) }
func (s LatencyStats) P90Ms() float64 { return s.PercentileMs(90) }
func (s LatencyStats) P99Ms() float64 { return s.PercentileMs(99) }
