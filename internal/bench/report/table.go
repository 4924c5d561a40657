package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

func WriteTable(r *Report, w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "\n=== FTS Benchmark: %s ===\n", r.Meta.Dataset)

	for i := range r.Jobs {
		jr := &r.Jobs[i]
		fmt.Fprintf(tw, "\n--- Job: %s (%s, %d queries) ---\n\n", jr.JobName, jr.Mode, jr.Queries)
		if len(jr.Levels) > 0 {
			writeLevelTable(tw, jr)
		}
		if len(jr.Eval) > 0 {
			writeEvalTable(tw, jr)
		}
	}

	tw.Flush()
}

func writeLevelTable(tw *tabwriter.Writer, jr *JobReport) {
	fmt.Fprintf(tw, "Throughput and Latency\n\n")

	header := []string{"Engine", "Concurrency", "QPS", "Mean(ms)", "p50(ms)", "p90(ms)", "p99(ms)", "Completed", "Failed"}
	writeHeader(tw, header)

	for _, e := range jr.Levels {
		if e.Error != "" && e.Concurrency == 0 {
			fmt.Fprintln(tw, strings.Join([]string{e.Engine, "ERR: " + e.Error}, "\t"))
			continue
		}
		row := []string{
			e.Engine,
			fmt.Sprintf("%d", e.Concurrency),
			fmtMetric(e.QPS, 1),
			fmtMetric(e.MeanMs, 2),
			fmtMetric(e.P50Ms, 2),
			fmtMetric(e.P90Ms, 2),
			fmtMetric(e.P99Ms, 2),
			fmt.Sprintf("%d", e.Completed),
			fmt.Sprintf("%d", e.Failed),
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	fmt.Fprintln(tw)
}

func writeEvalTable(tw *tabwriter.Writer, jr *JobReport) {
	fmt.Fprintf(tw, "Retrieval Quality\n\n")

	header := []string{"Engine", "Hits/Relevant", "HitRate", "MicroP", "MAP", "MAR", "MRR", "Failures"}
	writeHeader(tw, header)

	for _, e := range jr.Eval {
		row := []string{
			e.Engine,
			fmt.Sprintf("%d/%d", e.TotalHits, e.TotalRelevant),
			fmtMetric(e.OverallHitRate, 4),
			fmtMetric(e.MicroPrecision, 4),
			fmtMetric(e.MeanAveragePrecision, 4),
			fmtMetric(e.MeanAverageRecall, 4),
			fmtMetric(e.MRR, 4),
			fmt.Sprintf("%d/%d", e.Failures, e.Processed),
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	fmt.Fprintln(tw)
}

func writeHeader(tw *tabwriter.Writer, header []string) {
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintln(tw, strings.Join(sep, "\t"))
}

func fmtMetric(m Metric, decimals int) string {
	if !m.Defined() {
		return "-"
	}
	return fmt.Sprintf("%.*f", decimals, float64(m))
}
