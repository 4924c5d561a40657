package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/fts-bench/internal/bench/dataset"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/spec"
	"github.com/DjordjeVuckovic/fts-bench/pkg/config/env"
	"github.com/DjordjeVuckovic/fts-bench/pkg/stringsutil"
)

type cliConfig struct {
	Mode        string
	SpecPath    string
	Dataset     string
	DataDir     string
	Split       string
	Engines     string
	EsAddresses string
	EsIndex     string
	PgConnStr   string
	APIURL      string
	Concurrency string
	Queries     int
	Limit       int
	Timeout     time.Duration
	Warmup      int
	MaxQPS      float64
	EvalWorkers int
	Output      string
	MetricsAddr string
	LogLevel    string

	// set holds the names of flags given explicitly on the command line.
	set map[string]bool
}

func parseFlags(args []string, output io.Writer) (cliConfig, error) {
	cfg := cliConfig{}
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.Mode, "mode", spec.ModeBench, "Run mode: bench (throughput/latency) or eval (retrieval quality)")
	fs.StringVar(&cfg.SpecPath, "spec", "", "Path to bench spec YAML (multi-job mode)")
	fs.StringVar(&cfg.Dataset, "dataset", "", "Dataset name, e.g. scifact (env DATASET)")
	fs.StringVar(&cfg.DataDir, "data-dir", "", "Root directory holding datasets (env DATA_DIR, default data)")
	fs.StringVar(&cfg.Split, "split", dataset.DefaultSplit, "Qrels split to evaluate against")
	fs.StringVar(&cfg.Engines, "engine", "", "Engines to run in quick mode, comma-separated: elasticsearch,postgres,api (default: every configured one)")
	fs.StringVar(&cfg.EsAddresses, "es-addresses", "", "Elasticsearch addresses, comma-separated (env ES_ADDRESSES)")
	fs.StringVar(&cfg.EsIndex, "es-index", "", "Elasticsearch index name (env ES_INDEX)")
	fs.StringVar(&cfg.PgConnStr, "pg", "", "PostgreSQL connection string (env PG_CONNECTION_STRING)")
	fs.StringVar(&cfg.APIURL, "api-url", "", "Base URL of an HTTP search API (env API_URL)")
	fs.StringVar(&cfg.Concurrency, "concurrency", "4,8,16", "Concurrency levels, comma-separated")
	fs.IntVar(&cfg.Queries, "queries", 0, "Maximum number of queries (default 10000 for bench, 100000 for eval)")
	fs.IntVar(&cfg.Limit, "limit", spec.DefaultLimit, "Results requested per query")
	fs.DurationVar(&cfg.Timeout, "timeout", spec.DefaultTimeout, "Per-query timeout")
	fs.IntVar(&cfg.Warmup, "warmup", 0, "Warmup queries issued before the first level")
	fs.Float64Var(&cfg.MaxQPS, "max-qps", 0, "Upper bound on request rate per level, 0 for unbounded")
	fs.IntVar(&cfg.EvalWorkers, "eval-workers", spec.DefaultEvalWorkers, "Concurrent queries during evaluation")
	fs.StringVar(&cfg.Output, "output", "", "Output path for the JSON report")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address while running, e.g. :9090")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}

	cfg.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })

	cfg.fillFromEnv()
	return cfg, nil
}

// fillFromEnv fills connection and dataset settings not given as flags.
func (c *cliConfig) fillFromEnv() {
	c.Dataset = firstSet(c.Dataset, env.StringOr("DATASET", ""))
	c.DataDir = firstSet(c.DataDir, env.StringOr("DATA_DIR", dataset.DefaultDataDir))
	c.EsAddresses = firstSet(c.EsAddresses, env.StringOr("ES_ADDRESSES", ""))
	c.EsIndex = firstSet(c.EsIndex, env.StringOr("ES_INDEX", ""))
	c.PgConnStr = firstSet(c.PgConnStr, env.StringOr("PG_CONNECTION_STRING", ""))
	c.APIURL = firstSet(c.APIURL, env.StringOr("API_URL", ""))
}

func firstSet(flagValue, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	return fallback
}

func (c cliConfig) parseConcurrency() ([]int, error) {
	parts := stringsutil.SplitList(c.Concurrency)
	vals := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid concurrency level %q: %w", p, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("concurrency level must be positive, got %d", v)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func (c cliConfig) slogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// benchSpec loads the spec file when given, or builds a single-job spec
// from flags. Explicit flags override spec file values.
func (c cliConfig) benchSpec() (*spec.BenchSpec, error) {
	if c.SpecPath == "" {
		return c.buildQuickSpec()
	}

	bs, err := spec.LoadFromFile(c.SpecPath)
	if err != nil {
		return nil, fmt.Errorf("load spec %s: %w", c.SpecPath, err)
	}
	if err := c.applyOverrides(bs, false); err != nil {
		return nil, err
	}
	if err := spec.Validate(bs); err != nil {
		return nil, err
	}
	return bs, nil
}

func (c cliConfig) buildQuickSpec() (*spec.BenchSpec, error) {
	available := make(map[string]spec.Engine)
	if c.EsAddresses != "" {
		available[spec.EngineElasticsearch] = spec.Engine{
			Type:       spec.EngineElasticsearch,
			Connection: c.EsAddresses,
			Index:      c.EsIndex,
		}
	}
	if c.PgConnStr != "" {
		available[spec.EnginePostgres] = spec.Engine{Type: spec.EnginePostgres, Connection: c.PgConnStr}
	}
	if c.APIURL != "" {
		available[spec.EngineAPI] = spec.Engine{Type: spec.EngineAPI, Connection: c.APIURL}
	}

	var names []string
	if c.Engines == "" {
		for _, t := range []string{spec.EngineElasticsearch, spec.EnginePostgres, spec.EngineAPI} {
			if _, ok := available[t]; ok {
				names = append(names, t)
			}
		}
	} else {
		for _, name := range stringsutil.SplitList(c.Engines) {
			if _, ok := available[name]; !ok {
				return nil, fmt.Errorf("engine %q requested but its connection is not configured", name)
			}
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("quick mode requires -es-addresses, -pg and/or -api-url")
	}

	engines := make(map[string]spec.Engine, len(names))
	for _, name := range names {
		engines[name] = available[name]
	}

	bs := &spec.BenchSpec{
		Dataset: spec.DatasetConfig{Name: c.Dataset, DataDir: c.DataDir, Split: c.Split},
		Engines: engines,
		Jobs:    []spec.Job{{Name: "quick-" + c.Mode, Mode: c.Mode, Engines: names}},
	}
	if err := c.applyOverrides(bs, true); err != nil {
		return nil, err
	}
	if err := spec.Validate(bs); err != nil {
		return nil, err
	}
	return bs, nil
}

// applyOverrides copies flag values onto bs. Run settings are copied only
// when given explicitly, or always when all is true.
func (c cliConfig) applyOverrides(bs *spec.BenchSpec, all bool) error {
	has := func(name string) bool { return all || c.set[name] }

	if c.set["dataset"] || bs.Dataset.Name == "" {
		bs.Dataset.Name = firstSet(c.Dataset, bs.Dataset.Name)
	}
	if c.set["data-dir"] || bs.Dataset.DataDir == "" {
		bs.Dataset.DataDir = c.DataDir
	}
	if c.set["split"] || bs.Dataset.Split == "" {
		bs.Dataset.Split = c.Split
	}

	if has("concurrency") {
		levels, err := c.parseConcurrency()
		if err != nil {
			return err
		}
		bs.Load.Concurrency = levels
	}
	if has("queries") {
		bs.Load.Queries = c.Queries
		bs.Eval.Queries = c.Queries
	}
	if has("limit") {
		bs.Load.Limit = c.Limit
		bs.Eval.Limit = c.Limit
	}
	if has("timeout") {
		bs.Load.Timeout = c.Timeout
		bs.Eval.Timeout = c.Timeout
	}
	if has("warmup") {
		bs.Load.Warmup = c.Warmup
	}
	if has("max-qps") {
		bs.Load.MaxQPS = c.MaxQPS
	}
	if has("eval-workers") {
		bs.Eval.Workers = c.EvalWorkers
	}
	return nil
}

func (c cliConfig) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mode=%s dataset=%s data-dir=%s split=%s", c.Mode, c.Dataset, c.DataDir, c.Split)
	if c.SpecPath != "" {
		fmt.Fprintf(&b, " spec=%s", c.SpecPath)
	}
	return b.String()
}
