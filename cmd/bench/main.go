package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DjordjeVuckovic/fts-bench/internal/bench/dataset"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/engine"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/report"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/runner"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/spec"
	"github.com/DjordjeVuckovic/fts-bench/internal/bench/telemetry"
	"github.com/DjordjeVuckovic/fts-bench/internal/server"
	"github.com/DjordjeVuckovic/fts-bench/pkg/config/env"
	pkgserver "github.com/DjordjeVuckovic/fts-bench/pkg/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := env.LoadDotEnv(env.DefaultPath); err != nil {
		slog.Warn("Failed to load .env", "error", err)
	}

	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	level, err := cfg.slogLevel()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(2)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Benchmark failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliConfig) error {
	slog.Info("Starting benchmark", "config", cfg.String())

	bs, err := cfg.benchSpec()
	if err != nil {
		return err
	}

	qs, err := dataset.Load(dataset.Config{
		DataDir: bs.Dataset.DataDir,
		Name:    bs.Dataset.Name,
		Split:   bs.Dataset.Split,
	})
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := telemetry.NewPrometheusRecorder(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	searchers, cleanup, err := engine.CreateFromSpec(ctx, bs.Engines)
	if err != nil {
		return fmt.Errorf("create searchers: %w", err)
	}
	defer cleanup()

	health := pkgserver.NewNamedHealthChecker()
	for name, s := range searchers {
		if hc, ok := s.(pkgserver.HealthChecker); ok {
			health.Add(name, hc)
		}
	}
	for name, ok := range health.Status(ctx) {
		if !ok {
			slog.Warn("Engine is not healthy, its queries will likely fail", "engine", name)
		}
	}

	if cfg.MetricsAddr != "" {
		stopServer, err := startMetricsServer(ctx, cfg.MetricsAddr, reg, health)
		if err != nil {
			return err
		}
		defer stopServer()
	}

	r := runner.New(runner.Config{
		ProgressInterval: runner.DefaultProgressInterval,
		Recorder:         recorder,
	})
	result, runErr := r.RunAll(ctx, bs, qs, searchers)
	if result != nil && len(result.Jobs) > 0 {
		if err := outputReport(result, bs, cfg.Output); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}

func startMetricsServer(
	ctx context.Context,
	addr string,
	reg *prometheus.Registry,
	health *pkgserver.NamedHealthChecker,
) (func(), error) {
	srvCfg, err := server.NewConfig(addr)
	if err != nil {
		return nil, err
	}
	srv := server.NewServer(srvCfg, reg, health)

	srvCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Start(srvCtx); err != nil {
			slog.Error("Metrics server failed", "error", err)
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

func outputReport(result *runner.BenchmarkResult, bs *spec.BenchSpec, outputPath string) error {
	rpt := report.Generate(result, bs)
	report.WriteTable(rpt, os.Stdout)

	if outputPath != "" {
		if err := report.WriteJSON(rpt, outputPath); err != nil {
			return err
		}
		slog.Info("Report written", "path", outputPath, "run_id", rpt.Meta.RunID)
	}
	return nil
}
