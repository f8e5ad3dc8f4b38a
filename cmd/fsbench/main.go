package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/clusterfs/fsbench/internal/backend"
	"github.com/clusterfs/fsbench/internal/bench"
	"github.com/clusterfs/fsbench/internal/config"
	"github.com/clusterfs/fsbench/internal/metrics"
	"github.com/clusterfs/fsbench/internal/output"
	"github.com/clusterfs/fsbench/internal/profile"
	"github.com/clusterfs/fsbench/internal/tracing"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	params, err := cfg.BenchParams()
	if err != nil {
		return err
	}
	if params.RunID == "" {
		params.RunID = ulid.Make().String()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := backend.NewPool(ctx, cfg.BackendConfig(), cfg.Clients)
	if err != nil {
		return err
	}
	defer pool.Close()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		_ = provider.Shutdown(sctx)
	}()

	var exporter *metrics.Exporter
	if cfg.MetricsAddr != "" {
		exporter = metrics.NewExporter()
		exporter.Serve(cfg.MetricsAddr)
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			_ = exporter.Shutdown(sctx)
		}()
	}

	var profileSrc profile.Source
	if cfg.ProfileLog != "" {
		profileSrc = &profile.AgentLog{Path: cfg.ProfileLog}
	}

	logf := func(format string, fmtArgs ...any) {
		fmt.Fprintf(os.Stderr, "[fsbench] "+format+"\n", fmtArgs...)
	}

	driver, err := bench.NewDriver(bench.DriverOptions{
		Params:   params,
		Backends: pool.Backends(),
		Profile:  profileSrc,
		Observer: &trialObserver{
			operation: params.Operation.String(),
			exporter:  exporter,
			tracer:    provider.Tracer(),
		},
		Logf: logf,
	})
	if err != nil {
		return err
	}

	task, runErr := driver.Run(ctx)
	if task != nil {
		if cfg.JSONOutput {
			if err := output.PrintJSONReport(os.Stdout, task); err != nil {
				return err
			}
		} else {
			output.PrintReport(os.Stdout, task)
		}
	}
	if runErr != nil {
		return runErr
	}

	if task != nil {
		total := 0
		for _, res := range task.Results {
			total += len(res.Errors)
		}
		if total > 0 {
			return fmt.Errorf("%d worker errors", total)
		}
	}
	return nil
}

// trialObserver fans trial progress out to the metrics exporter and tracer.
// Trials run strictly one at a time, so holding the current span is safe.
type trialObserver struct {
	operation string
	exporter  *metrics.Exporter
	tracer    trace.Tracer

	span trace.Span
}

func (o *trialObserver) TrialStarted(ctx context.Context, threadCount int) context.Context {
	if o.exporter != nil {
		o.exporter.TrialRunning(threadCount)
	}
	ctx, o.span = tracing.StartTrialSpan(ctx, o.tracer, o.operation, threadCount)
	return ctx
}

func (o *trialObserver) TrialFinished(threadCount int, res *bench.ThreadResult) {
	if o.span != nil {
		tracing.EndTrialSpan(o.span, res.IOBytes, len(res.Errors), res.IOMBps())
		o.span = nil
	}
	if o.exporter != nil {
		o.exporter.TrialDone(o.operation, threadCount, res.IOBytes, len(res.Errors), res.IOMBps())
	}
}
