// Package metrics exposes live benchmark gauges over Prometheus so a
// scraping dashboard can watch a long sweep as it runs.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter registers and serves the benchmark's Prometheus metrics.
type Exporter struct {
	registry *prometheus.Registry

	throughputGauge  *prometheus.GaugeVec
	ioBytesCounter   *prometheus.CounterVec
	errorCounter     *prometheus.CounterVec
	concurrencyGauge prometheus.Gauge

	server *http.Server
}

// NewExporter creates an Exporter with all collectors registered.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		throughputGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fsbench_throughput_mbps",
				Help: "Measured throughput of the last finished trial in MB/s",
			},
			[]string{"operation", "threads"},
		),
		ioBytesCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsbench_io_bytes_total",
				Help: "Total recorded bytes moved, per trial",
			},
			[]string{"operation", "threads"},
		),
		errorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsbench_errors_total",
				Help: "Total worker errors, per trial",
			},
			[]string{"operation", "threads"},
		),
		concurrencyGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fsbench_concurrency",
				Help: "Thread count of the trial currently running",
			},
		),
	}
	e.registry.MustRegister(e.throughputGauge, e.ioBytesCounter, e.errorCounter, e.concurrencyGauge)
	return e
}

// TrialRunning records the concurrency level currently executing.
func (e *Exporter) TrialRunning(threadCount int) {
	e.concurrencyGauge.Set(float64(threadCount))
}

// TrialDone publishes one finished trial's numbers.
func (e *Exporter) TrialDone(operation string, threadCount int, ioBytes int64, errs int, mbps float64) {
	labels := prometheus.Labels{"operation": operation, "threads": strconv.Itoa(threadCount)}
	e.throughputGauge.With(labels).Set(mbps)
	e.ioBytesCounter.With(labels).Add(float64(ioBytes))
	e.errorCounter.With(labels).Add(float64(errs))
}

// Serve exposes /metrics on addr in a background goroutine.
func (e *Exporter) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	e.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		// The exporter is best-effort; a bind failure must not kill the run.
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[fsbench] metrics endpoint: %v\n", err)
		}
	}()
}

// Shutdown stops the metrics endpoint.
func (e *Exporter) Shutdown(ctx context.Context) error {
	if e.server == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}
