package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTrialDonePublishesLabeledSeries(t *testing.T) {
	e := NewExporter()

	e.TrialRunning(4)
	e.TrialDone("ReadArray", 4, 1<<20, 2, 125.5)
	e.TrialDone("ReadArray", 4, 1<<20, 1, 130.0)

	if got := testutil.ToFloat64(e.concurrencyGauge); got != 4 {
		t.Errorf("fsbench_concurrency = %f, want 4", got)
	}
	if got := testutil.ToFloat64(e.throughputGauge.WithLabelValues("ReadArray", "4")); got != 130.0 {
		t.Errorf("fsbench_throughput_mbps = %f, want the latest trial's 130", got)
	}
	if got := testutil.ToFloat64(e.ioBytesCounter.WithLabelValues("ReadArray", "4")); got != float64(2<<20) {
		t.Errorf("fsbench_io_bytes_total = %f, want %d", got, 2<<20)
	}
	if got := testutil.ToFloat64(e.errorCounter.WithLabelValues("ReadArray", "4")); got != 3 {
		t.Errorf("fsbench_errors_total = %f, want 3", got)
	}
}

func TestCollectorsRegistered(t *testing.T) {
	e := NewExporter()
	e.TrialDone("Write", 1, 100, 0, 1.0)

	families, err := e.registry.Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"fsbench_throughput_mbps", "fsbench_io_bytes_total", "fsbench_errors_total", "fsbench_concurrency",
	} {
		if !names[want] {
			t.Errorf("metric %s not gathered", want)
		}
	}
}
