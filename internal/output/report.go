// Package output renders benchmark results for humans and machines.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/clusterfs/fsbench/internal/bench"
	"github.com/clusterfs/fsbench/internal/stats"
)

// PrintReport outputs a human-readable summary of the sweep.
func PrintReport(w io.Writer, task *bench.TaskResult) {
	fmt.Fprintln(w, "\n--- Client IO Benchmark Results ---")
	fmt.Fprintf(w, "Run ID:      %s\n", task.RunID)
	fmt.Fprintf(w, "Operation:   %s\n", task.Operation)

	for _, n := range task.ThreadCounts {
		res, ok := task.Results[n]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\nThreads: %d\n", n)
		fmt.Fprintf(w, "  Bytes:           %d\n", res.IOBytes)
		fmt.Fprintf(w, "  Duration:        %dms\n", res.DurationMs())
		fmt.Fprintf(w, "  Throughput:      %.2f MB/s\n", res.IOMBps())
		fmt.Fprintf(w, "  Errors:          %d\n", len(res.Errors))
		for _, msg := range res.Errors {
			fmt.Fprintf(w, "    - %s\n", msg)
		}
		if methods, ok := task.TimeToFirstByte[n]; ok {
			fmt.Fprintln(w, "  Time to first byte (ms):")
			writeMethodSummaries(w, methods)
		}
	}
}

func writeMethodSummaries(w io.Writer, methods map[string]stats.Summary) {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := methods[name]
		fmt.Fprintf(w, "    %s: n=%d p50=%.3f p90=%.3f p99=%.3f p99.9=%.3f max=%.3f\n",
			name, s.NumSuccess,
			s.PercentileMs[50], s.PercentileMs[90], s.PercentileMs[99],
			s.TailPercentileMs[1], s.MaxMs[0])
	}
}

// PrintJSONReport outputs the full task result as indented JSON.
func PrintJSONReport(w io.Writer, task *bench.TaskResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(task)
}
