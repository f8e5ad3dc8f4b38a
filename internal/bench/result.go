package bench

import (
	"errors"

	"github.com/clusterfs/fsbench/internal/stats"
)

// ThreadResult accumulates one trial's outcome. Each worker owns a private
// ThreadResult until it is merged into the trial's shared result.
type ThreadResult struct {
	// IOBytes counts bytes moved after the warmup boundary.
	IOBytes int64 `json:"io_bytes"`
	// Errors preserves every worker failure, in merge order. Never truncated.
	Errors []string `json:"errors,omitempty"`
	// RecordStartMs is when byte accounting began (start + warmup), in
	// epoch milliseconds.
	RecordStartMs int64 `json:"record_start_ms"`
	// EndMs is when the last worker finished, in epoch milliseconds.
	EndMs int64 `json:"end_ms"`
}

// AddError appends a failure description to the result.
func (r *ThreadResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Merge folds other into r: byte counts sum, error lists concatenate, and
// the measurement window widens to cover both results.
func (r *ThreadResult) Merge(other *ThreadResult) error {
	if other == nil {
		return errors.New("cannot merge nil thread result")
	}
	r.IOBytes += other.IOBytes
	r.Errors = append(r.Errors, other.Errors...)
	if r.RecordStartMs == 0 || (other.RecordStartMs != 0 && other.RecordStartMs < r.RecordStartMs) {
		r.RecordStartMs = other.RecordStartMs
	}
	if other.EndMs > r.EndMs {
		r.EndMs = other.EndMs
	}
	return nil
}

// DurationMs is the measured window length in milliseconds.
func (r *ThreadResult) DurationMs() int64 {
	return r.EndMs - r.RecordStartMs
}

// IOMBps is the recorded throughput in MB/s over the measured window.
func (r *ThreadResult) IOMBps() float64 {
	d := r.DurationMs()
	if d <= 0 {
		return 0
	}
	return float64(r.IOBytes) / (1024 * 1024) / (float64(d) / 1000)
}

// TaskResult is the full benchmark outcome across the concurrency sweep.
type TaskResult struct {
	RunID        string                `json:"run_id"`
	Operation    string                `json:"operation"`
	ThreadCounts []int                 `json:"thread_counts"`
	Results      map[int]*ThreadResult `json:"results"`
	// TimeToFirstByte holds reduced profiling summaries per concurrency
	// level, keyed by backend method name. Only present when an external
	// profile source is configured.
	TimeToFirstByte map[int]map[string]stats.Summary `json:"time_to_first_byte,omitempty"`
}
