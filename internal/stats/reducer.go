// Package stats reduces latency histograms into percentile summaries.
package stats

import (
	"math"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// TailCount is the number of extended tail percentiles: 99, 99.9, ...
	// up to 100 - 10^-(TailCount-1).
	TailCount = 6
	// MaxTimeCount is how many of the largest observed latencies a summary
	// carries.
	MaxTimeCount = 20

	// lowestNs and highestNs bound the trackable latency range: 1µs to 60s.
	lowestNs  = int64(time.Microsecond)
	highestNs = int64(60 * time.Second)

	nsPerMs = float64(time.Millisecond)
)

// Summary is the reduced view of one latency distribution, in milliseconds.
type Summary struct {
	NumSuccess int64 `json:"num_success"`
	// PercentileMs[i] is the latency at the i-th percentile, 0 <= i <= 100.
	PercentileMs []float32 `json:"percentile_ms"`
	// TailPercentileMs[k] is the latency at the (100 - 10^-k)-th percentile.
	TailPercentileMs []float32 `json:"tail_percentile_ms"`
	// MaxMs holds the MaxTimeCount largest observed latencies, padded with
	// -1 where fewer samples exist.
	MaxMs []float32 `json:"max_ms"`
}

// NewLatencyHistogram returns a nanosecond histogram sized for I/O latencies.
func NewLatencyHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(lowestNs, highestNs, 3)
}

// RecordLatency clamps v into the trackable range and records it.
func RecordLatency(h *hdrhistogram.Histogram, v int64) {
	if v < h.LowestTrackableValue() {
		v = h.LowestTrackableValue()
	}
	if v > h.HighestTrackableValue() {
		v = h.HighestTrackableValue()
	}
	_ = h.RecordValue(v)
}

// Reduce converts a nanosecond histogram plus the raw largest samples into a
// Summary. The percentile curve is non-decreasing by construction of the
// histogram's cumulative distribution.
func Reduce(numSuccess int64, timeNs *hdrhistogram.Histogram, maxNs []int64) Summary {
	s := Summary{
		NumSuccess:       numSuccess,
		PercentileMs:     make([]float32, 101),
		TailPercentileMs: make([]float32, TailCount),
		MaxMs:            make([]float32, MaxTimeCount),
	}

	for i := 0; i <= 100; i++ {
		s.PercentileMs[i] = float32(float64(timeNs.ValueAtQuantile(float64(i))) / nsPerMs)
	}
	for k := 0; k < TailCount; k++ {
		q := 100.0 - 1.0/math.Pow(10.0, float64(k))
		s.TailPercentileMs[k] = float32(float64(timeNs.ValueAtQuantile(q)) / nsPerMs)
	}

	for i := range s.MaxMs {
		s.MaxMs[i] = -1
	}
	for i := 0; i < len(maxNs) && i < MaxTimeCount; i++ {
		s.MaxMs[i] = float32(float64(maxNs[i]) / nsPerMs)
	}

	return s
}
