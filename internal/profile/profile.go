// Package profile reads externally collected per-method latency logs, such
// as the JSON-lines output of a profiling agent attached to the storage
// client. The benchmark driver queries it for the time-to-first-byte
// latencies observed inside a trial's measurement window.
package profile

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/tidwall/gjson"

	"github.com/clusterfs/fsbench/internal/stats"
)

// MethodStats accumulates one method's latency observations.
type MethodStats struct {
	NumSuccess int64
	TimeNs     *hdrhistogram.Histogram
	// MaxNs holds the largest observed latencies, descending, at most
	// stats.MaxTimeCount of them.
	MaxNs []int64
}

func newMethodStats() *MethodStats {
	return &MethodStats{TimeNs: stats.NewLatencyHistogram()}
}

func (m *MethodStats) record(durNs int64) {
	m.NumSuccess++
	stats.RecordLatency(m.TimeNs, durNs)

	m.MaxNs = append(m.MaxNs, durNs)
	sort.Slice(m.MaxNs, func(i, j int) bool { return m.MaxNs[i] > m.MaxNs[j] })
	if len(m.MaxNs) > stats.MaxTimeCount {
		m.MaxNs = m.MaxNs[:stats.MaxTimeCount]
	}
}

// Source supplies method latency statistics for a measurement window.
type Source interface {
	MethodLatencies(startMs, endMs int64) (map[string]*MethodStats, error)
}

// Filter maps a raw log entry onto the method key it is accounted under.
// Returning "" drops the entry.
type Filter func(method string, ttfb bool) string

// TTFBOnly keeps only time-to-first-byte entries, keyed by method name.
func TTFBOnly(method string, ttfb bool) string {
	if ttfb {
		return method
	}
	return ""
}

// AgentLog reads a profiling agent's JSON-lines log file. Each line carries
// at least: method (string), ts_ms (int), dur_ns (int), ttfb (bool).
type AgentLog struct {
	Path   string
	Filter Filter
}

// MethodLatencies scans the log and accumulates entries whose timestamp
// falls within [startMs, endMs].
func (a *AgentLog) MethodLatencies(startMs, endMs int64) (map[string]*MethodStats, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("open profile log: %w", err)
	}
	defer f.Close()

	filter := a.Filter
	if filter == nil {
		filter = TTFBOnly
	}

	out := make(map[string]*MethodStats)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !gjson.ValidBytes(line) {
			continue
		}
		ts := gjson.GetBytes(line, "ts_ms").Int()
		if ts < startMs || ts > endMs {
			continue
		}
		key := filter(gjson.GetBytes(line, "method").String(), gjson.GetBytes(line, "ttfb").Bool())
		if key == "" {
			continue
		}
		ms, ok := out[key]
		if !ok {
			ms = newMethodStats()
			out[key] = ms
		}
		ms.record(gjson.GetBytes(line, "dur_ns").Int())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan profile log: %w", err)
	}
	return out, nil
}
