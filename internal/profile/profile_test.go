package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLog(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.log")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAgentLogWindowFiltering(t *testing.T) {
	log := `{"ts_ms":50,"method":"open","ttfb":true,"dur_ns":1000000}
{"ts_ms":100,"method":"open","ttfb":true,"dur_ns":2000000}
{"ts_ms":150,"method":"open","ttfb":true,"dur_ns":3000000}
{"ts_ms":200,"method":"open","ttfb":true,"dur_ns":4000000}
`
	a := &AgentLog{Path: writeLog(t, log)}

	methods, err := a.MethodLatencies(100, 150)
	if err != nil {
		t.Fatal(err)
	}
	ms, ok := methods["open"]
	if !ok {
		t.Fatal("no stats for method open")
	}
	if ms.NumSuccess != 2 {
		t.Errorf("NumSuccess = %d, want 2 (entries at 100 and 150)", ms.NumSuccess)
	}
	if len(ms.MaxNs) != 2 || ms.MaxNs[0] != 3000000 || ms.MaxNs[1] != 2000000 {
		t.Errorf("MaxNs = %v, want [3000000 2000000]", ms.MaxNs)
	}
}

func TestAgentLogDefaultFilterKeepsTTFBOnly(t *testing.T) {
	log := `{"ts_ms":10,"method":"open","ttfb":true,"dur_ns":1000000}
{"ts_ms":10,"method":"read","ttfb":false,"dur_ns":2000000}
`
	a := &AgentLog{Path: writeLog(t, log)}

	methods, err := a.MethodLatencies(0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := methods["read"]; ok {
		t.Error("non-TTFB entry was not dropped")
	}
	if _, ok := methods["open"]; !ok {
		t.Error("TTFB entry missing")
	}
}

func TestAgentLogCustomFilter(t *testing.T) {
	log := `{"ts_ms":10,"method":"open","ttfb":true,"dur_ns":1000000}
{"ts_ms":10,"method":"read","ttfb":false,"dur_ns":2000000}
`
	a := &AgentLog{
		Path:   writeLog(t, log),
		Filter: func(method string, _ bool) string { return method },
	}

	methods, err := a.MethodLatencies(0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(methods) != 2 {
		t.Errorf("methods = %d, want 2", len(methods))
	}
}

func TestAgentLogSkipsMalformedLines(t *testing.T) {
	log := `not json at all
{"ts_ms":10,"method":"open","ttfb":true,"dur_ns":1000000}
{truncated
`
	a := &AgentLog{Path: writeLog(t, log)}

	methods, err := a.MethodLatencies(0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if ms := methods["open"]; ms == nil || ms.NumSuccess != 1 {
		t.Errorf("methods = %v, want exactly one open entry", methods)
	}
}

func TestAgentLogMissingFile(t *testing.T) {
	a := &AgentLog{Path: filepath.Join(t.TempDir(), "absent.log")}
	if _, err := a.MethodLatencies(0, 100); err == nil {
		t.Fatal("expected an error for a missing log file")
	}
}

func TestMethodStatsCapsMaxSamples(t *testing.T) {
	ms := newMethodStats()
	for i := 1; i <= 50; i++ {
		ms.record(int64(i) * 1000000)
	}
	if len(ms.MaxNs) != 20 {
		t.Fatalf("MaxNs length = %d, want 20", len(ms.MaxNs))
	}
	if ms.MaxNs[0] != 50000000 {
		t.Errorf("MaxNs[0] = %d, want the largest sample", ms.MaxNs[0])
	}
	for i := 1; i < len(ms.MaxNs); i++ {
		if ms.MaxNs[i] > ms.MaxNs[i-1] {
			t.Fatal("MaxNs is not descending")
		}
	}
}
