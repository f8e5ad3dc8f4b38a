package bench

import (
	"strings"
	"testing"
	"time"
)

func TestParamsNormalizeDefaults(t *testing.T) {
	p := Params{FileSize: 1024, BufferSize: 1024}
	p.normalize()

	if p.Clients != 1 {
		t.Errorf("Clients = %d, want 1", p.Clients)
	}
	if len(p.ThreadCounts) != 1 || p.ThreadCounts[0] != 1 {
		t.Errorf("ThreadCounts = %v, want [1]", p.ThreadCounts)
	}
	if p.TrialTimeout != 20*time.Minute {
		t.Errorf("TrialTimeout = %v, want 20m", p.TrialTimeout)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Params
		wantErr string
	}{
		{"valid", Params{FileSize: 4096, BufferSize: 1024, ThreadCounts: []int{1, 4}}, ""},
		{"zero file size", Params{BufferSize: 1024}, "file size must be positive"},
		{"zero buffer size", Params{FileSize: 4096}, "buffer size must be positive"},
		{"buffer exceeds file", Params{FileSize: 1024, BufferSize: 4096}, "cannot be smaller"},
		{"bad thread count", Params{FileSize: 4096, BufferSize: 1024, ThreadCounts: []int{4, 0}}, "thread count must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want one containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFilePath(t *testing.T) {
	p := Params{BasePath: "/bench", RunID: "run-1"}

	if got, want := p.filePath(3), "/bench/run-1/data-3"; got != want {
		t.Errorf("filePath(3) = %q, want %q", got, want)
	}

	p.ReadSameFile = true
	if got, want := p.filePath(3), "/bench/run-1/data-0"; got != want {
		t.Errorf("shared filePath(3) = %q, want %q", got, want)
	}
}
