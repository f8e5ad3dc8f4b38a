package bench

import (
	"fmt"
	"time"
)

const (
	// defaultStartLead is how far in the future a trial's start barrier is
	// placed when no externally agreed start instant applies.
	defaultStartLead = 10 * time.Second
	// teardownGrace bounds how long a trial waits for cancelled workers.
	teardownGrace = 30 * time.Second
)

// Params holds the immutable run configuration shared by every trial.
type Params struct {
	Operation Operation
	// BasePath is the backend directory the benchmark files live in.
	BasePath string
	// RunID namespaces this invocation's files under BasePath.
	RunID string

	FileSize   int64
	BufferSize int64
	BlockSize  int64

	// ThreadCounts is the list of concurrency levels to sweep.
	ThreadCounts []int

	Warmup   time.Duration
	Duration time.Duration

	// Clients is the number of pooled backend connections, shared
	// round-robin across workers.
	Clients int

	// ReadRandom draws offsets uniformly instead of advancing sequentially.
	ReadRandom bool
	// ReadSameFile points every worker at worker 0's file.
	ReadSameFile bool

	// StartAt is an externally agreed start barrier for coordinated runs.
	// Zero means each trial computes its own start instant.
	StartAt time.Time
	// StartLead is how far ahead of now a recomputed start barrier is
	// placed. Zero means defaultStartLead.
	StartLead time.Duration

	// TrialTimeout bounds one trial end to end, including the barrier wait.
	TrialTimeout time.Duration

	// RatePerSecond caps operations per second across all workers in a
	// trial (0 means unpaced).
	RatePerSecond int
}

func (p *Params) normalize() {
	if p.Clients <= 0 {
		p.Clients = 1
	}
	if len(p.ThreadCounts) == 0 {
		p.ThreadCounts = []int{1}
	}
	if p.TrialTimeout <= 0 {
		p.TrialTimeout = 20 * time.Minute
	}
}

// validate reports fatal configuration errors. These abort the whole run
// before any trial executes.
func (p *Params) validate() error {
	if p.FileSize <= 0 {
		return fmt.Errorf("file size must be positive, got %d", p.FileSize)
	}
	if p.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", p.BufferSize)
	}
	if p.BufferSize > p.FileSize {
		return fmt.Errorf("file size (%d) cannot be smaller than buffer size (%d)",
			p.FileSize, p.BufferSize)
	}
	for _, n := range p.ThreadCounts {
		if n <= 0 {
			return fmt.Errorf("thread count must be positive, got %d", n)
		}
	}
	return nil
}

// filePath returns the target path for the given worker index. When
// ReadSameFile is set every worker shares worker 0's file.
func (p *Params) filePath(workerIndex int) string {
	fileID := workerIndex
	if p.ReadSameFile {
		fileID = 0
	}
	return fmt.Sprintf("%s/%s/data-%d", p.BasePath, p.RunID, fileID)
}
