package bench

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/clusterfs/fsbench/internal/profile"
	"github.com/clusterfs/fsbench/internal/stats"
)

// TrialObserver receives sweep progress, e.g. for metrics export or tracing.
type TrialObserver interface {
	// TrialStarted may return a derived context (a trace span, say) that
	// the trial runs under.
	TrialStarted(ctx context.Context, threadCount int) context.Context
	TrialFinished(threadCount int, res *ThreadResult)
}

// Preparer is implemented by backends that can set up the base directory
// before a write run.
type Preparer interface {
	PrepareBase(ctx context.Context, path string) error
}

// DriverOptions configure a Driver.
type DriverOptions struct {
	Params Params
	// Backends is the pre-created connection pool, handed out to workers
	// round-robin by index.
	Backends []Backend
	// Profile, when set, is queried per trial for method latencies inside
	// the measurement window.
	Profile profile.Source
	// Observer, when set, is notified around each trial.
	Observer TrialObserver
	// Logf receives progress and warning lines. Defaults to discarding.
	Logf func(format string, args ...any)
}

// Driver sweeps the configured concurrency levels, one trial per level, and
// assembles the task result.
type Driver struct {
	params   Params
	backends []Backend
	profile  profile.Source
	observer TrialObserver
	logf     func(format string, args ...any)

	// barrierPassed spans the sweep: once any worker passed a barrier,
	// later trials must compute fresh start instants.
	barrierPassed atomic.Bool
}

// NewDriver validates the configuration and builds a Driver. Parameter and
// operation/backend mismatches are fatal here, before any trial runs.
func NewDriver(opt DriverOptions) (*Driver, error) {
	opt.Params.normalize()
	if err := opt.Params.validate(); err != nil {
		return nil, err
	}
	if len(opt.Backends) == 0 {
		return nil, fmt.Errorf("at least one backend connection is required")
	}

	logf := opt.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	for _, b := range opt.Backends {
		if err := b.Supports(opt.Params.Operation); err != nil {
			return nil, err
		}
	}

	if opt.Params.Operation == OpWrite && opt.Params.Warmup > 0 {
		// Writes are not repeatable within one invocation, so a warmup
		// would measure nothing twice.
		logf("cannot write repeatedly, so warmup is not possible; setting warmup to 0s")
		opt.Params.Warmup = 0
	}

	return &Driver{
		params:   opt.Params,
		backends: opt.Backends,
		profile:  opt.Profile,
		observer: opt.Observer,
		logf:     logf,
	}, nil
}

// Run executes the full sweep in ascending thread-count order. Trial N+1
// never starts before trial N has fully drained.
func (d *Driver) Run(ctx context.Context) (*TaskResult, error) {
	counts := append([]int(nil), d.params.ThreadCounts...)
	sort.Ints(counts)

	if d.params.Operation == OpWrite {
		if prep, ok := d.backends[0].(Preparer); ok {
			base := fmt.Sprintf("%s/%s", d.params.BasePath, d.params.RunID)
			if err := prep.PrepareBase(ctx, base); err != nil {
				return nil, fmt.Errorf("prepare base path: %w", err)
			}
		}
	}

	task := &TaskResult{
		RunID:        d.params.RunID,
		Operation:    d.params.Operation.String(),
		ThreadCounts: counts,
		Results:      make(map[int]*ThreadResult, len(counts)),
	}

	for _, n := range counts {
		if err := ctx.Err(); err != nil {
			return task, err
		}
		d.logf("running benchmark for thread count: %d", n)

		trialCtx := ctx
		if d.observer != nil {
			trialCtx = d.observer.TrialStarted(ctx, n)
		}

		res := runTrial(trialCtx, &d.params, d.backends, n, d.nextStartAt(), &d.barrierPassed, d.logf)
		task.Results[n] = res

		if d.observer != nil {
			d.observer.TrialFinished(n, res)
		}

		if d.profile != nil {
			summaries, err := d.reduceProfile(res.RecordStartMs, res.EndMs)
			if err != nil {
				res.AddError(fmt.Sprintf("profile query failed: %v", err))
			} else if len(summaries) > 0 {
				if task.TimeToFirstByte == nil {
					task.TimeToFirstByte = make(map[int]map[string]stats.Summary)
				}
				task.TimeToFirstByte[n] = summaries
			}
		}
	}

	return task, nil
}

// nextStartAt computes the trial's start barrier. An externally agreed start
// instant is honored only for the first barrier of the sweep; afterwards
// (or without one) the barrier is now plus a fixed lead.
func (d *Driver) nextStartAt() time.Time {
	start := d.params.StartAt
	if start.IsZero() || d.barrierPassed.Load() {
		lead := d.params.StartLead
		if lead <= 0 {
			lead = defaultStartLead
		}
		start = time.Now().Add(lead)
	}
	return start
}

func (d *Driver) reduceProfile(startMs, endMs int64) (map[string]stats.Summary, error) {
	methods, err := d.profile.MethodLatencies(startMs, endMs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]stats.Summary, len(methods))
	for name, ms := range methods {
		out[name] = stats.Reduce(ms.NumSuccess, ms.TimeNs, ms.MaxNs)
	}
	return out, nil
}
