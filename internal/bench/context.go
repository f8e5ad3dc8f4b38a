package bench

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// runContext is the state one trial's workers share: the agreed start/end
// instants and the accumulator their results merge into. Merging is the only
// cross-worker synchronization in steady state.
type runContext struct {
	startAt time.Time
	endAt   time.Time

	// barrierPassed is owned by the Driver and spans the whole sweep:
	// once any worker has passed a start barrier, later trials must
	// compute a fresh start instant instead of reusing a stale one.
	barrierPassed *atomic.Bool

	mu     sync.Mutex
	merged *ThreadResult
}

func newRunContext(startAt, endAt time.Time, barrierPassed *atomic.Bool) *runContext {
	return &runContext{startAt: startAt, endAt: endAt, barrierPassed: barrierPassed}
}

// mergeThreadResult folds a worker's result into the shared accumulator.
// A failing merge is recorded as one more error on the shared result rather
// than propagated; a trial always produces a result.
func (rc *runContext) mergeThreadResult(tr *ThreadResult) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.merged == nil {
		rc.merged = tr
		return
	}
	if err := rc.merged.Merge(tr); err != nil {
		rc.merged.AddError(fmt.Sprintf("merge failed: %v", err))
	}
}

// result returns the merged accumulator, never nil.
func (rc *runContext) result() *ThreadResult {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.merged == nil {
		rc.merged = &ThreadResult{}
	}
	return rc.merged
}
