package bench

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// runTrial executes one concurrency level: exactly numThreads workers share
// one run context, the trial is bounded by Params.TrialTimeout, stragglers
// are cancelled and given a fixed grace period to tear down. It always
// returns a merged result, even when workers failed or were abandoned.
func runTrial(ctx context.Context, p *Params, backends []Backend, numThreads int,
	startAt time.Time, barrierPassed *atomic.Bool, logf func(format string, args ...any)) *ThreadResult {

	endAt := startAt.Add(p.Warmup + p.Duration)
	rc := newRunContext(startAt, endAt, barrierPassed)

	var pacer *rate.Limiter
	if p.RatePerSecond > 0 {
		pacer = rate.NewLimiter(rate.Limit(p.RatePerSecond), p.RatePerSecond)
	}

	trialCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	seed := time.Now().UnixNano()
	var wg sync.WaitGroup
	wg.Add(numThreads)
	for i := 0; i < numThreads; i++ {
		w := newWorker(i, p, rc, backends[i%len(backends)], pacer, seed)
		go func() {
			defer wg.Done()
			w.run(trialCtx)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timeout := time.NewTimer(p.TrialTimeout)
	defer timeout.Stop()

	select {
	case <-done:
	case <-ctx.Done():
		cancel()
		waitWithGrace(done)
	case <-timeout.C:
		cancel()
		waitWithGrace(done)
	}

	res := rc.result()
	logf("thread count: %d, errors: %d, IO throughput (MB/s): %f",
		numThreads, len(res.Errors), res.IOMBps())
	return res
}

// waitWithGrace waits up to teardownGrace for cancelled workers to finish.
// Workers that do not observe the cancellation in time are abandoned; any
// result they already merged stands, anything unmerged is lost.
func waitWithGrace(done <-chan struct{}) {
	grace := time.NewTimer(teardownGrace)
	defer grace.Stop()

	select {
	case <-done:
	case <-grace.C:
	}
}
