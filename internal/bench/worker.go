package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"
)

// writeDone is the sentinel applyOperation returns once a write worker has
// produced its whole target file.
const writeDone = -1

// worker drives one thread's share of a trial. Everything it touches in
// steady state (buffer, streams, offset cursor, result) is owned exclusively;
// the only shared write is the final merge into the run context.
type worker struct {
	index   int
	params  *Params
	rc      *runContext
	backend Backend
	pacer   *rate.Limiter

	path    string
	buf     []byte
	offsets offsetSeq

	in  ReadStream
	out WriteStream

	curOffset int64
	res       *ThreadResult
}

func newWorker(index int, p *Params, rc *runContext, b Backend, pacer *rate.Limiter, seed int64) *worker {
	buf := make([]byte, p.BufferSize)
	for i := range buf {
		buf[i] = 'A'
	}
	return &worker{
		index:     index,
		params:    p,
		rc:        rc,
		backend:   b,
		pacer:     pacer,
		path:      p.filePath(index),
		buf:       buf,
		offsets:   newOffsetSeq(p, index, seed),
		curOffset: p.FileSize,
		res:       &ThreadResult{},
	}
}

// run executes the worker loop, closes any open streams, and merges the
// result into the shared context. A failing worker never aborts siblings.
func (w *worker) run(ctx context.Context) {
	if err := w.runLoop(ctx); err != nil {
		w.res.AddError(err.Error())
	}
	w.closeIn()
	w.closeOut()
	w.res.EndMs = time.Now().UnixMilli()
	w.rc.mergeThreadResult(w.res)
}

func (w *worker) runLoop(ctx context.Context) error {
	recordStart := w.rc.startAt.Add(w.params.Warmup)
	w.res.RecordStartMs = recordStart.UnixMilli()
	isRead := w.params.Operation.IsRead()

	// Start barrier. Starting late would skew the measurement window, so a
	// negative wait is a hard failure for this worker.
	wait := time.Until(w.rc.startAt)
	if wait < 0 {
		return fmt.Errorf("worker %d missed barrier: start %d, current %d; increase the start lead",
			w.index, w.rc.startAt.UnixMilli(), time.Now().UnixMilli())
	}
	if err := sleepCtx(ctx, wait); err != nil {
		return err
	}
	w.rc.barrierPassed.Store(true)

	for ctx.Err() == nil && (!isRead || time.Now().Before(w.rc.endAt)) {
		if w.pacer != nil {
			if err := w.pacer.Wait(ctx); err != nil {
				return nil
			}
		}
		n, err := w.applyOperation(ctx)
		if err != nil {
			return err
		}
		if w.params.Operation == OpWrite && n < 0 {
			// Target size written; done with this worker even mid-warmup.
			return nil
		}
		if n > 0 && time.Now().After(recordStart) {
			w.res.IOBytes += n
		}
	}
	return nil
}

// applyOperation performs one iteration of the configured operation and
// returns the bytes moved, or writeDone when a write has exhausted its quota.
func (w *worker) applyOperation(ctx context.Context) (int64, error) {
	op := w.params.Operation
	if op.IsRead() {
		if w.in == nil {
			in, err := w.backend.OpenRead(ctx, w.path)
			if err != nil {
				return 0, err
			}
			w.in = in
		}
		if w.params.ReadRandom {
			w.curOffset = w.offsets.next()
			if !op.IsPosRead() {
				// Seek-based reads must move the cursor themselves.
				if err := w.in.Seek(w.curOffset); err != nil {
					return 0, err
				}
			}
		} else {
			w.curOffset = w.offsets.next()
		}
	}

	switch op {
	case OpReadArray, OpReadByteBuffer:
		n, err := w.in.Read(w.buf)
		if errors.Is(err, io.EOF) {
			// Reads cycle: close and reopen at EOF.
			return int64(n), w.reopenIn(ctx)
		}
		if err != nil {
			return 0, err
		}
		return int64(n), nil

	case OpReadFully:
		toRead := min(int64(len(w.buf)), w.params.FileSize-w.in.Pos())
		if toRead > 0 {
			if err := w.in.ReadFully(w.buf[:toRead]); err != nil {
				return 0, err
			}
		}
		if w.in.Pos() >= w.params.FileSize {
			if err := w.reopenIn(ctx); err != nil {
				return 0, err
			}
		}
		return toRead, nil

	case OpPosRead:
		n, err := w.in.ReadAt(w.buf, w.curOffset)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		return int64(n), nil

	case OpPosReadFully:
		if err := w.in.ReadFullyAt(w.buf, w.curOffset); err != nil {
			return 0, err
		}
		return int64(len(w.buf)), nil

	case OpWrite:
		if w.out == nil {
			out, err := w.backend.OpenWrite(ctx, w.path, w.params.BlockSize)
			if err != nil {
				return 0, err
			}
			w.out = out
		}
		toWrite := min(w.params.FileSize-w.out.Written(), int64(len(w.buf)))
		if toWrite == 0 {
			out := w.out
			w.out = nil
			if err := out.Close(); err != nil {
				return 0, err
			}
			return writeDone, nil
		}
		if _, err := w.out.Write(w.buf[:toWrite]); err != nil {
			return 0, err
		}
		return toWrite, nil

	default:
		return 0, fmt.Errorf("unknown operation: %s", op)
	}
}

func (w *worker) reopenIn(ctx context.Context) error {
	w.closeIn()
	in, err := w.backend.OpenRead(ctx, w.path)
	if err != nil {
		return err
	}
	w.in = in
	return nil
}

func (w *worker) closeIn() {
	if w.in == nil {
		return
	}
	if err := w.in.Close(); err != nil {
		w.res.AddError(err.Error())
	}
	w.in = nil
}

func (w *worker) closeOut() {
	if w.out == nil {
		return
	}
	if err := w.out.Close(); err != nil {
		w.res.AddError(err.Error())
	}
	w.out = nil
}

// sleepCtx blocks for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
