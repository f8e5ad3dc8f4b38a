package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeBackend serves reads from an in-memory file and absorbs writes. It
// implements Preparer so driver tests can observe the prepare step.
type fakeBackend struct {
	mu        sync.Mutex
	data      []byte
	readErr   error
	reject    map[Operation]bool
	openReads int
	lastWrite *fakeWriteStream
	prepared  string
}

func newFakeBackend(size int64) *fakeBackend {
	data := make([]byte, size)
	for i := range data {
		data[i] = 'A'
	}
	return &fakeBackend{data: data}
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Supports(op Operation) error {
	if b.reject[op] {
		return fmt.Errorf("fake backend does not support operation %s", op)
	}
	return nil
}

func (b *fakeBackend) OpenRead(context.Context, string) (ReadStream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openReads++
	return &fakeReadStream{data: b.data, readErr: b.readErr}, nil
}

func (b *fakeBackend) OpenWrite(context.Context, string, int64) (WriteStream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ws := &fakeWriteStream{}
	b.lastWrite = ws
	return ws, nil
}

func (b *fakeBackend) PrepareBase(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prepared = path
	return nil
}

func (b *fakeBackend) reads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openReads
}

type fakeReadStream struct {
	data    []byte
	pos     int64
	seeks   int
	readErr error
	closed  bool
}

func (s *fakeReadStream) Read(p []byte) (int, error) {
	if s.readErr != nil {
		return 0, s.readErr
	}
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *fakeReadStream) ReadFully(p []byte) error {
	if s.readErr != nil {
		return s.readErr
	}
	if s.pos+int64(len(p)) > int64(len(s.data)) {
		return io.ErrUnexpectedEOF
	}
	copy(p, s.data[s.pos:])
	s.pos += int64(len(p))
	return nil
}

func (s *fakeReadStream) ReadAt(p []byte, off int64) (int, error) {
	if s.readErr != nil {
		return 0, s.readErr
	}
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	return copy(p, s.data[off:]), nil
}

func (s *fakeReadStream) ReadFullyAt(p []byte, off int64) error {
	n, err := s.ReadAt(p, off)
	if err != nil {
		return err
	}
	if n < len(p) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (s *fakeReadStream) Seek(off int64) error {
	s.seeks++
	s.pos = off
	return nil
}

func (s *fakeReadStream) Pos() int64 { return s.pos }

func (s *fakeReadStream) Close() error {
	s.closed = true
	return nil
}

type fakeWriteStream struct {
	written int64
	writes  int
	closed  bool
}

func (s *fakeWriteStream) Write(p []byte) (int, error) {
	s.writes++
	s.written += int64(len(p))
	return len(p), nil
}

func (s *fakeWriteStream) Written() int64 { return s.written }

func (s *fakeWriteStream) Close() error {
	s.closed = true
	return nil
}

func testContext(t *testing.T, startIn, window time.Duration) *runContext {
	t.Helper()
	start := time.Now().Add(startIn)
	return newRunContext(start, start.Add(window), &atomic.Bool{})
}

func TestWorkerWriteTerminatesWithSentinel(t *testing.T) {
	p := &Params{
		Operation:  OpWrite,
		BasePath:   "/bench",
		RunID:      "run",
		FileSize:   100 * 1024,
		BufferSize: 1024,
	}
	fb := newFakeBackend(p.FileSize)
	rc := testContext(t, 20*time.Millisecond, time.Hour)

	w := newWorker(0, p, rc, fb, nil, 1)
	w.run(context.Background())

	res := rc.result()
	if got := len(res.Errors); got != 0 {
		t.Fatalf("expected no errors, got %v", res.Errors)
	}
	if res.IOBytes != p.FileSize {
		t.Errorf("recorded bytes = %d, want %d", res.IOBytes, p.FileSize)
	}
	if fb.lastWrite == nil {
		t.Fatal("no write stream opened")
	}
	if fb.lastWrite.writes != 100 {
		t.Errorf("write iterations = %d, want 100", fb.lastWrite.writes)
	}
	if !fb.lastWrite.closed {
		t.Error("write stream not closed after sentinel")
	}
}

func TestWorkerWriteSentinelEndsLoopDuringWarmup(t *testing.T) {
	p := &Params{
		Operation:  OpWrite,
		BasePath:   "/bench",
		RunID:      "run",
		FileSize:   8 * 1024,
		BufferSize: 1024,
		Warmup:     time.Hour,
	}
	fb := newFakeBackend(p.FileSize)
	rc := testContext(t, 20*time.Millisecond, 2*time.Hour)

	done := make(chan struct{})
	go func() {
		defer close(done)
		newWorker(0, p, rc, fb, nil, 1).run(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("write worker did not terminate during warmup")
	}

	res := rc.result()
	if res.IOBytes != 0 {
		t.Errorf("warmup bytes recorded: %d, want 0", res.IOBytes)
	}
	if len(res.Errors) != 0 {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
}

func TestWorkerMissedBarrier(t *testing.T) {
	p := &Params{
		Operation:  OpReadArray,
		BasePath:   "/bench",
		RunID:      "run",
		FileSize:   4 * 1024,
		BufferSize: 1024,
	}
	fb := newFakeBackend(p.FileSize)
	rc := testContext(t, -time.Second, time.Hour)

	w := newWorker(0, p, rc, fb, nil, 1)
	w.run(context.Background())

	res := rc.result()
	if res.IOBytes != 0 {
		t.Errorf("missed-barrier worker recorded %d bytes, want 0", res.IOBytes)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "missed barrier") {
		t.Fatalf("expected a missed barrier error, got %v", res.Errors)
	}
	if rc.barrierPassed.Load() {
		t.Error("barrier flagged as passed after a miss")
	}
}

func TestWorkerReadCyclesOverEOF(t *testing.T) {
	p := &Params{
		Operation:  OpReadArray,
		BasePath:   "/bench",
		RunID:      "run",
		FileSize:   4 * 1024,
		BufferSize: 1024,
	}
	fb := newFakeBackend(p.FileSize)
	rc := testContext(t, 10*time.Millisecond, 80*time.Millisecond)

	w := newWorker(0, p, rc, fb, nil, 1)
	w.run(context.Background())

	res := rc.result()
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.IOBytes == 0 {
		t.Error("no bytes recorded for a read run")
	}
	if fb.reads() < 2 {
		t.Errorf("stream not reopened after EOF: %d opens", fb.reads())
	}
	if !rc.barrierPassed.Load() {
		t.Error("barrier not flagged as passed")
	}
}

func TestWorkerRandomReadSeeks(t *testing.T) {
	p := &Params{
		Operation:  OpReadArray,
		BasePath:   "/bench",
		RunID:      "run",
		FileSize:   16 * 1024,
		BufferSize: 1024,
		ReadRandom: true,
	}
	fb := newFakeBackend(p.FileSize)
	rc := testContext(t, 10*time.Millisecond, 50*time.Millisecond)

	w := newWorker(0, p, rc, fb, nil, 42)
	w.run(context.Background())

	if len(rc.result().Errors) != 0 {
		t.Fatalf("unexpected errors: %v", rc.result().Errors)
	}
	if w.curOffset < 0 || w.curOffset > p.FileSize-p.BufferSize {
		t.Errorf("offset %d outside [0, %d]", w.curOffset, p.FileSize-p.BufferSize)
	}
}

func TestFailingWorkerDoesNotAbortSibling(t *testing.T) {
	p := &Params{
		Operation:  OpReadArray,
		BasePath:   "/bench",
		RunID:      "run",
		FileSize:   4 * 1024,
		BufferSize: 1024,
	}
	healthy := newFakeBackend(p.FileSize)
	broken := newFakeBackend(p.FileSize)
	broken.readErr = errors.New("connection reset by peer")

	rc := testContext(t, 20*time.Millisecond, 80*time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(2)
	for i, b := range []Backend{broken, healthy} {
		w := newWorker(i, p, rc, b, nil, int64(i))
		go func() {
			defer wg.Done()
			w.run(context.Background())
		}()
	}
	wg.Wait()

	res := rc.result()
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "connection reset") {
		t.Fatalf("expected exactly the broken worker's error, got %v", res.Errors)
	}
	if res.IOBytes == 0 {
		t.Error("healthy sibling recorded no bytes")
	}
}
