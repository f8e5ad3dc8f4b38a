package backend

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/clusterfs/fsbench/internal/bench"
)

// localBackend drives plain POSIX files, typically through a FUSE mount of
// the storage system. There is no connection to speak of; every stream is an
// os.File.
type localBackend struct{}

func newLocal() *localBackend {
	return &localBackend{}
}

func (*localBackend) Name() string { return string(KindLocal) }

func (*localBackend) Supports(op bench.Operation) error {
	// No buffered read call distinct from the array read on a POSIX file.
	if op == bench.OpReadByteBuffer {
		return unsupported(KindLocal, op)
	}
	return nil
}

func (*localBackend) OpenRead(_ context.Context, path string) (bench.ReadStream, error) {
	f, err := os.Open(filepath.FromSlash(path))
	if err != nil {
		return nil, err
	}
	return &localReadStream{f: f}, nil
}

func (*localBackend) OpenWrite(_ context.Context, path string, _ int64) (bench.WriteStream, error) {
	p := filepath.FromSlash(path)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(p)
	if err != nil {
		return nil, err
	}
	return &localWriteStream{f: f}, nil
}

// PrepareBase recreates the base directory for a write run.
func (*localBackend) PrepareBase(_ context.Context, path string) error {
	p := filepath.FromSlash(path)
	if err := os.RemoveAll(p); err != nil {
		return err
	}
	return os.MkdirAll(p, 0o755)
}

type localReadStream struct {
	f   *os.File
	pos int64
}

func (s *localReadStream) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *localReadStream) ReadFully(p []byte) error {
	n, err := io.ReadFull(s.f, p)
	s.pos += int64(n)
	return err
}

func (s *localReadStream) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *localReadStream) ReadFullyAt(p []byte, off int64) error {
	_, err := s.f.ReadAt(p, off)
	return err
}

func (s *localReadStream) Seek(off int64) error {
	_, err := s.f.Seek(off, io.SeekStart)
	if err == nil {
		s.pos = off
	}
	return err
}

func (s *localReadStream) Pos() int64 { return s.pos }

func (s *localReadStream) Close() error { return s.f.Close() }

type localWriteStream struct {
	f       *os.File
	written int64
}

func (s *localWriteStream) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	s.written += int64(n)
	return n, err
}

func (s *localWriteStream) Written() int64 { return s.written }

func (s *localWriteStream) Close() error { return s.f.Close() }
