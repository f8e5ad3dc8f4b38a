package backend

import (
	"context"
	"io"
	"os"

	"github.com/colinmarc/hdfs/v2"

	"github.com/clusterfs/fsbench/internal/bench"
)

// hdfsBackend drives the storage system through its HDFS-compatible API.
// It supports the full operation set.
type hdfsBackend struct {
	client *hdfs.Client
}

func newHDFS(cfg Config) (*hdfsBackend, error) {
	var client *hdfs.Client
	var err error
	if cfg.User != "" {
		client, err = hdfs.NewClient(hdfs.ClientOptions{
			Addresses: []string{cfg.NameNode},
			User:      cfg.User,
		})
	} else {
		client, err = hdfs.New(cfg.NameNode)
	}
	if err != nil {
		return nil, err
	}
	return &hdfsBackend{client: client}, nil
}

func (*hdfsBackend) Name() string { return string(KindHDFS) }

func (*hdfsBackend) Supports(bench.Operation) error { return nil }

func (b *hdfsBackend) OpenRead(_ context.Context, path string) (bench.ReadStream, error) {
	f, err := b.client.Open(path)
	if err != nil {
		return nil, err
	}
	return &hdfsReadStream{f: f}, nil
}

func (b *hdfsBackend) OpenWrite(_ context.Context, path string, blockSize int64) (bench.WriteStream, error) {
	if err := b.client.MkdirAll(parentDir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := b.client.CreateFile(path, 1, blockSize, 0o644)
	if err != nil {
		return nil, err
	}
	return &hdfsWriteStream{f: f}, nil
}

// PrepareBase recreates the base directory for a write run.
func (b *hdfsBackend) PrepareBase(_ context.Context, path string) error {
	if err := b.client.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return b.client.MkdirAll(path, 0o755)
}

func (b *hdfsBackend) Close() error { return b.client.Close() }

func parentDir(path string) string {
	for i := len(path) - 1; i > 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "/"
}

type hdfsReadStream struct {
	f   *hdfs.FileReader
	pos int64
}

func (s *hdfsReadStream) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *hdfsReadStream) ReadFully(p []byte) error {
	n, err := io.ReadFull(s.f, p)
	s.pos += int64(n)
	return err
}

func (s *hdfsReadStream) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *hdfsReadStream) ReadFullyAt(p []byte, off int64) error {
	n, err := s.f.ReadAt(p, off)
	if err != nil {
		return err
	}
	if n < len(p) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (s *hdfsReadStream) Seek(off int64) error {
	_, err := s.f.Seek(off, io.SeekStart)
	if err == nil {
		s.pos = off
	}
	return err
}

func (s *hdfsReadStream) Pos() int64 { return s.pos }

func (s *hdfsReadStream) Close() error { return s.f.Close() }

type hdfsWriteStream struct {
	f       *hdfs.FileWriter
	written int64
}

func (s *hdfsWriteStream) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	s.written += int64(n)
	return n, err
}

func (s *hdfsWriteStream) Written() int64 { return s.written }

func (s *hdfsWriteStream) Close() error { return s.f.Close() }
