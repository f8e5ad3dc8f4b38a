// Package backend implements the storage clients the benchmark drives:
// an HDFS-compatible client, the storage system's S3-compatible object
// gateway, and a local POSIX directory (e.g. a FUSE mountpoint).
//
// All variants satisfy the capability contract consumed by the engine
// (bench.Backend); variants reject operation kinds they cannot serve at
// configuration time, never silently degrade.
package backend

import (
	"context"
	"fmt"
	"io"

	"github.com/clusterfs/fsbench/internal/bench"
)

// Kind selects a backend variant.
type Kind string

const (
	KindHDFS    Kind = "hdfs"
	KindGateway Kind = "gateway"
	KindLocal   Kind = "local"
)

// Config carries the connection settings for every variant; only the fields
// of the selected Kind are consulted.
type Config struct {
	Kind Kind

	// HDFS-compatible client.
	NameNode string
	User     string

	// Object gateway (S3-compatible).
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// New creates a single backend connection of the configured kind.
func New(ctx context.Context, cfg Config) (bench.Backend, error) {
	switch cfg.Kind {
	case KindHDFS:
		return newHDFS(cfg)
	case KindGateway:
		return newGateway(ctx, cfg)
	case KindLocal:
		return newLocal(), nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Kind)
	}
}

// Pool pre-creates backend connections so that connection setup does not
// pollute measurements of later trials. Workers take connections round-robin
// by index.
type Pool struct {
	backends []bench.Backend
}

// NewPool creates n connections of the configured kind.
func NewPool(ctx context.Context, cfg Config, n int) (*Pool, error) {
	if n <= 0 {
		n = 1
	}
	p := &Pool{backends: make([]bench.Backend, 0, n)}
	for i := 0; i < n; i++ {
		b, err := New(ctx, cfg)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("backend connection %d: %w", i, err)
		}
		p.backends = append(p.backends, b)
	}
	return p, nil
}

// Backends returns the pooled connections.
func (p *Pool) Backends() []bench.Backend {
	return p.backends
}

// Close closes every pooled connection that supports closing.
func (p *Pool) Close() error {
	var firstErr error
	for _, b := range p.backends {
		if c, ok := b.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func unsupported(kind Kind, op bench.Operation) error {
	return fmt.Errorf("backend %s does not support operation %s", kind, op)
}
