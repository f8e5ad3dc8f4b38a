package bench

import "context"

// ReadStream is an open read handle against a benchmark file. Sequential
// calls advance the cursor; positioned calls do not.
type ReadStream interface {
	// Read fills p from the cursor position. Returns io.EOF at end of file.
	Read(p []byte) (int, error)
	// ReadFully reads exactly len(p) bytes from the cursor position.
	ReadFully(p []byte) error
	// ReadAt fills p from the given offset without moving the cursor.
	ReadAt(p []byte, off int64) (int, error)
	// ReadFullyAt reads exactly len(p) bytes from the given offset.
	ReadFullyAt(p []byte, off int64) error
	// Seek moves the cursor to an absolute offset.
	Seek(off int64) error
	// Pos returns the current cursor position.
	Pos() int64
	Close() error
}

// WriteStream is an open write handle against a benchmark file.
type WriteStream interface {
	Write(p []byte) (int, error)
	// Written returns the number of bytes written so far.
	Written() int64
	Close() error
}

// Backend is the pluggable storage client a worker drives. Implementations
// live in internal/backend; workers only see this capability set.
type Backend interface {
	Name() string
	// Supports rejects operation kinds the backend cannot serve. Called
	// once before any trial starts; a non-nil error is fatal to the run.
	Supports(op Operation) error
	OpenRead(ctx context.Context, path string) (ReadStream, error)
	OpenWrite(ctx context.Context, path string, blockSize int64) (WriteStream, error)
}
