package bench

import "fmt"

// Operation identifies the I/O access pattern a run exercises. It is fixed
// for the whole run; every worker in every trial performs the same operation.
type Operation int

const (
	// OpReadArray reads sequentially into the worker's buffer.
	OpReadArray Operation = iota
	// OpReadByteBuffer reads sequentially through the backend's buffered
	// read call. Not every backend distinguishes it from OpReadArray, but
	// the support matrix does.
	OpReadByteBuffer
	// OpReadFully reads exact-length chunks until EOF, then reopens.
	OpReadFully
	// OpPosRead issues positioned reads that do not move the stream cursor.
	OpPosRead
	// OpPosReadFully issues positioned reads of exactly one buffer length.
	OpPosReadFully
	// OpWrite writes the target file once, one buffer at a time.
	OpWrite
)

var operationNames = map[Operation]string{
	OpReadArray:      "ReadArray",
	OpReadByteBuffer: "ReadByteBuffer",
	OpReadFully:      "ReadFully",
	OpPosRead:        "PosRead",
	OpPosReadFully:   "PosReadFully",
	OpWrite:          "Write",
}

func (op Operation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Operation(%d)", int(op))
}

// IsRead reports whether the operation reads rather than writes.
func (op Operation) IsRead() bool {
	return op != OpWrite
}

// IsPosRead reports whether the operation addresses the file by offset
// instead of by the stream cursor.
func (op Operation) IsPosRead() bool {
	return op == OpPosRead || op == OpPosReadFully
}

// ParseOperation maps a configuration string to an Operation.
func ParseOperation(s string) (Operation, error) {
	for op, name := range operationNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}
