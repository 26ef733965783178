package audit

import (
	"errors"
	"fmt"
)

// ErrUnknownSession is returned when an operation references a session id
// with no live metrics record.
var ErrUnknownSession = errors.New("unknown audit session")

// ErrAlreadyFinalized is returned when a mutation targets a session that has
// already been finalized.
var ErrAlreadyFinalized = errors.New("session already finalized")

// StorageError wraps a failure of the underlying durable medium.
type StorageError struct {
	Op   string // "append", "save", "create", ...
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// CorruptMetricsError is returned when a metrics record exists on disk but
// cannot be parsed. Corrupt records are never silently repaired.
type CorruptMetricsError struct {
	Path string
	Err  error
}

func (e *CorruptMetricsError) Error() string {
	return fmt.Sprintf("corrupt metrics record at %s: %v", e.Path, e.Err)
}

func (e *CorruptMetricsError) Unwrap() error {
	return e.Err
}
