package subprocess

import (
	"fmt"

	"github.com/pkg/errors"
)

// ExecutableNotResolvableError is returned when PATH search (plus the
// fixed fallback directories) exhausts without finding an X_OK match.
type ExecutableNotResolvableError struct {
	Name string
}

func (e *ExecutableNotResolvableError) Error() string {
	return fmt.Sprintf("executable %q could not be resolved against PATH", e.Name)
}

// WorkingDirectoryInvalidError is returned when the configured working
// directory fails an F_OK accessibility check.
type WorkingDirectoryInvalidError struct {
	Path string
	Err  error
}

func (e *WorkingDirectoryInvalidError) Error() string {
	return fmt.Sprintf("working directory %q is not accessible: %v", e.Path, e.Err)
}

func (e *WorkingDirectoryInvalidError) Unwrap() error { return e.Err }

// SpawnFailedError wraps the underlying OS error from the platform shim's
// spawn primitive.
type SpawnFailedError struct {
	OSError error
}

func (e *SpawnFailedError) Error() string {
	return fmt.Sprintf("spawn failed: %v", e.OSError)
}

func (e *SpawnFailedError) Unwrap() error { return e.OSError }

// IoErrorKind names the plumbing operation that failed.
type IoErrorKind string

const (
	IoOpRead  IoErrorKind = "read"
	IoOpWrite IoErrorKind = "write"
	IoOpClose IoErrorKind = "close"
	IoOpDup   IoErrorKind = "dup"
)

// IoError wraps a read/write/close/dup failure encountered while plumbing
// bytes to or from a child's standard stream.
type IoError struct {
	Op      IoErrorKind
	OSError error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error during %s: %v", e.Op, e.OSError)
}

func (e *IoError) Unwrap() error { return e.OSError }

// TimeoutError reports that a teardown step's grace period elapsed. It is
// not necessarily fatal: the teardown sequence escalates to the next
// signal and only surfaces as a terminal error if escalation itself fails.
type TimeoutError struct {
	Step int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("teardown step %d timed out", e.Step)
}

// CancelledError reports that the enclosing Run invocation (or a
// context passed to it) was cancelled.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "subprocess: run was cancelled" }

// UnsupportedOperationError reports a platform-specific capability gap,
// e.g. requesting console-control signal delivery to a detached child on
// Windows.
type UnsupportedOperationError struct {
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation: %s", e.Operation)
}

func wrapIo(op IoErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&IoError{Op: op, OSError: err})
}
