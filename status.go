package subprocess

import (
	"fmt"

	"github.com/Microsoft/go-subprocess/internal/platform"
)

// TerminationStatus is the decoded result of waiting on a child: either a
// normal exit with a code, or termination by signal.
type TerminationStatus struct {
	signaled bool
	code     int
}

func statusFromPlatform(s platform.Status) TerminationStatus {
	return TerminationStatus{signaled: s.Signaled(), code: s.Code()}
}

// Exited reports whether the child exited normally (as opposed to being
// killed by a signal).
func (t TerminationStatus) Exited() bool { return !t.signaled }

// Signaled reports whether the child was terminated by a signal.
func (t TerminationStatus) Signaled() bool { return t.signaled }

// ExitCode returns the exit code. Valid only when Exited() is true.
func (t TerminationStatus) ExitCode() int { return t.code }

// TermSignal returns the terminating signal number. Valid only when
// Signaled() is true.
func (t TerminationStatus) TermSignal() int { return t.code }

// Success reports whether the child exited with code 0.
func (t TerminationStatus) Success() bool { return t.Exited() && t.code == 0 }

func (t TerminationStatus) String() string {
	if t.signaled {
		return fmt.Sprintf("Signaled(%d)", t.code)
	}
	return fmt.Sprintf("Exited(%d)", t.code)
}
