package subprocess

import (
	"context"
	"sync"
	"time"

	"github.com/Microsoft/go-subprocess/internal/platform"
)

// executionState models the lifecycle of a spawned child: Running ->
// (TerminationReceived) -> Reaped.
type executionState int32

const (
	stateRunning executionState = iota
	stateReaped
)

// Execution is the live handle to a running child: its id, stream
// accessors, and signal/teardown operations. It is created by the
// spawner on successful spawn and is valid until Run returns.
type Execution struct {
	handle      platform.Handle
	groupLeader bool // true iff the child is its own process-group leader (Setsid or SetProcessGroup)

	mu       sync.Mutex
	state    executionState
	status   TerminationStatus
	statusCh chan struct{} // closed once status is set

	captureDone  chan struct{} // closed once both stdout/stderr captures return
	stdoutResult CapturedOutput
	stderrResult CapturedOutput
}

// Pid returns the child's process id.
func (e *Execution) Pid() int { return e.handle.Pid }

// SendSignal delivers sig to the child, or to its process group if
// toGroup is true. ESRCH-equivalent (process already exited) is treated
// as benign and returns nil.
func (e *Execution) SendSignal(sig Signal, toGroup bool) error {
	resolved, ok := sig.resolve()
	if !ok {
		return &UnsupportedOperationError{Operation: "signal " + sig.String() + " has no equivalent on this platform"}
	}
	if err := platform.SendSignal(e.handle, resolved, toGroup); err != nil {
		if isBenignSignalError(err) {
			return nil
		}
		return err
	}
	return nil
}

// Terminate is a convenience for sending SignalKill to the child, or to
// its process group if the child is a group leader.
func (e *Execution) Terminate() error {
	return e.SendSignal(SignalKill, e.groupLeader)
}

// Teardown sends each step's signal in order, waiting up to its grace
// period for termination before moving to the next step. If the child is
// still alive after the last step, SignalKill is sent unconditionally.
// Signals target the child's process group only when the child was
// actually made a group leader (CreateSession or SetProcessGroup); a
// default-configuration child shares its parent's process group, and
// signaling that group would miss the child entirely (POSIX kill(-pid)
// on a pid that is not a group id returns ESRCH, which is swallowed as
// benign) as well as reaching unrelated processes.
func (e *Execution) Teardown(ctx context.Context, steps []TeardownStep) error {
	for _, step := range steps {
		if e.Exited() {
			return nil
		}
		if err := e.SendSignal(step.Signal, e.groupLeader); err != nil {
			return err
		}
		if e.waitFor(ctx, step.Grace) {
			return nil
		}
	}
	if e.Exited() {
		return nil
	}
	return e.Terminate()
}

// waitFor blocks until the child has been reaped, ctx is done, or grace
// elapses, returning true iff the child terminated within grace.
func (e *Execution) waitFor(ctx context.Context, grace time.Duration) bool {
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-e.statusCh:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// Exited reports whether the termination status has been observed yet
// (i.e. the Execution has moved to the Reaped state).
func (e *Execution) Exited() bool {
	select {
	case <-e.statusCh:
		return true
	default:
		return false
	}
}

// Status returns the termination status once Reaped, or false if the
// child is still running.
func (e *Execution) Status() (TerminationStatus, bool) {
	if !e.Exited() {
		return TerminationStatus{}, false
	}
	return e.status, true
}

// Wait blocks until the child has been reaped or ctx is done, whichever
// comes first, and returns its termination status in the former case.
func (e *Execution) Wait(ctx context.Context) (TerminationStatus, error) {
	select {
	case <-e.statusCh:
		return e.status, nil
	case <-ctx.Done():
		return TerminationStatus{}, ctx.Err()
	}
}

// CollectedOutput blocks until the stdout/stderr sinks given to RunDetached
// have finished capturing (i.e. the child closed both streams) or ctx is
// done, and returns whatever they collected. For sinks that don't collect
// (Discard, ToFileDescriptor, StreamOutput) the returned values are zero.
func (e *Execution) CollectedOutput(ctx context.Context) (stdout, stderr CapturedOutput, err error) {
	select {
	case <-e.captureDone:
		return e.stdoutResult, e.stderrResult, nil
	case <-ctx.Done():
		return CapturedOutput{}, CapturedOutput{}, ctx.Err()
	}
}

// setStatus is called exactly once, by the reaper.
func (e *Execution) setStatus(s TerminationStatus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateReaped {
		return
	}
	e.state = stateReaped
	e.status = s
	close(e.statusCh)
}

func newExecution(h platform.Handle, groupLeader bool) *Execution {
	return &Execution{
		handle:      h,
		groupLeader: groupLeader,
		statusCh:    make(chan struct{}),
		captureDone: make(chan struct{}),
	}
}
