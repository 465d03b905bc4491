package subprocess

import (
	"context"

	"github.com/Microsoft/go-subprocess/internal/log"
	"github.com/Microsoft/go-subprocess/internal/platform"
)

// reap blocks until the child behind exec terminates, decodes its status,
// and stores it on the Execution exactly once.
// The blocking wait itself lives in internal/platform (Wait4 on POSIX,
// WaitForSingleObject on Windows); reap runs it in a goroutine of its own,
// and Run runs reap in its own goroutine, so it never blocks the pumps or
// the user body. No SIGCHLD handler or RegisterWaitForSingleObject
// registration is involved.
func reap(ctx context.Context, exec *Execution) error {
	type result struct {
		status platform.Status
		err    error
	}
	done := make(chan result, 1)
	go func() {
		s, err := platform.Wait(exec.handle)
		done <- result{s, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			log.G(ctx).WithError(r.err).WithField("pid", exec.Pid()).Warn("reaper: wait failed")
			return r.err
		}
		log.G(ctx).WithField("pid", exec.Pid()).WithField("status", statusFromPlatform(r.status).String()).Debug("reaper: child reaped")
		exec.setStatus(statusFromPlatform(r.status))
		return nil
	case <-ctx.Done():
		// The wait itself is not cancellable once issued (the kernel call
		// is blocking); the child is torn down instead, which causes Wait
		// to return shortly after.
		var r result
		select {
		case r = <-done:
		default:
			go func() { _ = exec.Teardown(context.Background(), defaultTeardownSteps()) }()
			r = <-done
		}
		if r.err == nil {
			exec.setStatus(statusFromPlatform(r.status))
		}
		return &CancelledError{}
	}
}
