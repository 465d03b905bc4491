package subprocess

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Microsoft/go-subprocess/internal/log"
)

// CollectedResult is Run's return value: the child's pid, its
// termination status, whatever stdout/stderr collected (zero value for
// sinks that don't collect), and the user body's return value, if any.
type CollectedResult struct {
	Pid       int
	Status    TerminationStatus
	Stdout    CapturedOutput
	Stderr    CapturedOutput
	BodyValue any
}

// Body is the optional user-supplied function Run runs concurrently
// with the pumps and the reaper, given a view of the live Execution.
type Body func(ctx context.Context, exec *Execution) (any, error)

// defaultTeardown is the escalation Run applies if the user body
// returns an error: SIGTERM with a short grace, then an unconditional
// SIGKILL-equivalent.
func defaultTeardown() []TeardownStep {
	return []TeardownStep{{Signal: SignalTerminate, Grace: defaultTeardownGrace}}
}

var defaultTeardownGrace = 2 * time.Second

// Run spawns cfg and drives it to completion: it starts the input pump,
// the stdout/stderr capture pumps, the reaper, and — if body is non-nil —
// the user body, all concurrently, then assembles a CollectedResult.
//
// The reaper runs from the start, alongside the body, rather than waiting
// for it: a body that calls Execution.Wait or Execution.Teardown needs to
// be able to observe the child's actual exit, which only the reaper
// reports. Run itself still doesn't return until every goroutine —
// including the body — has finished. If the body returns an error,
// Teardown is invoked before Run returns.
func Run(ctx context.Context, cfg Configuration, in InputSource, out, errOut OutputSink, body Body) (_ CollectedResult, err error) {
	exec, serr := spawn(ctx, cfg, in, out, errOut)
	if serr != nil {
		return CollectedResult{}, serr
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return in.pump(gctx)
	})

	var stdoutResult, stderrResult CapturedOutput
	g.Go(func() error {
		r, err := out.capture(gctx)
		stdoutResult = r
		return err
	})
	g.Go(func() error {
		r, err := errOut.capture(gctx)
		stderrResult = r
		return err
	})

	g.Go(func() error {
		return reap(gctx, exec)
	})

	var bodyValue any
	var bodyErr error
	if body != nil {
		g.Go(func() error {
			v, err := body(gctx, exec)
			bodyValue, bodyErr = v, err
			if err != nil {
				log.G(ctx).WithError(err).Debug("run: body returned error, tearing down")
				_ = exec.Teardown(ctx, defaultTeardownSteps())
			}
			return err
		})
	}

	runErr := g.Wait()
	if runErr == nil {
		runErr = bodyErr
	}
	if runErr != nil {
		if ctx.Err() != nil {
			_ = exec.Teardown(context.Background(), defaultTeardownSteps())
			<-exec.statusCh
			return CollectedResult{}, &CancelledError{}
		}
		return CollectedResult{}, runErr
	}

	status, _ := exec.Status()
	return CollectedResult{
		Pid:       exec.Pid(),
		Status:    status,
		Stdout:    stdoutResult,
		Stderr:    stderrResult,
		BodyValue: bodyValue,
	}, nil
}

func defaultTeardownSteps() []TeardownStep {
	return defaultTeardown()
}

// RunDetached spawns cfg and returns its Execution immediately, without
// waiting for the child to exit. The input pump, the stdout/stderr
// captures, and the reaper all run in background goroutines rooted in a
// detached context, so they survive ctx being cancelled once the spawn
// itself has succeeded — ctx only governs the spawn. Use Execution.Wait
// and Execution.CollectedOutput to observe completion later, and
// Execution.SendSignal/Terminate/Teardown to manage the child's lifetime.
func RunDetached(ctx context.Context, cfg Configuration, in InputSource, out, errOut OutputSink) (*Execution, error) {
	exec, serr := spawn(ctx, cfg, in, out, errOut)
	if serr != nil {
		return nil, serr
	}

	bg := context.Background()

	go func() {
		if err := in.pump(bg); err != nil && !isBenignPipeError(err) {
			log.G(bg).WithError(err).WithField("pid", exec.Pid()).Debug("detached input pump failed")
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r, err := out.capture(bg)
		if err != nil {
			log.G(bg).WithError(err).WithField("pid", exec.Pid()).Debug("detached stdout capture failed")
		}
		exec.mu.Lock()
		exec.stdoutResult = r
		exec.mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		r, err := errOut.capture(bg)
		if err != nil {
			log.G(bg).WithError(err).WithField("pid", exec.Pid()).Debug("detached stderr capture failed")
		}
		exec.mu.Lock()
		exec.stderrResult = r
		exec.mu.Unlock()
	}()
	go func() {
		wg.Wait()
		close(exec.captureDone)
	}()

	go func() {
		if err := reap(bg, exec); err != nil {
			log.G(bg).WithError(err).WithField("pid", exec.Pid()).Debug("detached reap failed")
		}
	}()

	return exec, nil
}
