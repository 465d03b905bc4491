//go:build unix

package subprocess

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunEchoHelloWorld(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := NewConfiguration("echo", "Hello, world!")
	out := CollectString(1024, UTF8)

	res, err := Run(ctx, cfg, NoInput(), out, DiscardOutput(), nil)
	require.NoError(t, err)
	require.True(t, res.Status.Success())

	str, ok := res.Stdout.String()
	require.True(t, ok)
	require.Equal(t, "Hello, world!\n", str)
}

func TestRunBashHelloWorld(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := NewConfiguration("bash", "-c", "echo Hello World!")
	out := CollectString(1024, UTF8)

	res, err := Run(ctx, cfg, NoInput(), out, DiscardOutput(), nil)
	require.NoError(t, err)

	str, ok := res.Stdout.String()
	require.True(t, ok)
	require.Equal(t, "Hello World!\n", str)
}

func TestRunRoundTripBytes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buf := make([]byte, 64*1024)
	_, err := rand.Read(buf)
	require.NoError(t, err)

	cfg := NewConfiguration("cat")
	out := CollectBytes(len(buf))

	res, err := Run(ctx, cfg, BytesInput(buf), out, DiscardOutput(), nil)
	require.NoError(t, err)
	require.True(t, res.Status.Success())

	got, ok := res.Stdout.Bytes()
	require.True(t, ok)
	require.True(t, bytes.Equal(buf, got))
}

func TestRunLimitTruncation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buf := []byte("0123456789abcdefghijklmnopqrstuv")
	const limit = 4

	cfg := NewConfiguration("cat")
	out := CollectBytes(limit)

	res, err := Run(ctx, cfg, BytesInput(buf), out, DiscardOutput(), nil)
	require.NoError(t, err)
	require.True(t, res.Status.Success())

	got, ok := res.Stdout.Bytes()
	require.True(t, ok)
	require.Equal(t, buf[:limit], got)
}

func TestRunEnvironmentOverride(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := NewConfiguration("printenv", "HOME").WithEnvironment(InheritWith(map[string]string{"HOME": "/x"}))
	out := CollectString(1024, UTF8)

	res, err := Run(ctx, cfg, NoInput(), out, DiscardOutput(), nil)
	require.NoError(t, err)

	str, ok := res.Stdout.String()
	require.True(t, ok)
	require.Equal(t, "/x", strings.TrimSpace(str))
}

func TestRunCustomEnvIsolation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := NewConfiguration("printenv").WithEnvironment(Custom(map[string]string{"PATH": "/bin:/usr/bin"}))
	out := CollectString(1024, UTF8)

	res, err := Run(ctx, cfg, NoInput(), out, DiscardOutput(), nil)
	require.NoError(t, err)

	str, ok := res.Stdout.String()
	require.True(t, ok)
	require.Equal(t, "PATH=/bin:/usr/bin", strings.TrimSpace(str))
}

func TestRunWorkingDirectory(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dir := t.TempDir()
	real, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	cfg := NewConfiguration("pwd").WithWorkingDirectory(dir)
	out := CollectString(1024, UTF8)

	res, err := Run(ctx, cfg, NoInput(), out, DiscardOutput(), nil)
	require.NoError(t, err)

	str, ok := res.Stdout.String()
	require.True(t, ok)
	require.Equal(t, real, strings.TrimSpace(str))
}

func TestRunExecutableNotResolvable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := NewConfiguration("does-not-exist-in-PATH")
	_, err := Run(ctx, cfg, NoInput(), DiscardOutput(), DiscardOutput(), nil)

	var target *ExecutableNotResolvableError
	require.ErrorAs(t, err, &target)
}

func TestRunSpawnFailedLiteralPath(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := NewConfiguration("/usr/bin/do-not-exist-xyz")
	_, err := Run(ctx, cfg, NoInput(), DiscardOutput(), DiscardOutput(), nil)

	var target *SpawnFailedError
	require.ErrorAs(t, err, &target)
}

func TestRunDetachedEcho(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := NewConfiguration("bash", "-c", "echo $$")
	out := CollectString(1024, UTF8)

	exec, err := RunDetached(ctx, cfg, NoInput(), out, DiscardOutput())
	require.NoError(t, err)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	_, err = exec.Wait(waitCtx)
	require.NoError(t, err)

	stdout, _, err := exec.CollectedOutput(waitCtx)
	require.NoError(t, err)

	str, ok := stdout.String()
	require.True(t, ok)
	require.Equal(t, strconv.Itoa(exec.Pid()), strings.TrimSpace(str))
}

func TestTerminateWhileRunning(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// cat must actually be blocked reading when the signal arrives, so its
	// stdin is a CustomWriter the test keeps open rather than NoInput
	// (which binds stdin to /dev/null and lets cat hit EOF and exit 0
	// before the body gets a chance to signal it). This Configuration
	// doesn't make cat a process-group leader, so the signal targets the
	// process itself, not a group.
	cfg := NewConfiguration("cat")
	in, writer := CustomWriterInput()
	body := func(ctx context.Context, exec *Execution) (any, error) {
		err := exec.SendSignal(SignalTerminate, false)
		_ = writer.Finish()
		return nil, err
	}

	res, err := Run(ctx, cfg, in, DiscardOutput(), DiscardOutput(), body)
	require.NoError(t, err)
	require.True(t, res.Status.Signaled())
}

func TestSignalDeliveryOrdering(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	script := `
trap 'echo saw SIGQUIT' QUIT
trap 'echo saw SIGTERM' TERM
trap 'echo saw SIGINT; exit 42' INT
while true; do sleep 0.05; done
`
	cfg := NewConfiguration("bash", "-c", script)
	out := CollectString(1024, UTF8)

	steps := []TeardownStep{
		{Signal: SignalQuit, Grace: 200 * time.Millisecond},
		{Signal: SignalTerminate, Grace: 200 * time.Millisecond},
		{Signal: SignalInterrupt, Grace: time.Second},
	}
	body := func(ctx context.Context, exec *Execution) (any, error) {
		time.Sleep(50 * time.Millisecond)
		return nil, exec.Teardown(ctx, steps)
	}

	res, err := Run(ctx, cfg, NoInput(), out, DiscardOutput(), body)
	require.NoError(t, err)

	str, ok := res.Stdout.String()
	require.True(t, ok)
	lines := strings.Split(strings.TrimSpace(str), "\n")
	require.Equal(t, []string{"saw SIGQUIT", "saw SIGTERM", "saw SIGINT"}, lines)
	require.Equal(t, 42, res.Status.ExitCode())
}

func TestRunNewSessionPGIDMatchesPID(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := NewConfiguration("bash", "-c", "ps -o pgid= -o tpgid= -p $$").
		WithPlatformOptions(PlatformOptions{CreateSession: true})
	out := CollectString(1024, UTF8)

	res, err := Run(ctx, cfg, NoInput(), out, DiscardOutput(), nil)
	require.NoError(t, err)
	require.True(t, res.Status.Success())

	str, ok := res.Stdout.String()
	require.True(t, ok)
	fields := strings.Fields(str)
	require.Len(t, fields, 2, "expected `pgid tpgid` from ps, got %q", str)
	pgid := fields[0]
	tpgid, err := strconv.Atoi(fields[1])
	require.NoError(t, err)

	require.Equal(t, strconv.Itoa(res.Pid), pgid, "a session leader's pgid must equal its pid")
	require.LessOrEqual(t, tpgid, 0, "a new session has no controlling terminal, so tpgid must be <= 0")
}

// TestFDConservation verifies that launching many concurrent runs never
// leaks parent-held descriptors: the open-fd count before and after a burst
// of concurrent runs is identical, and none of the runs fail with EMFILE.
func TestFDConservation(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("fd counting via /proc/self/fd is linux-specific")
	}

	countOpenFDs := func() int {
		entries, err := os.ReadDir("/proc/self/fd")
		require.NoError(t, err)
		return len(entries)
	}

	before := countOpenFDs()

	const n = 64
	var wg sync.WaitGroup
	errs := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			cfg := NewConfiguration("echo", "fd-conservation")
			_, err := Run(ctx, cfg, NoInput(), CollectBytes(64), DiscardOutput(), nil)
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	after := countOpenFDs()
	require.Equal(t, before, after, "parent-held fd count must be unchanged after a burst of concurrent runs")
}
