//go:build unix

package platform

import "golang.org/x/sys/unix"

// Named signal numbers, indexed by the public subprocess.Signal ordinal.
// Kept as a slice (rather than a map) so lookups are branch-free.
var namedSignals = [...]Signal{
	Signal(unix.SIGINT),
	Signal(unix.SIGTERM),
	Signal(unix.SIGTSTP),
	Signal(unix.SIGCONT),
	Signal(unix.SIGKILL),
	Signal(unix.SIGHUP),
	Signal(unix.SIGQUIT),
	Signal(unix.SIGUSR1),
	Signal(unix.SIGUSR2),
	Signal(unix.SIGALRM),
	Signal(unix.SIGWINCH),
}

// ResolveSignal maps the public, cross-platform signal ordinal (see
// subprocess.Signal) to this platform's numeric signal.
func ResolveSignal(ordinal int) (Signal, bool) {
	if ordinal < 0 || ordinal >= len(namedSignals) {
		return 0, false
	}
	return namedSignals[ordinal], true
}
