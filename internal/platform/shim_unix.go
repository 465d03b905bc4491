//go:build unix

package platform

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// IsBenignPipeError reports whether err is EPIPE or an already-closed
// local file handle, the two ways a write to a pipe the child has exited
// out from under us can fail.
func IsBenignPipeError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, unix.EPIPE) || errors.Is(err, fs.ErrClosed)
}

// IsBenignSignalError reports whether err is ESRCH: the process was
// already gone when the signal was sent.
func IsBenignSignalError(err error) bool {
	return err != nil && errors.Is(err, unix.ESRCH)
}

// fallbackSearchDirs is appended to PATH during executable resolution, per
// a fixed search order.
var fallbackSearchDirs = []string{"/usr/bin", "/bin", "/usr/sbin", "/sbin", "/usr/local/bin"}

// OpenDevNull opens /dev/null for the given mode (O_RDONLY, O_WRONLY, ...).
func OpenDevNull(flag int) (*os.File, error) {
	return os.OpenFile(os.DevNull, flag, 0)
}

// PathAccessible reports whether path is accessible under the given mode,
// mirroring access(2) semantics.
func PathAccessible(path string, mode AccessMode) bool {
	var how uint32 = unix.F_OK
	if mode == Executable {
		how = unix.X_OK
	}
	return unix.Access(path, how) == nil
}

// SearchPath resolves name against pathEnv, then the fixed fallback
// directories, returning the first X_OK match. Absolute/relative paths
// containing a slash are never searched: they are checked for X_OK
// directly and returned as given.
func SearchPath(name string, pathEnv string) (string, error) {
	if strings.ContainsRune(name, '/') {
		if PathAccessible(name, Executable) {
			return name, nil
		}
		return "", os.ErrNotExist
	}

	dirs := splitPath(pathEnv)
	dirs = append(dirs, fallbackSearchDirs...)
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if PathAccessible(candidate, Executable) {
			return candidate, nil
		}
	}
	return "", os.ErrNotExist
}

func splitPath(pathEnv string) []string {
	if pathEnv == "" {
		return nil
	}
	return strings.Split(pathEnv, string(os.PathListSeparator))
}

// OpenPipe creates an OS pipe pair with both ends close-on-exec by default;
// Spawn's dup of a child-side end onto fd 0, 1 or 2 in the child yields a
// descriptor without CLOEXEC, so only those three survive exec.
func OpenPipe() (r, w *os.File, err error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return nil, nil, err
	}
	return os.NewFile(uintptr(fds[0]), "|0"), os.NewFile(uintptr(fds[1]), "|1"), nil
}

// SendSignal delivers sig to the process (or, if toGroup, its process
// group). ESRCH (process already gone) is treated as benign by the caller.
func SendSignal(h Handle, sig Signal, toGroup bool) error {
	pid := h.Pid
	if toGroup {
		pid = -pid
	}
	return unix.Kill(pid, unix.Signal(sig))
}

// Wait blocks until the child identified by h has terminated and decodes
// its raw wait status.
func Wait(h Handle) (Status, error) {
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(h.Pid, &ws, 0, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return Status{}, err
		}
		break
	}
	switch {
	case ws.Exited():
		return Exited(ws.ExitStatus()), nil
	case ws.Signaled():
		return Signaled(int(ws.Signal())), nil
	default:
		// Stopped/continued statuses are not terminal; keep waiting.
		return Wait(h)
	}
}
