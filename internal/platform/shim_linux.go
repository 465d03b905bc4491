//go:build linux

package platform

import (
	"syscall"
)

// Spawn performs an atomic fork+exec via the runtime's own forkAndExecInChild
// (syscall.ForkExec), the same primitive os/exec is built on: the Go
// runtime stops the world across the fork so no other goroutine's state
// leaks into the child before execve.
//
// The pre-spawn hook cannot be threaded into syscall.ForkExec's child-side
// path without reimplementing it unsafely outside the runtime; we run it
// here, on the parent thread, immediately before the fork instead of
// between fork and exec. See DESIGN.md for the tradeoff.
func Spawn(execPath string, argv []string, envp []string, dir string, fds FDs, attrs *Attrs) (Handle, error) {
	// The Spawner always binds all three streams (to a pipe end or
	// /dev/null) before calling Spawn, so every entry here is valid.
	files := []uintptr{fds[0].Fd(), fds[1].Fd(), fds[2].Fd()}

	sys := &syscall.SysProcAttr{}
	if attrs != nil {
		if attrs.PreSpawnHook != nil {
			if err := attrs.PreSpawnHook(); err != nil {
				return Handle{}, err
			}
		}
		if attrs.HasUIDGID {
			sys.Credential = &syscall.Credential{
				Uid:    uint32(attrs.UID),
				Gid:    uint32(attrs.GID),
				Groups: toUint32(attrs.Groups),
			}
		}
		sys.Setsid = attrs.Setsid
		if attrs.SetPgid {
			sys.Setpgid = true
			sys.Pgid = attrs.Pgid
		}
	}

	pid, _, err := syscall.StartProcess(execPath, argv, &syscall.ProcAttr{
		Dir:   dir,
		Env:   envp,
		Files: files,
		Sys:   sys,
	})
	if err != nil {
		return Handle{}, err
	}
	return Handle{Pid: pid}, nil
}

func toUint32(in []int) []uint32 {
	if len(in) == 0 {
		return nil
	}
	out := make([]uint32, len(in))
	for i, v := range in {
		out[i] = uint32(v)
	}
	return out
}
