// Package platform is the thin shim over raw OS primitives that the rest of
// go-subprocess is built on: pipe creation, spawn, wait, signal delivery,
// and PATH resolution. Each file in this package implements the same
// contract for one GOOS; callers never branch on platform themselves.
package platform

import (
	"fmt"
	"os"
)

// Handle identifies a spawned child across the shim's lifetime: a pid on
// POSIX, and additionally the process handle returned by CreateProcess on
// Windows so the reaper can wait on it without racing pid reuse.
type Handle struct {
	Pid int

	// osHandle is platform-specific (a windows.Handle on Windows, unused on
	// POSIX) and is only touched by this package.
	osHandle uintptr
}

// Status is the decoded result of waiting on a child: either a normal exit
// with a code, or termination by signal.
type Status struct {
	signaled bool
	code     int
}

// Exited builds a Status representing a normal process exit.
func Exited(code int) Status { return Status{signaled: false, code: code} }

// Signaled builds a Status representing termination by signal.
func Signaled(sig int) Status { return Status{signaled: true, code: sig} }

// Signaled reports whether the child was killed by a signal rather than
// exiting normally.
func (s Status) Signaled() bool { return s.signaled }

// Code returns the exit code (Signaled() == false) or the signal number
// (Signaled() == true).
func (s Status) Code() int { return s.code }

func (s Status) String() string {
	if s.signaled {
		return fmt.Sprintf("signaled(%d)", s.code)
	}
	return fmt.Sprintf("exited(%d)", s.code)
}

// FDs carries the three child-side standard stream endpoints a Spawn call
// should bind to file descriptors/handles 0, 1, 2. A nil entry means "leave
// unset" (the caller is responsible for having already bound it to
// /dev/null or an inherited handle before calling Spawn).
type FDs [3]*os.File

// Attrs is the platform-specific subset of a Configuration's platform
// options that only this package's Spawn implementation understands;
// fields meaningless on the current GOOS are simply ignored.
type Attrs struct {
	// POSIX
	UID, GID     int
	HasUIDGID    bool
	Groups       []int
	Pgid         int
	SetPgid      bool
	Setsid       bool
	PreSpawnHook func() error

	// Windows
	CreationFlags       uint32
	CreateNewProcessGrp bool
	HideWindow          bool
	LogonUsername       string
	LogonDomain         string
	LogonPassword       string
}

// AccessMode mirrors the subset of POSIX access(2) modes the Spawner needs.
type AccessMode int

const (
	FileExists AccessMode = iota
	Executable
)

// Signal is a shim-level signal number; the public subprocess package maps
// its named Signal constants onto these per OS.
type Signal int
