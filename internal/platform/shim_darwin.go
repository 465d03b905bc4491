//go:build darwin

package platform

/*
#include <spawn.h>
#include <signal.h>
#include <stdlib.h>
#include <string.h>

extern char **environ;

// setup_file_actions avoids cgo's restrictions on
// taking the address of a C struct field from Go by doing the three
// dup2-into-child actions entirely on the C side.
static int setup_file_actions(posix_spawn_file_actions_t *actions, int in, int out, int errfd) {
	int rc;
	if ((rc = posix_spawn_file_actions_init(actions)) != 0) return rc;
	if (in >= 0 && (rc = posix_spawn_file_actions_adddup2(actions, in, 0)) != 0) return rc;
	if (out >= 0 && (rc = posix_spawn_file_actions_adddup2(actions, out, 1)) != 0) return rc;
	if (errfd >= 0 && (rc = posix_spawn_file_actions_adddup2(actions, errfd, 2)) != 0) return rc;
	return 0;
}
*/
import "C"

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Spawn launches the child via posix_spawn, the Darwin
// branch: file actions duplicate the three fds onto 0/1/2, SETSIGMASK is
// cleared, SETSIGDEF resets all dispositions, and CLOEXEC_DEFAULT ensures
// any fd not explicitly duplicated stays closed in the child. Darwin's
// posix_spawn is a true kernel primitive (not fork+exec under the hood),
// which is why it gets its own branch rather than folding
// it into the generic POSIX path used by Linux.
func Spawn(execPath string, argv []string, envp []string, dir string, fds FDs, attrs *Attrs) (Handle, error) {
	cPath := C.CString(execPath)
	defer C.free(unsafe.Pointer(cPath))

	cArgv := cStringArray(argv)
	defer freeCStringArray(cArgv)
	cEnvp := cStringArray(envp)
	defer freeCStringArray(cEnvp)

	var actions C.posix_spawn_file_actions_t
	in, out, errfd := C.int(-1), C.int(-1), C.int(-1)
	if fds[0] != nil {
		in = C.int(fds[0].Fd())
	}
	if fds[1] != nil {
		out = C.int(fds[1].Fd())
	}
	if fds[2] != nil {
		errfd = C.int(fds[2].Fd())
	}
	if rc := C.setup_file_actions(&actions, in, out, errfd); rc != 0 {
		return Handle{}, unix.Errno(rc)
	}
	defer C.posix_spawn_file_actions_destroy(&actions)

	var sigmaskEmpty C.sigset_t
	C.sigemptyset(&sigmaskEmpty)
	var sigdefAll C.sigset_t
	C.sigfillset(&sigdefAll)

	var attr C.posix_spawnattr_t
	C.posix_spawnattr_init(&attr)
	defer C.posix_spawnattr_destroy(&attr)
	C.posix_spawnattr_setsigmask(&attr, &sigmaskEmpty)
	C.posix_spawnattr_setsigdefault(&attr, &sigdefAll)

	var flags C.short = C.POSIX_SPAWN_SETSIGMASK | C.POSIX_SPAWN_SETSIGDEF | C.POSIX_SPAWN_CLOEXEC_DEFAULT
	if attrs != nil && attrs.Setsid {
		flags |= C.POSIX_SPAWN_SETSID
	}
	C.posix_spawnattr_setflags(&attr, flags)

	// Working-directory handling: posix_spawn has no per-call chdir, so
	// Spawn saves the current directory as an fd, changes into dir, spawns
	// while there, and changes back via fchdir.
	if dir != "" {
		saved, err := unix.Open(".", unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			return Handle{}, err
		}
		defer unix.Close(saved)
		if err := unix.Chdir(dir); err != nil {
			return Handle{}, err
		}
		defer unix.Fchdir(saved)
	}

	if attrs != nil && attrs.PreSpawnHook != nil {
		if err := attrs.PreSpawnHook(); err != nil {
			return Handle{}, err
		}
	}

	var pid C.pid_t
	rc := C.posix_spawn(&pid, cPath, &actions, &attr, cArgv, cEnvp)
	if rc != 0 {
		return Handle{}, unix.Errno(rc)
	}

	if attrs != nil && attrs.SetPgid {
		_ = unix.Setpgid(int(pid), attrs.Pgid)
	}

	return Handle{Pid: int(pid)}, nil
}

func cStringArray(in []string) **C.char {
	out := C.malloc(C.size_t(len(in)+1) * C.size_t(unsafe.Sizeof(uintptr(0))))
	slice := (*[1 << 20]*C.char)(out)[: len(in)+1 : len(in)+1]
	for i, s := range in {
		slice[i] = C.CString(s)
	}
	slice[len(in)] = nil
	return (**C.char)(out)
}

func freeCStringArray(arr **C.char) {
	slice := (*[1 << 20]*C.char)(unsafe.Pointer(arr))
	for i := 0; slice[i] != nil; i++ {
		C.free(unsafe.Pointer(slice[i]))
	}
	C.free(unsafe.Pointer(arr))
}
