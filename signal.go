package subprocess

import (
	"time"

	"github.com/Microsoft/go-subprocess/internal/platform"
)

// Signal is a cross-platform process signal, exposed as named constants
// rather than raw OS signal numbers. Each OS's
// internal/platform shim maps these onto its own numeric signal (or, on
// Windows, a console-control event) via ResolveSignal.
type Signal int

const (
	SignalInterrupt Signal = iota
	SignalTerminate
	SignalSuspend
	SignalResume
	SignalKill
	SignalHangup
	SignalQuit
	SignalUser1
	SignalUser2
	SignalAlarm
	SignalWindowChange
)

func (s Signal) String() string {
	switch s {
	case SignalInterrupt:
		return "INT"
	case SignalTerminate:
		return "TERM"
	case SignalSuspend:
		return "TSTP"
	case SignalResume:
		return "CONT"
	case SignalKill:
		return "KILL"
	case SignalHangup:
		return "HUP"
	case SignalQuit:
		return "QUIT"
	case SignalUser1:
		return "USR1"
	case SignalUser2:
		return "USR2"
	case SignalAlarm:
		return "ALRM"
	case SignalWindowChange:
		return "WINCH"
	default:
		return "UNKNOWN"
	}
}

func (s Signal) resolve() (platform.Signal, bool) {
	return platform.ResolveSignal(int(s))
}

// TeardownStep is one escalation step: send Signal, then wait up to Grace
// before moving to the next step (or, after the last step, sending
// SignalKill unconditionally).
type TeardownStep struct {
	Signal Signal
	Grace  time.Duration
}
