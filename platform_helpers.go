package subprocess

import (
	"os"

	"github.com/Microsoft/go-subprocess/internal/platform"
)

func platformDevNullRead() (*os.File, error) {
	return platform.OpenDevNull(os.O_RDONLY)
}

func platformDevNullWrite() (*os.File, error) {
	return platform.OpenDevNull(os.O_WRONLY)
}

// isBenignPipeError reports whether err is the expected result of writing
// to a pipe whose read end the child already closed by exiting (EPIPE on
// POSIX, ERROR_BROKEN_PIPE/ERROR_NO_DATA on Windows). A write to a closed
// pipe is not fatal by itself; the pump records it and exits normally.
func isBenignPipeError(err error) bool {
	return platform.IsBenignPipeError(err)
}

// isBenignSignalError reports whether err is ESRCH (process already gone),
// which is treated as benign when sending a post-exit signal.
func isBenignSignalError(err error) bool {
	return platform.IsBenignSignalError(err)
}
