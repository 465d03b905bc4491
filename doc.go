// Package subprocess launches child processes with fully configurable
// input, output, and error streams, observes their termination, and
// streams bytes in and out of them concurrently while preserving strict
// ownership of operating-system resources (file descriptors, pipes,
// process handles).
//
// A Configuration describes what to run, a spawner resolves and launches
// it through the internal/platform shim, and the resulting Execution is
// driven to completion by Run, which pumps bytes between the caller's
// InputSource/OutputSinks and the child's pipes concurrently with an
// optional user body and the reaper.
package subprocess
