package subprocess

// PlatformOptions carries the platform-specific knobs.
// Fields are grouped by the OS that consumes them; a field is simply
// ignored on every other OS rather than causing an error.
type PlatformOptions struct {
	// POSIX
	UID, GID         int
	SetCredential    bool
	SupplementaryGID []int
	ProcessGroupID   int
	SetProcessGroup  bool
	CreateSession    bool
	// PreSpawnHook runs in the parent process immediately before the child
	// is launched (before syscall.StartProcess on Linux, before posix_spawn
	// on Darwin); it does not run in the child between fork and exec. It
	// must be safe to call with no captured mutable state.
	PreSpawnHook func() error

	// Windows
	CreationFlags         uint32
	CreateNewProcessGroup bool
	HideWindow            bool
	LogonUsername         string
	LogonDomain           string
	LogonPassword         string
}

// Configuration is an immutable description of a process to spawn. Build
// one with NewConfiguration and the With* methods, which each return a
// modified copy.
type Configuration struct {
	executable    string
	literalPath   bool
	argv0Override string
	arguments     []string
	environment   Environment
	workingDir    string
	hasWorkingDir bool
	platformOpts  PlatformOptions
}

// NewConfiguration describes a process to run. If executable contains a
// path separator or is absolute, it is treated as a literal path and
// bypasses PATH search; otherwise it is resolved by the Spawner against
// PATH plus the fixed fallback directories.
func NewConfiguration(executable string, arguments ...string) Configuration {
	return Configuration{
		executable:  executable,
		literalPath: isLiteralPath(executable),
		arguments:   append([]string(nil), arguments...),
		environment: Inherit(),
	}
}

// WithArgv0 overrides argv[0] independently of the resolved executable
// path (an argv0 override).
func (c Configuration) WithArgv0(argv0 string) Configuration {
	c.argv0Override = argv0
	return c
}

// WithEnvironment sets the child's environment policy.
func (c Configuration) WithEnvironment(env Environment) Configuration {
	c.environment = env
	return c
}

// WithWorkingDirectory sets the child's working directory. An empty
// Configuration inherits the parent's working directory.
func (c Configuration) WithWorkingDirectory(dir string) Configuration {
	c.workingDir = dir
	c.hasWorkingDir = dir != ""
	return c
}

// WithPlatformOptions sets the platform-specific knobs.
func (c Configuration) WithPlatformOptions(opts PlatformOptions) Configuration {
	c.platformOpts = opts
	return c
}

func isLiteralPath(executable string) bool {
	for _, r := range executable {
		if r == '/' || r == '\\' {
			return true
		}
	}
	return false
}
