package subprocess

import (
	"context"
	"os"

	"github.com/Microsoft/go-subprocess/internal/log"
	"github.com/Microsoft/go-subprocess/internal/platform"
)

// spawn implements the launch sequence: materialize environment,
// resolve the executable, validate the working directory, obtain the
// three child-side fds, build argv, invoke the platform shim, and on any
// failure after fd acquisition, close every opened fd before surfacing the
// error.
func spawn(ctx context.Context, cfg Configuration, in InputSource, out, errOut OutputSink) (_ *Execution, err error) {
	envp, everr := cfg.environment.materialize()
	if everr != nil {
		return nil, everr
	}

	execPath := cfg.executable
	if !cfg.literalPath {
		resolved, serr := platform.SearchPath(cfg.executable, cfg.environment.path())
		if serr != nil {
			return nil, &ExecutableNotResolvableError{Name: cfg.executable}
		}
		execPath = resolved
	} else if !platform.PathAccessible(execPath, platform.Executable) {
		return nil, &SpawnFailedError{OSError: os.ErrNotExist}
	}

	if cfg.hasWorkingDir {
		if !platform.PathAccessible(cfg.workingDir, platform.FileExists) {
			return nil, &WorkingDirectoryInvalidError{Path: cfg.workingDir, Err: os.ErrNotExist}
		}
	}

	var opened []*os.File
	closeOpened := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	defer func() {
		if err != nil {
			closeOpened()
			for _, s := range []any{in, out, errOut} {
				switch v := s.(type) {
				case *bytesInput:
					v.p.closeBoth()
				case *asyncSeqInput:
					v.p.closeBoth()
				case *customWriterInput:
					v.p.closeBoth()
				case *collectOutput:
					v.p.closeBoth()
				case *streamOutput:
					v.p.closeBoth()
				}
			}
		}
	}()

	stdin, serr := in.childEnd()
	if serr != nil {
		return nil, wrapIo(IoOpDup, serr)
	}
	if _, ok := in.(*fdInput); !ok {
		opened = append(opened, stdin)
	}

	stdout, serr := out.childEnd()
	if serr != nil {
		return nil, wrapIo(IoOpDup, serr)
	}
	if _, ok := out.(*fdOutput); !ok {
		opened = append(opened, stdout)
	}

	stderr, serr := errOut.childEnd()
	if serr != nil {
		return nil, wrapIo(IoOpDup, serr)
	}
	if _, ok := errOut.(*fdOutput); !ok {
		opened = append(opened, stderr)
	}

	argv0 := execPath
	if cfg.argv0Override != "" {
		argv0 = cfg.argv0Override
	}
	argv := append([]string{argv0}, cfg.arguments...)

	attrs := toPlatformAttrs(cfg.platformOpts)

	log.G(ctx).WithField("exec", execPath).Debug("spawner: spawning")
	handle, serr := platform.Spawn(execPath, argv, envp, cfg.workingDir, platform.FDs{stdin, stdout, stderr}, attrs)
	if serr != nil {
		log.G(ctx).WithError(serr).Error("spawner: spawn failed")
		return nil, &SpawnFailedError{OSError: serr}
	}

	// Parent's copies of the child-side ends it opened itself are closed
	// now that the child has inherited them; fds the
	// caller supplied directly (FromFileDescriptor/ToFileDescriptor) are
	// only closed if the caller asked for closeAfterSpawn.
	if in.closeAfterSpawn() {
		if f, ok := in.(*fdInput); ok {
			_ = f.f.Close()
		}
	}
	if out.closeAfterSpawn() {
		if f, ok := out.(*fdOutput); ok {
			_ = f.f.Close()
		}
	}
	if errOut.closeAfterSpawn() {
		if f, ok := errOut.(*fdOutput); ok {
			_ = f.f.Close()
		}
	}
	closeOpened()

	groupLeader := cfg.platformOpts.SetProcessGroup || cfg.platformOpts.CreateSession
	return newExecution(handle, groupLeader), nil
}

func toPlatformAttrs(o PlatformOptions) *platform.Attrs {
	return &platform.Attrs{
		UID:                 o.UID,
		GID:                 o.GID,
		HasUIDGID:           o.SetCredential,
		Groups:              o.SupplementaryGID,
		Pgid:                o.ProcessGroupID,
		SetPgid:             o.SetProcessGroup,
		Setsid:              o.CreateSession,
		PreSpawnHook:        o.PreSpawnHook,
		CreationFlags:       o.CreationFlags,
		CreateNewProcessGrp: o.CreateNewProcessGroup,
		HideWindow:          o.HideWindow,
		LogonUsername:       o.LogonUsername,
		LogonDomain:         o.LogonDomain,
		LogonPassword:       o.LogonPassword,
	}
}
