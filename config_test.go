package subprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigurationLiteralPath(t *testing.T) {
	cases := []struct {
		executable string
		literal    bool
	}{
		{"echo", false},
		{"/bin/echo", true},
		{"./echo", true},
		{`C:\Windows\system32\cmd.exe`, true},
		{"cmd.exe", false},
	}
	for _, c := range cases {
		cfg := NewConfiguration(c.executable)
		assert.Equalf(t, c.literal, cfg.literalPath, "executable=%q", c.executable)
	}
}

func TestConfigurationBuildersReturnCopies(t *testing.T) {
	base := NewConfiguration("echo", "hi")
	withCwd := base.WithWorkingDirectory("/tmp")
	withArgv0 := base.WithArgv0("busybox")

	require.False(t, base.hasWorkingDir)
	require.True(t, withCwd.hasWorkingDir)
	assert.Equal(t, "/tmp", withCwd.workingDir)

	assert.Empty(t, base.argv0Override)
	assert.Equal(t, "busybox", withArgv0.argv0Override)
}

func TestWithWorkingDirectoryEmptyClears(t *testing.T) {
	cfg := NewConfiguration("echo").WithWorkingDirectory("/tmp").WithWorkingDirectory("")
	assert.False(t, cfg.hasWorkingDir)
}

func TestWithPlatformOptions(t *testing.T) {
	cfg := NewConfiguration("echo").WithPlatformOptions(PlatformOptions{CreateSession: true})
	assert.True(t, cfg.platformOpts.CreateSession)
}
