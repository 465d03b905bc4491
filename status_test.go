package subprocess

import (
	"testing"

	"github.com/Microsoft/go-subprocess/internal/platform"
	"github.com/stretchr/testify/assert"
)

func TestTerminationStatusExited(t *testing.T) {
	st := statusFromPlatform(platform.Exited(0))
	assert.True(t, st.Exited())
	assert.False(t, st.Signaled())
	assert.Equal(t, 0, st.ExitCode())
	assert.True(t, st.Success())
	assert.Equal(t, "Exited(0)", st.String())
}

func TestTerminationStatusNonZeroExit(t *testing.T) {
	st := statusFromPlatform(platform.Exited(42))
	assert.True(t, st.Exited())
	assert.Equal(t, 42, st.ExitCode())
	assert.False(t, st.Success())
}

func TestTerminationStatusSignaled(t *testing.T) {
	st := statusFromPlatform(platform.Signaled(15))
	assert.False(t, st.Exited())
	assert.True(t, st.Signaled())
	assert.Equal(t, 15, st.TermSignal())
	assert.False(t, st.Success())
	assert.Equal(t, "Signaled(15)", st.String())
}
