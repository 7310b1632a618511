package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polyrun/debug-client/pkg/types"
)

func TestPhaseSettled(t *testing.T) {
	assert.True(t, types.PhaseIdle.Settled())
	assert.True(t, types.PhaseTerminated.Settled())
	assert.False(t, types.PhaseStarting.Settled())
	assert.False(t, types.PhaseRunning.Settled())
	assert.False(t, types.PhaseAwaitingInput.Settled())
	assert.False(t, types.PhasePaused.Settled())
}

func TestNewBreakpoint(t *testing.T) {
	fd := types.FileDescriptor{FileID: "f1", FileName: "a.py", FilePath: "src/a.py"}

	bp := types.NewBreakpoint(fd, 7, "x > 0")
	assert.Equal(t, "f1:7", bp.ID)
	assert.Equal(t, "src/a.py", bp.FilePath)
	assert.Equal(t, "x > 0", bp.Condition)

	// Line numbers below 1 clamp up.
	assert.Equal(t, 1, types.NewBreakpoint(fd, 0, "").Line)
	assert.Equal(t, 1, types.NewBreakpoint(fd, -5, "").Line)
}

func TestBreakpointIDClampsLine(t *testing.T) {
	// ID derivation clamps like NewBreakpoint does, so lookups by raw line
	// agree with what construction stored.
	assert.Equal(t, "f1:1", types.BreakpointID("f1", 0))
	assert.Equal(t, "f1:1", types.BreakpointID("f1", -5))
	assert.Equal(t, "f1:7", types.BreakpointID("f1", 7))
}

func TestCanonicalBreakpointKey(t *testing.T) {
	assert.Equal(t, "src/a.py:3", types.CanonicalBreakpoint{File: "src/a.py", Line: 3}.Key())
}
