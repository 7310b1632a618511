package session_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyrun/debug-client/internal/paths"
	"github.com/polyrun/debug-client/internal/protocol"
	"github.com/polyrun/debug-client/internal/session"
	"github.com/polyrun/debug-client/pkg/types"
)

func testIndex() *paths.Index {
	return paths.BuildIndex([]types.FileDescriptor{
		{FileID: "f1", FileName: "a.py", FilePath: "src/a.py"},
		{FileID: "f2", FileName: "b.py", FilePath: "src/b.py"},
	})
}

func runningState() session.State {
	s := session.NewState()
	s.Phase = types.PhaseRunning
	return s
}

func debugEvent(t *testing.T, event string, payload any) protocol.Inbound {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return protocol.Inbound{Type: protocol.TypeDebugEvent, Event: event, Payload: raw}
}

func logTexts(effects []session.Effect) []string {
	var out []string
	for _, e := range effects {
		if le, ok := e.(session.LogEffect); ok {
			out = append(out, le.Text)
		}
	}
	return out
}

func hasClose(effects []session.Effect) bool {
	for _, e := range effects {
		if _, ok := e.(session.CloseEffect); ok {
			return true
		}
	}
	return false
}

func TestReduceOutput(t *testing.T) {
	s, effects := session.Reduce(runningState(), protocol.Inbound{Type: protocol.TypeOut, Data: "hello\n"}, testIndex())
	require.Len(t, effects, 1)
	assert.Equal(t, session.LogEffect{Stream: session.StreamOut, Text: "hello\n"}, effects[0])
	assert.Equal(t, types.PhaseRunning, s.Phase)
}

func TestReduceOutputPromptHint(t *testing.T) {
	// No trailing newline while running hints at a prompt, but only the
	// status text changes; the explicit awaiting_input signal owns the phase.
	s, _ := session.Reduce(runningState(), protocol.Inbound{Type: protocol.TypeOut, Data: "Enter a number: "}, testIndex())
	assert.Equal(t, types.PhaseRunning, s.Phase)
	assert.False(t, s.WaitingForInput)
	assert.Contains(t, s.StatusMessage, "prompting for input")
}

func TestReduceStderrSessionHint(t *testing.T) {
	msg := protocol.Inbound{Type: protocol.TypeErr, Data: "error: invalid session id"}
	s, effects := session.Reduce(runningState(), msg, testIndex())
	assert.Equal(t, types.PhaseRunning, s.Phase)

	texts := logTexts(effects)
	require.Len(t, texts, 2)
	assert.Equal(t, "error: invalid session id", texts[0])
	assert.Contains(t, texts[1], "stop and start a new run")
}

func TestReduceAwaitingInput(t *testing.T) {
	msg := protocol.Inbound{Type: protocol.TypeAwaitingInput, Value: true, Prompt: "name? "}
	s, _ := session.Reduce(runningState(), msg, testIndex())
	assert.Equal(t, types.PhaseAwaitingInput, s.Phase)
	assert.True(t, s.WaitingForInput)
	assert.Equal(t, "name? ", s.InputPrompt)

	s, _ = session.Reduce(s, protocol.Inbound{Type: protocol.TypeAwaitingInput, Value: false}, testIndex())
	assert.Equal(t, types.PhaseRunning, s.Phase)
	assert.False(t, s.WaitingForInput)
	assert.Empty(t, s.InputPrompt)
}

func TestReducePaused(t *testing.T) {
	msg := debugEvent(t, protocol.EventPaused, protocol.PausedPayload{
		File:     "/work/src/a.py",
		Line:     3,
		Function: "main",
		Stack: []protocol.PausedFrame{
			{File: "src\\a.py", Line: 3, Func: "main"},
			{File: "src/b.py", Line: 10, Function: "helper"},
		},
		Locals: map[string]string{"x": "1"},
	})

	s, _ := session.Reduce(runningState(), msg, testIndex())
	assert.Equal(t, types.PhasePaused, s.Phase)
	require.NotNil(t, s.Paused)
	assert.Equal(t, "src/a.py", s.Paused.File)
	assert.Equal(t, "f1", s.Paused.FileID)
	assert.Equal(t, 3, s.Paused.Line)
	assert.Equal(t, "main", s.Paused.FunctionName)

	require.Len(t, s.StackFrames, 2)
	assert.Equal(t, types.StackFrame{File: "src/a.py", Line: 3, Function: "main"}, s.StackFrames[0])
	assert.Equal(t, types.StackFrame{File: "src/b.py", Line: 10, Function: "helper"}, s.StackFrames[1])
	assert.Equal(t, map[string]string{"x": "1"}, s.Locals)
}

func TestReducePausedUnknownFile(t *testing.T) {
	msg := debugEvent(t, protocol.EventPaused, protocol.PausedPayload{File: "/work/gen/tmp.py", Line: 9})

	s, _ := session.Reduce(runningState(), msg, testIndex())
	require.NotNil(t, s.Paused)
	assert.Equal(t, "gen/tmp.py", s.Paused.File)
	assert.Empty(t, s.Paused.FileID)
	assert.Equal(t, 9, s.Paused.Line)
}

func TestReducePausedOverridesInputWait(t *testing.T) {
	s := runningState()
	s, _ = session.Reduce(s, protocol.Inbound{Type: protocol.TypeAwaitingInput, Value: true}, testIndex())
	require.True(t, s.WaitingForInput)

	msg := debugEvent(t, protocol.EventPaused, protocol.PausedPayload{File: "src/a.py", Line: 1})
	s, _ = session.Reduce(s, msg, testIndex())
	assert.Equal(t, types.PhasePaused, s.Phase)
	assert.False(t, s.WaitingForInput)
	assert.Empty(t, s.InputPrompt)
}

func TestReduceExceptionWhilePaused(t *testing.T) {
	s := runningState()
	s, _ = session.Reduce(s, debugEvent(t, protocol.EventPaused, protocol.PausedPayload{File: "src/a.py", Line: 4}), testIndex())

	s, effects := session.Reduce(s, debugEvent(t, protocol.EventException, protocol.ExceptionPayload{Message: "division by zero"}), testIndex())
	assert.Equal(t, types.PhasePaused, s.Phase)
	require.NotNil(t, s.Exception)
	assert.Equal(t, "division by zero", s.Exception.Message)
	assert.Contains(t, logTexts(effects)[0], "division by zero")
}

func TestReduceExceptionWhileRunning(t *testing.T) {
	// Without a pause the exception is logged only; it never becomes state.
	s, effects := session.Reduce(runningState(), debugEvent(t, protocol.EventException, protocol.ExceptionPayload{Message: "boom"}), testIndex())
	assert.Nil(t, s.Exception)
	assert.Contains(t, logTexts(effects)[0], "boom")
}

func TestReduceEvaluateResult(t *testing.T) {
	s, effects := session.Reduce(runningState(), debugEvent(t, protocol.EventEvaluateResult, protocol.EvaluatePayload{Expr: "x + 1", Value: "2"}), testIndex())
	assert.Equal(t, types.PhaseRunning, s.Phase)
	assert.Equal(t, []string{"x + 1 = 2"}, logTexts(effects))

	_, effects = session.Reduce(s, debugEvent(t, protocol.EventEvaluateResult, protocol.EvaluatePayload{Expr: "y", Error: "name 'y' is not defined"}), testIndex())
	assert.Equal(t, []string{"y: name 'y' is not defined"}, logTexts(effects))
}

func TestReduceExitClearsPausedState(t *testing.T) {
	s := runningState()
	s, _ = session.Reduce(s, debugEvent(t, protocol.EventPaused, protocol.PausedPayload{
		File:   "src/a.py",
		Line:   3,
		Stack:  []protocol.PausedFrame{{File: "src/a.py", Line: 3}},
		Locals: map[string]string{"x": "1"},
	}), testIndex())
	require.Equal(t, types.PhasePaused, s.Phase)

	s, effects := session.Reduce(s, protocol.Inbound{Type: protocol.TypeExit, Code: 1}, testIndex())
	assert.Equal(t, types.PhaseTerminated, s.Phase)
	assert.Nil(t, s.Paused)
	assert.Nil(t, s.StackFrames)
	assert.Nil(t, s.Locals)
	assert.Nil(t, s.Exception)
	require.NotNil(t, s.ExitCode)
	assert.Equal(t, 1, *s.ExitCode)
	assert.True(t, hasClose(effects))
}

func TestReduceStatusExited(t *testing.T) {
	s, effects := session.Reduce(runningState(), protocol.Inbound{Type: protocol.TypeStatus, Phase: protocol.StatusExited}, testIndex())
	assert.Equal(t, types.PhaseTerminated, s.Phase)
	assert.Nil(t, s.ExitCode)
	assert.True(t, hasClose(effects))
}

func TestReduceStatusText(t *testing.T) {
	s, effects := session.Reduce(runningState(), protocol.Inbound{Type: protocol.TypeStatus, Data: "compiling"}, testIndex())
	assert.Equal(t, types.PhaseRunning, s.Phase)
	assert.Equal(t, "compiling", s.StatusMessage)
	assert.Empty(t, effects)
}

func TestReduceUnknownFrameType(t *testing.T) {
	s, effects := session.Reduce(runningState(), protocol.Inbound{Type: "telemetry"}, testIndex())
	assert.Equal(t, types.PhaseRunning, s.Phase)
	require.Len(t, effects, 1)
	assert.Contains(t, logTexts(effects)[0], "telemetry")
}
