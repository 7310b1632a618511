package session

import (
	"fmt"
	"strings"

	"github.com/polyrun/debug-client/internal/paths"
	"github.com/polyrun/debug-client/internal/protocol"
	"github.com/polyrun/debug-client/pkg/types"
)

// Streams for emitted log lines.
const (
	StreamOut = "out"
	StreamErr = "err"
	StreamSys = "sys"
)

// Effect is a side effect requested by the reducer. The reducer itself
// performs no I/O; the controller executes effects after applying the new
// state.
type Effect interface {
	isEffect()
}

// LogEffect appends a line (or chunk) to the session output log.
type LogEffect struct {
	Stream string
	Text   string
}

// CloseEffect closes the session connection from the client side.
type CloseEffect struct{}

func (LogEffect) isEffect()   {}
func (CloseEffect) isEffect() {}

func logf(stream, format string, args ...any) Effect {
	return LogEffect{Stream: stream, Text: fmt.Sprintf(format, args...)}
}

// Reduce maps the current state and one inbound message to the next state
// and the side effects to perform. Messages must be fed in delivery order:
// a paused event followed by an exit must be observed in that order so the
// exit clears the paused fields.
func Reduce(s State, msg protocol.Inbound, idx *paths.Index) (State, []Effect) {
	switch msg.Type {
	case protocol.TypeOut:
		return reduceOutput(s, msg)
	case protocol.TypeErr:
		return reduceStderr(s, msg)
	case protocol.TypeStatus:
		return reduceStatus(s, msg)
	case protocol.TypeAwaitingInput:
		return reduceAwaitingInput(s, msg)
	case protocol.TypeDebugEvent:
		return reduceDebugEvent(s, msg, idx)
	case protocol.TypeExit:
		return reduceExit(s, msg)
	default:
		return s, []Effect{logf(StreamSys, "ignoring unknown frame type %q", msg.Type)}
	}
}

func reduceOutput(s State, msg protocol.Inbound) (State, []Effect) {
	effects := []Effect{LogEffect{Stream: StreamOut, Text: msg.Data}}
	// A chunk with no trailing newline often means the program printed a
	// prompt and blocked on stdin. The explicit awaiting_input signal is the
	// only thing that changes phase; this just annotates the status text.
	if s.Phase == types.PhaseRunning && msg.Data != "" && !strings.HasSuffix(msg.Data, "\n") {
		s.StatusMessage = "running (program may be prompting for input)"
	}
	return s, effects
}

func reduceStderr(s State, msg protocol.Inbound) (State, []Effect) {
	effects := []Effect{LogEffect{Stream: StreamErr, Text: msg.Data}}
	// Backend-reported errors arrive as data, not as protocol failures. An
	// invalid or expired session id gets a supplementary hint line; the
	// phase is left alone.
	lower := strings.ToLower(msg.Data)
	if strings.Contains(lower, "session") && (strings.Contains(lower, "invalid") || strings.Contains(lower, "expired")) {
		effects = append(effects, logf(StreamSys, "the backend no longer recognizes this session; stop and start a new run"))
	}
	return s, effects
}

func reduceStatus(s State, msg protocol.Inbound) (State, []Effect) {
	phase := msg.Phase
	if phase == "" {
		phase = msg.Data
	}
	if phase == protocol.StatusExited {
		return finalizeTerminated(s, "exited"), []Effect{
			logf(StreamSys, "process exited"),
			CloseEffect{},
		}
	}
	if phase != "" {
		s.StatusMessage = phase
	}
	return s, nil
}

func reduceAwaitingInput(s State, msg protocol.Inbound) (State, []Effect) {
	if msg.Value {
		s.WaitingForInput = true
		s.InputPrompt = msg.Prompt
		if s.Phase == types.PhaseRunning {
			s.Phase = types.PhaseAwaitingInput
		}
		s.StatusMessage = "waiting for input"
	} else {
		s.WaitingForInput = false
		s.InputPrompt = ""
		if s.Phase == types.PhaseAwaitingInput {
			s.Phase = types.PhaseRunning
		}
		s.StatusMessage = "running"
	}
	return s, nil
}

func reduceDebugEvent(s State, msg protocol.Inbound, idx *paths.Index) (State, []Effect) {
	switch msg.Event {
	case protocol.EventPaused:
		return reducePaused(s, msg, idx)
	case protocol.EventException:
		return reduceException(s, msg)
	case protocol.EventBreakpoints:
		var payload protocol.BreakpointsPayload
		if err := protocol.DecodePayload(msg, &payload); err != nil {
			return s, []Effect{logf(StreamSys, "%v", err)}
		}
		return s, []Effect{logf(StreamSys, "breakpoints synced=%t", payload.Synced)}
	case protocol.EventEvaluateResult:
		var payload protocol.EvaluatePayload
		if err := protocol.DecodePayload(msg, &payload); err != nil {
			return s, []Effect{logf(StreamSys, "%v", err)}
		}
		if payload.Error != "" {
			return s, []Effect{logf(StreamSys, "%s: %s", payload.Expr, payload.Error)}
		}
		return s, []Effect{logf(StreamSys, "%s = %s", payload.Expr, payload.Value)}
	default:
		return s, []Effect{logf(StreamSys, "ignoring unknown debug event %q", msg.Event)}
	}
}

func reducePaused(s State, msg protocol.Inbound, idx *paths.Index) (State, []Effect) {
	var payload protocol.PausedPayload
	if err := protocol.DecodePayload(msg, &payload); err != nil {
		return s, []Effect{logf(StreamSys, "%v", err)}
	}

	loc := resolveLocation(idx, payload.File, payload.Line)
	loc.FunctionName = payload.Function

	frames := make([]types.StackFrame, 0, len(payload.Stack))
	for _, f := range payload.Stack {
		frames = append(frames, types.StackFrame{
			File:     displayPath(idx, f.File),
			Line:     f.Line,
			Function: f.Name(),
		})
	}

	s.clearPaused()
	s.Phase = types.PhasePaused
	s.Paused = &loc
	s.StackFrames = frames
	s.Locals = payload.Locals
	// A pause always overrides an outstanding input wait.
	s.WaitingForInput = false
	s.InputPrompt = ""
	s.StatusMessage = fmt.Sprintf("paused at %s:%d", loc.File, loc.Line)
	return s, []Effect{logf(StreamSys, "paused at %s:%d", loc.File, loc.Line)}
}

func reduceException(s State, msg protocol.Inbound) (State, []Effect) {
	var payload protocol.ExceptionPayload
	if err := protocol.DecodePayload(msg, &payload); err != nil {
		return s, []Effect{logf(StreamSys, "%v", err)}
	}
	effects := []Effect{logf(StreamSys, "unhandled exception: %s", payload.Message)}
	// The exception is informational: it annotates the paused state but is
	// not a phase change.
	if s.Phase == types.PhasePaused {
		s.Exception = &types.ExceptionInfo{Message: payload.Message}
		s.StatusMessage = "paused on exception"
	}
	return s, effects
}

func reduceExit(s State, msg protocol.Inbound) (State, []Effect) {
	code := msg.Code
	s = finalizeTerminated(s, fmt.Sprintf("exited with code %d", code))
	s.ExitCode = &code
	return s, []Effect{
		logf(StreamSys, "process exited with code %d", code),
		CloseEffect{},
	}
}

// finalizeTerminated settles the state into terminated, clearing every
// paused-state field and any input wait.
func finalizeTerminated(s State, status string) State {
	s.clearPaused()
	s.Phase = types.PhaseTerminated
	s.WaitingForInput = false
	s.InputPrompt = ""
	s.StatusMessage = status
	return s
}

// resolveLocation maps a backend path to a paused location through the path
// index, falling back to the canonicalized raw path so the UI never shows a
// blank location.
func resolveLocation(idx *paths.Index, rawPath string, line int) types.PausedLocation {
	if fd, ok := idx.Resolve(rawPath); ok {
		return types.PausedLocation{
			File:     fd.FilePath,
			FileName: fd.FileName,
			FileID:   fd.FileID,
			Line:     line,
		}
	}
	return types.PausedLocation{File: paths.Canonicalize(rawPath), Line: line}
}

func displayPath(idx *paths.Index, rawPath string) string {
	if fd, ok := idx.Resolve(rawPath); ok {
		return fd.FilePath
	}
	return paths.Canonicalize(rawPath)
}
