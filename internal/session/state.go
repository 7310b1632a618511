// Package session implements the debug session state machine.
//
// The session tracks a single live run against the execution backend:
// phase transitions (idle, starting, running, awaiting input, paused,
// terminated), the paused-state views (location, stack, locals, exception),
// breakpoint reconciliation against the last-synced set, and stdin relay.
//
// The package is split into a pure reducer (reducer.go), which maps the
// current state and one inbound message to the next state plus side
// effects, and a controller (controller.go), which owns the connection and
// applies the reducer in strict delivery order.
package session

import (
	"github.com/polyrun/debug-client/pkg/types"
)

// State is the live session state. It is a value: the reducer returns a new
// State rather than mutating in place, so transitions are testable without
// a connection.
type State struct {
	Phase           types.Phase
	StatusMessage   string
	WaitingForInput bool
	InputPrompt     string
	Paused          *types.PausedLocation
	StackFrames     []types.StackFrame
	Locals          map[string]string
	Exception       *types.ExceptionInfo
	ExitCode        *int
}

// NewState returns the initial idle state.
func NewState() State {
	return State{Phase: types.PhaseIdle}
}

// clearPaused drops every paused-state field. The fields are cleared
// together; a transition away from paused must never leave a stale subset
// visible.
func (s *State) clearPaused() {
	s.Paused = nil
	s.StackFrames = nil
	s.Locals = nil
	s.Exception = nil
}

// view projects the state into the read-only consumer view.
func (s State) view() types.SessionView {
	return types.SessionView{
		Phase:           s.Phase,
		StatusMessage:   s.StatusMessage,
		WaitingForInput: s.WaitingForInput,
		InputPrompt:     s.InputPrompt,
		PausedLocation:  s.Paused,
		StackFrames:     s.StackFrames,
		Locals:          s.Locals,
		Exception:       s.Exception,
		ExitCode:        s.ExitCode,
	}
}
