// Package types defines shared data types used across the debug client.
//
// This package provides type definitions for:
//   - Phase: the coarse lifecycle state of a debug session
//   - FileDescriptor: a source file known to the editor collaborator
//   - Breakpoint: a persisted (file, line, condition) breakpoint
//   - PausedLocation, StackFrame, ExceptionInfo: paused-state views
//   - SessionView: the derived session state consumed by UIs
//   - RunRequest / RunResponse: the session-creation HTTP contract
//
// These types are used throughout the codebase to maintain type safety
// and provide clear contracts between components.
package types

import "fmt"

// Phase represents the lifecycle state of a debug session.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseStarting      Phase = "starting"
	PhaseRunning       Phase = "running"
	PhaseAwaitingInput Phase = "awaiting_input"
	PhasePaused        Phase = "paused"
	PhaseTerminated    Phase = "terminated"
)

// Settled reports whether the phase is a resting state from which a new
// session may be started.
func (p Phase) Settled() bool {
	return p == PhaseIdle || p == PhaseTerminated
}

// NoLanguage is the sentinel the editor uses when no language is selected.
// A run request carrying it is rejected before any network call.
const NoLanguage = "plaintext"

// FileDescriptor identifies a source file known to the editor collaborator.
// Descriptors are immutable for the lifetime of a session; a new file
// produces a new descriptor.
type FileDescriptor struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
}

// Breakpoint is a user- or advisor-created breakpoint. The ID is derived
// deterministically from (fileId, line), which makes the pair unique by
// construction.
type Breakpoint struct {
	ID        string `json:"id"`
	FileID    string `json:"fileId"`
	FileName  string `json:"fileName"`
	FilePath  string `json:"filePath"`
	Line      int    `json:"line"`
	Condition string `json:"condition,omitempty"`
}

// BreakpointID derives the canonical identifier for a (fileId, line) pair.
// The line is clamped to >= 1 so every operation on a pair derives the same
// identifier regardless of how the caller spelled the line.
func BreakpointID(fileID string, line int) string {
	if line < 1 {
		line = 1
	}
	return fmt.Sprintf("%s:%d", fileID, line)
}

// NewBreakpoint constructs a breakpoint from a resolved file descriptor,
// clamping the line to >= 1.
func NewBreakpoint(fd FileDescriptor, line int, condition string) Breakpoint {
	if line < 1 {
		line = 1
	}
	return Breakpoint{
		ID:        BreakpointID(fd.FileID, line),
		FileID:    fd.FileID,
		FileName:  fd.FileName,
		FilePath:  fd.FilePath,
		Line:      line,
		Condition: condition,
	}
}

// CanonicalBreakpoint is the backend-facing (file path, line) identity of a
// breakpoint, used only for diffing against the last-synced set. It is
// recomputed from the store on every reconciliation pass and never persisted.
type CanonicalBreakpoint struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Key returns the diff key for the canonical breakpoint.
func (c CanonicalBreakpoint) Key() string {
	return fmt.Sprintf("%s:%d", c.File, c.Line)
}

// PausedLocation describes where execution is paused.
type PausedLocation struct {
	File         string `json:"file"`
	FileName     string `json:"fileName,omitempty"`
	FileID       string `json:"fileId,omitempty"`
	Line         int    `json:"line"`
	FunctionName string `json:"functionName,omitempty"`
}

// StackFrame is one frame of the paused call stack, innermost first.
type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function,omitempty"`
}

// ExceptionInfo carries details of an unhandled exception reported while
// paused. The exception is informational; it does not change the phase.
type ExceptionInfo struct {
	Message string `json:"message,omitempty"`
}

// SessionView is the derived, read-only view of a session exposed to
// consumers (UI, CLI, MCP tools). PausedLocation, StackFrames, Locals and
// Exception are populated only while Phase is paused and are cleared
// together on any transition away from paused.
type SessionView struct {
	Phase           Phase             `json:"phase"`
	StatusMessage   string            `json:"statusMessage,omitempty"`
	WaitingForInput bool              `json:"waitingForInput"`
	InputPrompt     string            `json:"inputPrompt,omitempty"`
	PausedLocation  *PausedLocation   `json:"pausedLocation,omitempty"`
	StackFrames     []StackFrame      `json:"stackFrames,omitempty"`
	Locals          map[string]string `json:"locals,omitempty"`
	Exception       *ExceptionInfo    `json:"exception,omitempty"`
	ExitCode        *int              `json:"exitCode,omitempty"`
	RunID           string            `json:"runId,omitempty"`
	SessionID       string            `json:"sessionId,omitempty"`
}

// RunFile is one file of the run request payload.
type RunFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// RunRequest is the body of POST /run.
type RunRequest struct {
	Lang        string                `json:"lang"`
	Entry       string                `json:"entry"`
	Args        []string              `json:"args"`
	Files       []RunFile             `json:"files"`
	Mode        string                `json:"mode,omitempty"`
	Breakpoints []CanonicalBreakpoint `json:"breakpoints,omitempty"`
}

// RunResponse is the success body of POST /run.
type RunResponse struct {
	SessionID string `json:"session_id"`
	WSURL     string `json:"ws_url"`
}

// AdvisorOutcome classifies the result of an advisor invocation.
type AdvisorOutcome string

const (
	AdvisorInserted AdvisorOutcome = "inserted"
	AdvisorEmpty    AdvisorOutcome = "empty"
	AdvisorError    AdvisorOutcome = "error"
	AdvisorBusy     AdvisorOutcome = "busy"
)

// AdvisorReport summarizes an advisor invocation. Failures are carried as
// data here, never as errors visible to the caller.
type AdvisorReport struct {
	Outcome  AdvisorOutcome `json:"outcome"`
	Inserted int            `json:"inserted"`
	Message  string         `json:"message"`
}
