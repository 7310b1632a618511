// Package errors provides structured error types for the debug client.
// These errors carry machine-readable codes plus hints that can be surfaced
// as user-facing status text, matching the client's policy of converting
// failures into settled state rather than thrown exceptions.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a category of error for programmatic handling
type ErrorCode string

const (
	// Validation errors, rejected before any network call
	CodeNoLanguage     ErrorCode = "NO_LANGUAGE"
	CodeNoFiles        ErrorCode = "NO_FILES"
	CodeSessionActive  ErrorCode = "SESSION_ACTIVE"
	CodeMissingConnURL ErrorCode = "MISSING_CONNECTION_URL"

	// Transport errors
	CodeHandshakeFailed ErrorCode = "HANDSHAKE_FAILED"
	CodeConnectFailed   ErrorCode = "CONNECT_FAILED"
	CodeNotConnected    ErrorCode = "NOT_CONNECTED"

	// Protocol errors
	CodeMalformedFrame ErrorCode = "MALFORMED_FRAME"

	// Breakpoint errors
	CodeUnknownFile     ErrorCode = "UNKNOWN_FILE"
	CodeBreakpointLimit ErrorCode = "BREAKPOINT_LIMIT_REACHED"

	// Advisor errors
	CodeAdvisorBusy   ErrorCode = "ADVISOR_BUSY"
	CodeAdvisorFailed ErrorCode = "ADVISOR_FAILED"

	// Input relay errors
	CodeNotAwaitingInput ErrorCode = "NOT_AWAITING_INPUT"
)

// ClientError is a structured error with a code, a user-surfaceable message
// and an optional hint.
type ClientError struct {
	// Code is a machine-readable error category
	Code ErrorCode `json:"code"`

	// Message is a human-readable description of what went wrong
	Message string `json:"message"`

	// Hint provides actionable guidance on how to fix the error
	Hint string `json:"hint,omitempty"`

	// Details contains additional context (e.g., the invalid value)
	Details map[string]interface{} `json:"details,omitempty"`

	// Cause is the underlying error, if any
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *ClientError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Hint != "" {
		sb.WriteString(" | Hint: ")
		sb.WriteString(e.Hint)
	}
	return sb.String()
}

// Unwrap returns the underlying error for error chaining
func (e *ClientError) Unwrap() error {
	return e.Cause
}

// WithCause sets the underlying cause
func (e *ClientError) WithCause(err error) *ClientError {
	e.Cause = err
	return e
}

// --- Validation Errors ---

// NoLanguage creates an error for a run attempted without a language.
func NoLanguage() *ClientError {
	return &ClientError{
		Code:    CodeNoLanguage,
		Message: "no language selected",
		Hint:    "Pick a language for the entry file before running.",
	}
}

// NoFiles creates an error for a run attempted with an empty file set.
func NoFiles() *ClientError {
	return &ClientError{
		Code:    CodeNoFiles,
		Message: "no files to run",
		Hint:    "The workspace has no files; create one before running.",
	}
}

// SessionActive creates an error for starting a session while one is live.
func SessionActive(phase string) *ClientError {
	return &ClientError{
		Code:    CodeSessionActive,
		Message: fmt.Sprintf("a session is already active (phase %s)", phase),
		Hint:    "Stop the current session before starting a new one.",
		Details: map[string]interface{}{"phase": phase},
	}
}

// MissingConnURL creates the fatal start error for a run response without a
// connection URL.
func MissingConnURL(sessionID string) *ClientError {
	return &ClientError{
		Code:    CodeMissingConnURL,
		Message: "backend did not return a connection URL",
		Hint:    "The backend may be overloaded or misconfigured; try again.",
		Details: map[string]interface{}{"sessionId": sessionID},
	}
}

// --- Transport Errors ---

// HandshakeFailed creates an error for a failed session-creation request.
// The backend's response body is surfaced verbatim as the message.
func HandshakeFailed(status int, body string) *ClientError {
	msg := strings.TrimSpace(body)
	if msg == "" {
		msg = fmt.Sprintf("run request failed with status %d", status)
	}
	return &ClientError{
		Code:    CodeHandshakeFailed,
		Message: msg,
		Details: map[string]interface{}{"status": status},
	}
}

// ConnectFailed creates an error for a failed connection open.
func ConnectFailed(url string, err error) *ClientError {
	return &ClientError{
		Code:    CodeConnectFailed,
		Message: fmt.Sprintf("failed to open session connection: %v", err),
		Cause:   err,
		Details: map[string]interface{}{"url": url},
	}
}

// NotConnected creates an error for a command with no live connection.
func NotConnected() *ClientError {
	return &ClientError{
		Code:    CodeNotConnected,
		Message: "no live session connection",
		Hint:    "Start a session before sending debug commands.",
	}
}

// --- Breakpoint Errors ---

// UnknownFile creates an error for a fileId that does not resolve.
func UnknownFile(fileID string) *ClientError {
	return &ClientError{
		Code:    CodeUnknownFile,
		Message: fmt.Sprintf("file %q is not part of the current file set", fileID),
		Details: map[string]interface{}{"fileId": fileID},
	}
}

// BreakpointLimitReached creates an error when the store is at capacity.
func BreakpointLimitReached(limit int) *ClientError {
	return &ClientError{
		Code:    CodeBreakpointLimit,
		Message: fmt.Sprintf("breakpoint limit (%d) reached", limit),
		Hint:    "Remove existing breakpoints before adding more.",
		Details: map[string]interface{}{"limit": limit},
	}
}

// --- Input Relay Errors ---

// NotAwaitingInput creates an error for stdin sent while the program is not
// waiting for it.
func NotAwaitingInput(phase string) *ClientError {
	return &ClientError{
		Code:    CodeNotAwaitingInput,
		Message: "the program is not waiting for input",
		Details: map[string]interface{}{"phase": phase},
	}
}

// --- Advisor Errors ---

// AdvisorBusy creates an error for overlapping advisor invocations.
func AdvisorBusy() *ClientError {
	return &ClientError{
		Code:    CodeAdvisorBusy,
		Message: "a breakpoint suggestion request is already in flight",
	}
}

// AdvisorFailed creates an error for a failed advisor call.
func AdvisorFailed(err error) *ClientError {
	return &ClientError{
		Code:    CodeAdvisorFailed,
		Message: fmt.Sprintf("breakpoint suggestion failed: %v", err),
		Cause:   err,
	}
}

// Wrap wraps a generic error with a code and message.
func Wrap(code ErrorCode, message string, err error) *ClientError {
	return &ClientError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// CodeOf extracts the error code from err, or empty if err is not a
// ClientError.
func CodeOf(err error) ErrorCode {
	var ce *ClientError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
