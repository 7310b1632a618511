// Package protocol implements the wire contract between the debug client
// and the execution backend.
//
// The backend speaks JSON-framed messages over a persistent WebSocket
// connection. This package provides:
//   - Inbound: the tagged inbound frame taxonomy (out, err, status,
//     awaiting_input, debug_event, exit)
//   - Outbound: the debug_cmd and stdin outbound frames
//   - Decode: tolerant parsing that reports malformed frames without
//     terminating the session
package protocol

import (
	"encoding/json"
	"fmt"
)

// Inbound message types.
const (
	TypeOut           = "out"
	TypeErr           = "err"
	TypeStatus        = "status"
	TypeAwaitingInput = "awaiting_input"
	TypeDebugEvent    = "debug_event"
	TypeExit          = "exit"
)

// Debug event names carried in the event field of a debug_event frame.
const (
	EventPaused         = "paused"
	EventException      = "exception"
	EventBreakpoints    = "breakpoints"
	EventEvaluateResult = "evaluate_result"
)

// StatusExited is the terminal status string. A status frame carrying it is
// treated like an exit frame with no code.
const StatusExited = "exited"

// Commands accepted by the backend in a debug_cmd frame.
const (
	CmdContinue         = "continue"
	CmdNext             = "next"
	CmdStepIn           = "step_in"
	CmdStepOut          = "step_out"
	CmdStop             = "stop"
	CmdAddBreakpoint    = "add_breakpoint"
	CmdRemoveBreakpoint = "remove_breakpoint"
)

// Inbound is a decoded inbound frame. Exactly the fields relevant to the
// frame's Type are populated; the rest keep zero values.
type Inbound struct {
	Type string `json:"type"`

	// out / err / status
	Data string `json:"data,omitempty"`

	// status
	Phase string `json:"phase,omitempty"`

	// awaiting_input
	Value  bool   `json:"value,omitempty"`
	Prompt string `json:"prompt,omitempty"`

	// debug_event
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// exit
	Code int `json:"code,omitempty"`
}

// PausedPayload is the payload of a debug_event: paused frame.
type PausedPayload struct {
	File     string            `json:"file"`
	Line     int               `json:"line"`
	Function string            `json:"function,omitempty"`
	Stack    []PausedFrame     `json:"stack,omitempty"`
	Locals   map[string]string `json:"locals,omitempty"`
}

// PausedFrame is one frame of a paused payload's stack. Some backends emit
// the function name under "func" instead of "function"; Name returns
// whichever is set.
type PausedFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function,omitempty"`
	Func     string `json:"func,omitempty"`
}

// Name returns the frame's function name regardless of which wire field
// carried it.
func (f PausedFrame) Name() string {
	if f.Function != "" {
		return f.Function
	}
	return f.Func
}

// ExceptionPayload is the payload of a debug_event: exception frame.
type ExceptionPayload struct {
	Message string `json:"message,omitempty"`
}

// BreakpointsPayload is the payload of a debug_event: breakpoints frame,
// the backend's acknowledgment of a breakpoint sync.
type BreakpointsPayload struct {
	Synced bool `json:"synced"`
}

// EvaluatePayload is the payload of a debug_event: evaluate_result frame.
type EvaluatePayload struct {
	Expr  string `json:"expr"`
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// Outbound is an encoded outbound frame: either a debug_cmd or a stdin
// relay.
type Outbound struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Data    string `json:"data,omitempty"`
}

// Command builds a debug_cmd frame with no location.
func Command(name string) Outbound {
	return Outbound{Type: "debug_cmd", Command: name}
}

// BreakpointCommand builds an add_breakpoint or remove_breakpoint frame.
func BreakpointCommand(name, file string, line int) Outbound {
	return Outbound{Type: "debug_cmd", Command: name, File: file, Line: line}
}

// Stdin builds a stdin relay frame.
func Stdin(data string) Outbound {
	return Outbound{Type: "stdin", Data: data}
}

// Decode parses a raw inbound frame. A frame that is not valid JSON or
// carries no type tag is a protocol error; the session must log it and
// continue, so the error wraps the raw text for diagnostics.
func Decode(raw []byte) (Inbound, error) {
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Inbound{}, fmt.Errorf("malformed frame %q: %w", truncate(raw, 120), err)
	}
	if msg.Type == "" {
		return Inbound{}, fmt.Errorf("frame missing type tag: %q", truncate(raw, 120))
	}
	return msg, nil
}

// DecodePayload unmarshals a debug_event payload into dst.
func DecodePayload(msg Inbound, dst any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("debug_event %q has no payload", msg.Event)
	}
	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		return fmt.Errorf("debug_event %q payload: %w", msg.Event, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
