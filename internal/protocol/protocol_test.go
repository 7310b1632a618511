package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyrun/debug-client/internal/protocol"
)

func TestDecode(t *testing.T) {
	msg, err := protocol.Decode([]byte(`{"type":"out","data":"hello\n"}`))
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeOut, msg.Type)
	assert.Equal(t, "hello\n", msg.Data)
}

func TestDecodeDebugEvent(t *testing.T) {
	raw := `{"type":"debug_event","event":"paused","payload":{"file":"src/a.py","line":3,"function":"main"}}`
	msg, err := protocol.Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeDebugEvent, msg.Type)
	assert.Equal(t, protocol.EventPaused, msg.Event)

	var p protocol.PausedPayload
	require.NoError(t, protocol.DecodePayload(msg, &p))
	assert.Equal(t, "src/a.py", p.File)
	assert.Equal(t, 3, p.Line)
	assert.Equal(t, "main", p.Function)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := protocol.Decode([]byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed frame")

	_, err = protocol.Decode([]byte(`{"data":"no type"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing type")
}

func TestDecodePayloadMissing(t *testing.T) {
	msg := protocol.Inbound{Type: protocol.TypeDebugEvent, Event: protocol.EventPaused}
	var p protocol.PausedPayload
	assert.Error(t, protocol.DecodePayload(msg, &p))
}

func TestPausedFrameName(t *testing.T) {
	assert.Equal(t, "main", protocol.PausedFrame{Function: "main"}.Name())
	assert.Equal(t, "main", protocol.PausedFrame{Func: "main"}.Name())
	assert.Equal(t, "f", protocol.PausedFrame{Function: "f", Func: "g"}.Name())
	assert.Equal(t, "", protocol.PausedFrame{}.Name())
}

func TestOutboundEncoding(t *testing.T) {
	b, err := json.Marshal(protocol.Command(protocol.CmdContinue))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"debug_cmd","command":"continue"}`, string(b))

	b, err = json.Marshal(protocol.BreakpointCommand(protocol.CmdAddBreakpoint, "src/a.py", 7))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"debug_cmd","command":"add_breakpoint","file":"src/a.py","line":7}`, string(b))

	b, err = json.Marshal(protocol.Stdin("42\n"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"stdin","data":"42\n"}`, string(b))
}
