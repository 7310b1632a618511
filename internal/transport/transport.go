// Package transport owns the connection to the execution backend: the HTTP
// handshake that creates a remote run, and the persistent WebSocket
// connection used for the rest of the session.
//
// The transport translates inbound wire frames into typed protocol messages
// and outbound commands into wire frames. It takes no part in session state;
// that belongs to the session package.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/polyrun/debug-client/internal/errors"
	"github.com/polyrun/debug-client/internal/protocol"
	"github.com/polyrun/debug-client/pkg/types"
)

// Conn is a live session connection. Send is fire-and-forget: it reports
// whether the write was attempted on an open connection, not whether the
// backend acted on it.
type Conn interface {
	Send(msg protocol.Outbound) bool
	Receive() (protocol.Inbound, error)
	Close() error
}

// MalformedFrameError reports an inbound frame that failed to decode. It is
// recoverable: the session logs a diagnostic line and keeps reading.
type MalformedFrameError struct {
	Err error
}

func (e *MalformedFrameError) Error() string {
	return e.Err.Error()
}

func (e *MalformedFrameError) Unwrap() error {
	return e.Err
}

// Client performs the session-creation handshake and opens session
// connections.
type Client struct {
	runURL  string
	httpc   *http.Client
	dialer  *websocket.Dialer
	logger  *slog.Logger
	timeout time.Duration
}

// NewClient creates a transport client targeting the given run endpoint.
func NewClient(runURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		runURL:  runURL,
		httpc:   &http.Client{Timeout: timeout},
		dialer:  websocket.DefaultDialer,
		logger:  logger,
		timeout: timeout,
	}
}

// CreateRun validates and issues the session-creation request. Validation
// failures (missing language, empty file set) are rejected locally before
// any network call; a response without a connection URL is a fatal start
// error.
func (c *Client) CreateRun(ctx context.Context, req types.RunRequest) (types.RunResponse, error) {
	if req.Lang == "" || req.Lang == types.NoLanguage {
		return types.RunResponse{}, errors.NoLanguage()
	}
	if len(req.Files) == 0 {
		return types.RunResponse{}, errors.NoFiles()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return types.RunResponse{}, fmt.Errorf("failed to encode run request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.runURL, bytes.NewReader(body))
	if err != nil {
		return types.RunResponse{}, fmt.Errorf("failed to build run request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return types.RunResponse{}, errors.Wrap(errors.CodeHandshakeFailed, "run request failed", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Non-2xx bodies are surfaced verbatim as the error message.
		return types.RunResponse{}, errors.HandshakeFailed(resp.StatusCode, string(respBody))
	}

	var runResp types.RunResponse
	if err := json.Unmarshal(respBody, &runResp); err != nil {
		return types.RunResponse{}, errors.Wrap(errors.CodeHandshakeFailed, "unreadable run response", err)
	}
	if runResp.WSURL == "" {
		return types.RunResponse{}, errors.MissingConnURL(runResp.SessionID)
	}
	return runResp, nil
}

// Dial opens the persistent session connection at the URL returned by
// CreateRun.
func (c *Client) Dial(ctx context.Context, wsURL string) (Conn, error) {
	ws, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, errors.ConnectFailed(wsURL, err)
	}
	return &wsConn{ws: ws, logger: c.logger}, nil
}

// wsConn wraps a gorilla websocket connection with JSON framing and a
// write lock.
type wsConn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex
	closed  bool
}

func (c *wsConn) Send(msg protocol.Outbound) bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return false
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		c.logger.Warn("failed to encode outbound frame", "command", msg.Command, "error", err)
		return false
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, raw); err != nil {
		c.logger.Debug("session write failed", "command", msg.Command, "error", err)
		return false
	}
	return true
}

func (c *wsConn) Receive() (protocol.Inbound, error) {
	_, raw, err := c.ws.ReadMessage()
	if err != nil {
		if closeErr, ok := err.(*websocket.CloseError); ok {
			c.logger.Debug("session connection closed", "code", closeErr.Code, "text", closeErr.Text)
		}
		return protocol.Inbound{}, err
	}
	msg, err := protocol.Decode(raw)
	if err != nil {
		return protocol.Inbound{}, &MalformedFrameError{Err: err}
	}
	return msg, nil
}

func (c *wsConn) Close() error {
	c.writeMu.Lock()
	if c.closed {
		c.writeMu.Unlock()
		return nil
	}
	c.closed = true
	// Best-effort close frame before dropping the socket.
	deadline := time.Now().Add(time.Second)
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	c.writeMu.Unlock()
	return c.ws.Close()
}
