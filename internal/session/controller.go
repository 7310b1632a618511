package session

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/polyrun/debug-client/internal/breakpoints"
	"github.com/polyrun/debug-client/internal/errors"
	"github.com/polyrun/debug-client/internal/paths"
	"github.com/polyrun/debug-client/internal/protocol"
	"github.com/polyrun/debug-client/internal/transport"
	"github.com/polyrun/debug-client/pkg/types"
)

// Backend creates remote runs and opens session connections. The transport
// package provides the real implementation; tests substitute fakes.
type Backend interface {
	CreateRun(ctx context.Context, req types.RunRequest) (types.RunResponse, error)
	Dial(ctx context.Context, wsURL string) (transport.Conn, error)
}

// FileSource is the editor collaborator: an opaque provider of the current
// file set and live file content.
type FileSource interface {
	Files() []types.FileDescriptor
	Content(fileID string) (string, bool)
}

// OutputSink receives session output lines: program stdout ("out"), stderr
// ("err") and client diagnostics ("sys").
type OutputSink func(stream, text string)

// Controller drives a debug session: it owns the single live connection,
// applies inbound messages through the reducer in strict delivery order,
// and reconciles breakpoint changes against the backend.
//
// The controller is the sole writer of the session state and of the
// last-synced breakpoint set; consumers read through Snapshot.
type Controller struct {
	backend Backend
	files   FileSource
	store   *breakpoints.Store
	logger  *slog.Logger
	output  OutputSink

	mu         sync.Mutex
	state      State
	conn       transport.Conn
	idx        *paths.Index
	lastSynced map[string]types.CanonicalBreakpoint
	runID      string
	sessionID  string
}

// NewController wires a controller to its collaborators. The breakpoint
// store's change notifications are hooked up here so reconciliation runs on
// every mutation while a connection is open.
func NewController(backend Backend, files FileSource, store *breakpoints.Store, logger *slog.Logger, output OutputSink) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if output == nil {
		output = func(string, string) {}
	}
	c := &Controller{
		backend: backend,
		files:   files,
		store:   store,
		logger:  logger,
		output:  output,
		state:   NewState(),
	}
	store.OnChange(c.reconcile)
	return c
}

// Snapshot returns the current derived session view.
func (c *Controller) Snapshot() types.SessionView {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.state.view()
	v.RunID = c.runID
	v.SessionID = c.sessionID
	return v
}

// Index returns the path index of the current session, rebuilt at every
// start from the live file set.
func (c *Controller) Index() *paths.Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idx
}

// Start creates a remote run and opens the session connection. Starting
// while a session is active (phase neither idle nor terminated) is rejected
// without issuing a network request. Validation and transport failures
// settle the state back to idle and are also returned for programmatic
// callers; the status message carries the user-facing text.
func (c *Controller) Start(ctx context.Context, lang, entry string, args []string) error {
	c.mu.Lock()
	if !c.state.Phase.Settled() {
		phase := c.state.Phase
		c.mu.Unlock()
		return errors.SessionActive(string(phase))
	}

	// Snapshot the file set and live content at request time.
	descriptors := c.files.Files()
	idx := paths.BuildIndex(descriptors)
	runFiles := make([]types.RunFile, 0, len(descriptors))
	for _, fd := range descriptors {
		content, ok := c.files.Content(fd.FileID)
		if !ok {
			continue
		}
		runFiles = append(runFiles, types.RunFile{Name: fd.FilePath, Content: content})
	}
	canonical := c.store.Canonical()

	c.state = NewState()
	c.state.Phase = types.PhaseStarting
	c.state.StatusMessage = "starting"
	c.idx = idx
	c.runID = uuid.New().String()
	c.sessionID = ""
	c.lastSynced = nil
	runID := c.runID
	c.mu.Unlock()

	c.store.SetIndex(idx)

	req := types.RunRequest{
		Lang:        lang,
		Entry:       entry,
		Args:        args,
		Files:       runFiles,
		Mode:        "debug",
		Breakpoints: canonical,
	}

	resp, err := c.backend.CreateRun(ctx, req)
	if err != nil {
		c.failStart(err)
		return err
	}

	conn, err := c.backend.Dial(ctx, resp.WSURL)
	if err != nil {
		c.failStart(err)
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.sessionID = resp.SessionID
	c.state.Phase = types.PhaseRunning
	c.state.StatusMessage = "running"
	// The breakpoint set just transmitted in the run request is the synced
	// baseline; record it before any further mutation can race ahead.
	c.lastSynced = canonicalMap(canonical)
	c.mu.Unlock()

	// Mutations that landed while the handshake was in flight are not in the
	// run request; sync them now that the connection is open.
	c.reconcile()

	c.logger.Info("session started",
		"run_id", runID, "session_id", resp.SessionID, "lang", lang, "entry", entry)

	go c.readLoop(conn)
	return nil
}

// failStart settles a failed start back to idle with the failure as the
// status message.
func (c *Controller) failStart(err error) {
	c.mu.Lock()
	c.state = NewState()
	c.state.StatusMessage = err.Error()
	c.conn = nil
	c.lastSynced = nil
	c.mu.Unlock()
	c.output(StreamSys, err.Error())
}

// readLoop consumes inbound messages in delivery order until the connection
// fails or closes. Malformed frames are logged and skipped; everything else
// that errors finalizes the session.
func (c *Controller) readLoop(conn transport.Conn) {
	for {
		msg, err := conn.Receive()
		if err != nil {
			var malformed *transport.MalformedFrameError
			if stderrors.As(err, &malformed) {
				c.output(StreamSys, malformed.Error())
				continue
			}
			c.finalize(conn)
			return
		}
		c.apply(msg)
	}
}

// apply runs one message through the reducer and executes its effects.
func (c *Controller) apply(msg protocol.Inbound) {
	c.mu.Lock()
	next, effects := Reduce(c.state, msg, c.idx)
	c.state = next
	conn := c.conn
	c.mu.Unlock()

	for _, effect := range effects {
		switch e := effect.(type) {
		case LogEffect:
			c.output(e.Stream, e.Text)
		case CloseEffect:
			if conn != nil {
				conn.Close()
			}
		}
	}
}

// finalize settles the session after a connection error or closure. A
// session that was not yet settled becomes terminated; one that already was
// (the normal exit path) completes cleanup back to idle.
func (c *Controller) finalize(conn transport.Conn) {
	conn.Close()

	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.lastSynced = nil
	if c.state.Phase.Settled() {
		exitCode := c.state.ExitCode
		status := c.state.StatusMessage
		c.state = NewState()
		c.state.ExitCode = exitCode
		c.state.StatusMessage = status
	} else {
		c.state = finalizeTerminated(c.state, "connection lost")
	}
	c.mu.Unlock()
}

// Continue resumes execution. The local phase flips to running as soon as
// the transport reports the command was dispatched, without waiting for
// backend confirmation.
func (c *Controller) Continue() error { return c.step(protocol.CmdContinue) }

// Next steps over the current line.
func (c *Controller) Next() error { return c.step(protocol.CmdNext) }

// StepIn steps into the call on the current line.
func (c *Controller) StepIn() error { return c.step(protocol.CmdStepIn) }

// StepOut runs until the current function returns.
func (c *Controller) StepOut() error { return c.step(protocol.CmdStepOut) }

func (c *Controller) step(command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errors.NotConnected()
	}
	if !c.conn.Send(protocol.Command(command)) {
		return errors.NotConnected()
	}
	c.state.clearPaused()
	c.state.Phase = types.PhaseRunning
	c.state.StatusMessage = "running"
	return nil
}

// Stop requests cooperative termination. If the command cannot be
// dispatched (no live connection) the session finalizes locally to idle;
// otherwise the phase is left to the backend's terminal message and only
// the status text changes.
func (c *Controller) Stop() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn != nil && conn.Send(protocol.Command(protocol.CmdStop)) {
		c.mu.Lock()
		c.state.StatusMessage = "stopping"
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.conn = nil
	c.lastSynced = nil
	c.state = NewState()
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// SendInput relays one line of stdin. Input is permitted only while the
// backend has signaled it is waiting; the line is newline-terminated if
// needed, and the local input-wait clears optimistically after dispatch.
func (c *Controller) SendInput(data string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.WaitingForInput {
		return errors.NotAwaitingInput(string(c.state.Phase))
	}
	if c.conn == nil {
		return errors.NotConnected()
	}
	if !strings.HasSuffix(data, "\n") {
		data += "\n"
	}
	if !c.conn.Send(protocol.Stdin(data)) {
		return errors.NotConnected()
	}
	c.state.WaitingForInput = false
	c.state.InputPrompt = ""
	if c.state.Phase == types.PhaseAwaitingInput {
		c.state.Phase = types.PhaseRunning
		c.state.StatusMessage = "running"
	}
	return nil
}

// reconcile sends the incremental breakpoint changes needed to bring the
// backend in line with the store. It diffs the freshest canonical snapshot
// against the last-synced set and sends exactly one add or remove per
// changed key, then records the new set regardless of individual send
// outcomes: a dropped sync is corrected on the next pass or session start.
func (c *Controller) reconcile() {
	// Snapshot the store before taking the controller lock; the store's
	// change notification fires outside its own lock.
	current := c.store.Canonical()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}

	currentMap := canonicalMap(current)
	for key, bp := range currentMap {
		if _, ok := c.lastSynced[key]; !ok {
			c.conn.Send(protocol.BreakpointCommand(protocol.CmdAddBreakpoint, bp.File, bp.Line))
		}
	}
	for key, bp := range c.lastSynced {
		if _, ok := currentMap[key]; !ok {
			c.conn.Send(protocol.BreakpointCommand(protocol.CmdRemoveBreakpoint, bp.File, bp.Line))
		}
	}
	c.lastSynced = currentMap
}

func canonicalMap(list []types.CanonicalBreakpoint) map[string]types.CanonicalBreakpoint {
	m := make(map[string]types.CanonicalBreakpoint, len(list))
	for _, bp := range list {
		m[bp.Key()] = bp
	}
	return m
}
