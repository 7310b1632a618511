// Package mcp exposes the debug client through the Model Context Protocol.
//
// The tools mirror the operations the browser UI has:
//
// Session control:
//   - debug_start: create a remote run and open the session connection
//   - debug_stop: request cooperative termination
//   - debug_state: read the derived session view
//
// Execution control:
//   - debug_continue: resume from a pause
//   - debug_step: step over/into/out
//   - debug_stdin: relay one line of input
//
// Breakpoints:
//   - debug_breakpoints: add/remove/toggle/clear/list breakpoints
//   - debug_suggest_breakpoints: invoke the auto-breakpoint advisor
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/polyrun/debug-client/internal/advisor"
	"github.com/polyrun/debug-client/internal/breakpoints"
	"github.com/polyrun/debug-client/internal/config"
	"github.com/polyrun/debug-client/internal/session"
	"github.com/polyrun/debug-client/internal/version"
)

// Server wraps the MCP server with the debug client's collaborators.
type Server struct {
	mcpServer  *server.MCPServer
	controller *session.Controller
	store      *breakpoints.Store
	advisor    *advisor.Advisor
	files      session.FileSource
	config     *config.Config
	logger     *slog.Logger
}

// NewServer assembles the MCP surface over an already-wired controller,
// breakpoint store and advisor.
func NewServer(cfg *config.Config, ctrl *session.Controller, store *breakpoints.Store, adv *advisor.Advisor, files session.FileSource, logger *slog.Logger) *Server {
	mcpServer := server.NewMCPServer(
		"polyrun-debug",
		version.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s := &Server{
		mcpServer:  mcpServer,
		controller: ctrl,
		store:      store,
		advisor:    adv,
		files:      files,
		config:     cfg,
		logger:     logger,
	}

	s.registerTools()
	return s
}

// ServeStdio starts the server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
