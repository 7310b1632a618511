package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers the debug tool set.
func (s *Server) registerTools() {
	s.registerDebugStart()
	s.registerDebugStop()
	s.registerDebugState()

	s.registerDebugContinue()
	s.registerDebugStep()
	s.registerDebugStdin()

	s.registerDebugBreakpoints()
	if s.config.AdvisorEnabled {
		s.registerDebugSuggestBreakpoints()
	}
}

func (s *Server) registerDebugStart() {
	tool := mcp.NewTool("debug_start",
		mcp.WithDescription("Start a debug session for the workspace files against the execution backend. Fails if a session is already active."),
		mcp.WithString("language",
			mcp.Required(),
			mcp.Description("Language of the entry file, e.g. python, javascript, go"),
		),
		mcp.WithString("entry",
			mcp.Required(),
			mcp.Description("Path of the entry file, relative to the workspace root"),
		),
		mcp.WithString("args",
			mcp.Description("Space-separated program arguments"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugStart)
}

func (s *Server) registerDebugStop() {
	tool := mcp.NewTool("debug_stop",
		mcp.WithDescription("Request termination of the active debug session. Termination is cooperative: the backend reports the terminal status."),
	)
	s.mcpServer.AddTool(tool, s.handleDebugStop)
}

func (s *Server) registerDebugState() {
	tool := mcp.NewTool("debug_state",
		mcp.WithDescription("Get the current session view: phase, status, paused location, stack frames, locals and exception info."),
	)
	s.mcpServer.AddTool(tool, s.handleDebugState)
}

func (s *Server) registerDebugContinue() {
	tool := mcp.NewTool("debug_continue",
		mcp.WithDescription("Resume execution from a pause."),
	)
	s.mcpServer.AddTool(tool, s.handleDebugContinue)
}

func (s *Server) registerDebugStep() {
	tool := mcp.NewTool("debug_step",
		mcp.WithDescription("Step from the current pause."),
		mcp.WithString("type",
			mcp.Description("Step type: 'over' (default), 'into', or 'out'"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugStep)
}

func (s *Server) registerDebugStdin() {
	tool := mcp.NewTool("debug_stdin",
		mcp.WithDescription("Send one line of input to the program. Allowed only while the program is waiting for input."),
		mcp.WithString("data",
			mcp.Required(),
			mcp.Description("The input line; a trailing newline is added if missing"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugStdin)
}

func (s *Server) registerDebugBreakpoints() {
	tool := mcp.NewTool("debug_breakpoints",
		mcp.WithDescription("Manage breakpoints. Changes are reconciled against a live session automatically."),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("One of: add, remove, toggle, clear, list"),
		),
		mcp.WithString("file",
			mcp.Description("Workspace-relative file path (required for add/remove/toggle)"),
		),
		mcp.WithNumber("line",
			mcp.Description("1-based line number (required for add/remove/toggle)"),
		),
		mcp.WithString("condition",
			mcp.Description("Optional condition expression for add"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugBreakpoints)
}

func (s *Server) registerDebugSuggestBreakpoints() {
	tool := mcp.NewTool("debug_suggest_breakpoints",
		mcp.WithDescription("Ask the suggestion service to propose breakpoints for the workspace and insert any new ones."),
		mcp.WithString("language",
			mcp.Required(),
			mcp.Description("Language of the workspace files"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugSuggestBreakpoints)
}
