package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/polyrun/debug-client/internal/paths"
	"github.com/polyrun/debug-client/pkg/types"
)

// Session control

func (s *Server) handleDebugStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	language, err := request.RequireString("language")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter 'language'"), nil
	}
	entry, err := request.RequireString("entry")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter 'entry'"), nil
	}
	var args []string
	if raw := request.GetString("args", ""); raw != "" {
		args = strings.Fields(raw)
	}

	if err := s.controller.Start(ctx, language, entry, args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.viewResult()
}

func (s *Server) handleDebugStop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.controller.Stop()
	return s.viewResult()
}

func (s *Server) handleDebugState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.viewResult()
}

// Execution control

func (s *Server) handleDebugContinue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.controller.Continue(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.viewResult()
}

func (s *Server) handleDebugStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var err error
	switch request.GetString("type", "over") {
	case "over":
		err = s.controller.Next()
	case "into":
		err = s.controller.StepIn()
	case "out":
		err = s.controller.StepOut()
	default:
		return mcp.NewToolResultError("step type must be 'over', 'into', or 'out'"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.viewResult()
}

func (s *Server) handleDebugStdin(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := request.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter 'data'"), nil
	}
	if err := s.controller.SendInput(data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.viewResult()
}

// Breakpoints

func (s *Server) handleDebugBreakpoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := request.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter 'action'"), nil
	}

	switch action {
	case "list":
		return jsonResult(s.store.List())

	case "clear":
		s.store.Clear()
		return mcp.NewToolResultText("breakpoints cleared"), nil

	case "add", "remove", "toggle":
		file, err := request.RequireString("file")
		if err != nil {
			return mcp.NewToolResultError("missing required parameter 'file'"), nil
		}
		line := request.GetInt("line", 0)
		if line < 1 {
			return mcp.NewToolResultError("parameter 'line' must be a positive integer"), nil
		}
		fd, ok := s.resolveFile(file)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("file %q is not part of the workspace", file)), nil
		}

		switch action {
		case "add":
			bp, added, err := s.store.Add(fd.FileID, line, request.GetString("condition", ""))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if !added {
				return mcp.NewToolResultText(fmt.Sprintf("breakpoint already set at %s:%d", bp.FilePath, bp.Line)), nil
			}
			return jsonResult(bp)
		case "remove":
			if !s.store.RemoveAt(fd.FileID, line) {
				return mcp.NewToolResultText(fmt.Sprintf("no breakpoint at %s:%d", fd.FilePath, line)), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("removed breakpoint at %s:%d", fd.FilePath, line)), nil
		default:
			bp, added, err := s.store.Toggle(fd.FileID, line)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if !added {
				return mcp.NewToolResultText(fmt.Sprintf("removed breakpoint at %s:%d", fd.FilePath, line)), nil
			}
			return jsonResult(bp)
		}

	default:
		return mcp.NewToolResultError("action must be one of: add, remove, toggle, clear, list"), nil
	}
}

func (s *Server) handleDebugSuggestBreakpoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	language, err := request.RequireString("language")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter 'language'"), nil
	}
	report := s.advisor.Suggest(ctx, language)
	return jsonResult(report)
}

// Helpers

func (s *Server) resolveFile(file string) (types.FileDescriptor, bool) {
	idx := paths.BuildIndex(s.files.Files())
	return idx.Resolve(file)
}

func (s *Server) viewResult() (*mcp.CallToolResult, error) {
	return jsonResult(s.controller.Snapshot())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}
