package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/polyrun/debug-client/internal/mcp"
	"github.com/polyrun/debug-client/internal/session"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the debug client as an MCP stdio server",
		Long: `Expose debug session control, breakpoint management and the
auto-breakpoint advisor as MCP tools over stdio. Session output streams to
stderr so it does not interleave with the protocol on stdout.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the MCP protocol; session output goes to stderr.
			output := session.OutputSink(func(stream, text string) {
				os.Stderr.WriteString(text)
			})
			a, err := newApp(output)
			if err != nil {
				return err
			}
			defer a.close()

			srv := mcp.NewServer(a.cfg, a.controller, a.store, a.advisor, a.workspace, a.logger)
			return srv.ServeStdio()
		},
	}
}
