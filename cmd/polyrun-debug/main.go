// Command polyrun-debug is a terminal client for the polyrun execution
// backend: it creates remote debug runs, relays program input and output,
// manages persisted breakpoints, and can expose the same operations over
// MCP for agent use.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/polyrun/debug-client/internal/advisor"
	"github.com/polyrun/debug-client/internal/breakpoints"
	"github.com/polyrun/debug-client/internal/config"
	"github.com/polyrun/debug-client/internal/log"
	"github.com/polyrun/debug-client/internal/paths"
	"github.com/polyrun/debug-client/internal/session"
	"github.com/polyrun/debug-client/internal/storage"
	"github.com/polyrun/debug-client/internal/transport"
	"github.com/polyrun/debug-client/internal/version"
	"github.com/polyrun/debug-client/internal/workspace"
)

var (
	flagConfig    string
	flagWorkspace string
	flagBackend   string
)

func main() {
	root := &cobra.Command{
		Use:           "polyrun-debug",
		Short:         "Debug client for the polyrun execution backend",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to configuration file")
	root.PersistentFlags().StringVar(&flagWorkspace, "workspace", ".", "workspace root directory")
	root.PersistentFlags().StringVar(&flagBackend, "backend", "", "backend base URL (overrides config)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newMCPCmd())
	root.AddCommand(newBreakpointsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles the wired collaborators shared by the subcommands.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	state      *storage.Store
	workspace  *workspace.Dir
	store      *breakpoints.Store
	controller *session.Controller
	advisor    *advisor.Advisor
}

// newApp loads configuration and wires the full client. The output sink
// receives session output lines.
func newApp(output session.OutputSink) (*app, error) {
	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if flagBackend != "" {
		cfg.BackendURL = flagBackend
	}

	logger := log.New(log.Config{Level: cfg.LogLevel, Format: log.Format(cfg.LogFormat)})

	ws, err := workspace.Scan(flagWorkspace)
	if err != nil {
		return nil, fmt.Errorf("failed to scan workspace: %w", err)
	}

	state, err := storage.Open(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local state: %w", err)
	}

	idx := paths.BuildIndex(ws.Files())
	store := breakpoints.NewStore(idx, logger,
		breakpoints.WithCapacity(cfg.MaxBreakpoints),
		breakpoints.WithStorage(state))

	backend := transport.NewClient(cfg.RunURL(), cfg.HandshakeTimeout, logger)
	controller := session.NewController(backend, ws, store, logger, output)
	adv := advisor.New(cfg.AdvisorURL(), ws, store, logger)

	// Rehydrate persisted breakpoints; entries for files no longer in the
	// workspace are dropped silently.
	if err := store.Load(); err != nil {
		logger.Warn("failed to load persisted breakpoints", "error", err)
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		state:      state,
		workspace:  ws,
		store:      store,
		controller: controller,
		advisor:    adv,
	}, nil
}

func (a *app) close() {
	if a.state != nil {
		a.state.Close()
	}
}
