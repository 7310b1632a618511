package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/polyrun/debug-client/pkg/types"
)

func newRunCmd() *cobra.Command {
	var (
		lang  string
		entry string
		args  []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a debug session and interact with it from the terminal",
		Long: `Start a debug session against the backend.

Program stdout and stderr stream to the terminal. While the program waits
for input, typed lines are relayed to it. While execution is paused at a
breakpoint, typed lines are debug commands:

  c          continue
  n          step over
  s          step into
  o          step out
  bt         print the call stack
  locals     print local variables
  q          stop the session`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(lang, entry, args)
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "language of the entry file (required)")
	cmd.Flags().StringVar(&entry, "entry", "", "entry file, relative to the workspace root (required)")
	cmd.Flags().StringSliceVar(&args, "arg", nil, "program argument (repeatable)")
	cmd.MarkFlagRequired("lang")
	cmd.MarkFlagRequired("entry")
	return cmd
}

func runSession(lang, entry string, args []string) error {
	a, err := newApp(printOutput)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	if err := a.controller.Start(ctx, lang, entry, args); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	wasPaused := false
	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "stopping...")
			a.controller.Stop()

		case line, ok := <-lines:
			if !ok {
				a.controller.Stop()
				return nil
			}
			view := a.controller.Snapshot()
			switch {
			case view.Phase == types.PhasePaused:
				if done := a.handleDebugCommand(view, line); done {
					return nil
				}
			case view.WaitingForInput:
				if err := a.controller.SendInput(line); err != nil {
					fmt.Fprintln(os.Stderr, err.Error())
				}
			default:
				fmt.Fprintln(os.Stderr, "(program is not waiting for input)")
			}

		case <-ticker.C:
			view := a.controller.Snapshot()
			if view.Phase == types.PhasePaused && !wasPaused {
				printPause(view)
			}
			wasPaused = view.Phase == types.PhasePaused
			if view.Phase == types.PhaseIdle || view.Phase == types.PhaseTerminated {
				// Give the read loop a beat to flush trailing output.
				time.Sleep(100 * time.Millisecond)
				if view.ExitCode != nil {
					fmt.Fprintf(os.Stderr, "exit code %d\n", *view.ExitCode)
				}
				return nil
			}
		}
	}
}

// handleDebugCommand interprets one debugger REPL line while paused. It
// returns true when the session should end.
func (a *app) handleDebugCommand(view types.SessionView, line string) bool {
	switch strings.TrimSpace(line) {
	case "c":
		a.report(a.controller.Continue())
	case "n":
		a.report(a.controller.Next())
	case "s":
		a.report(a.controller.StepIn())
	case "o":
		a.report(a.controller.StepOut())
	case "bt":
		for i, frame := range view.StackFrames {
			fmt.Printf("  #%d %s at %s:%d\n", i, frame.Function, frame.File, frame.Line)
		}
	case "locals":
		for name, value := range view.Locals {
			fmt.Printf("  %s = %s\n", name, value)
		}
	case "q":
		a.controller.Stop()
		return true
	default:
		fmt.Fprintln(os.Stderr, "commands: c, n, s, o, bt, locals, q")
	}
	return false
}

func (a *app) report(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
	}
}

func printOutput(stream, text string) {
	switch stream {
	case "out":
		fmt.Print(text)
	case "err":
		fmt.Fprint(os.Stderr, text)
	default:
		fmt.Fprintln(os.Stderr, "["+stream+"] "+strings.TrimRight(text, "\n"))
	}
}

func printPause(view types.SessionView) {
	loc := view.PausedLocation
	if loc == nil {
		return
	}
	where := loc.File + ":" + strconv.Itoa(loc.Line)
	if loc.FunctionName != "" {
		where += " (" + loc.FunctionName + ")"
	}
	fmt.Fprintln(os.Stderr, "paused at "+where)
	if view.Exception != nil {
		fmt.Fprintln(os.Stderr, "exception: "+view.Exception.Message)
	}
}
