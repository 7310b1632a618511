package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBreakpointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breakpoints",
		Short: "Inspect or clear the persisted breakpoint store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List persisted breakpoints that resolve in this workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			defer a.close()

			list := a.store.List()
			if len(list) == 0 {
				fmt.Println("no breakpoints")
				return nil
			}
			for _, bp := range list {
				line := fmt.Sprintf("%s:%d", bp.FilePath, bp.Line)
				if bp.Condition != "" {
					line += "  if " + bp.Condition
				}
				fmt.Println(line)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all persisted breakpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			defer a.close()

			a.store.Clear()
			fmt.Println("breakpoints cleared")
			return nil
		},
	})

	return cmd
}
