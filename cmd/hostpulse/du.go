package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hostpulse/internal/system"
)

var duCmd = &cobra.Command{
	Use:   "du <path>...",
	Short: "Print the total size of regular files under each path",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		for _, p := range args {
			size, err := system.FileTreeSize(p)
			if err != nil {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "warning: %s: %v\n", p, err)
			}
			fmt.Fprintf(w, "%-12s %s\n", system.FormatBytes(size), p)
		}
		return nil
	},
}
