package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hostpulse/internal/system"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Print the identity of this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := system.ReadHostIdentity(cmd.Context())
		if err != nil {
			color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
		w := cmd.OutOrStdout()
		label := color.New(color.FgCyan)
		row := func(name, value string) {
			label.Fprintf(w, "%-13s", name)
			fmt.Fprintln(w, value)
		}
		row("User", id.Username)
		row("Hostname", id.Hostname)
		row("Platform", id.Platform)
		row("Distribution", id.Distribution)
		row("Kernel", id.Kernel)
		row("CPU", fmt.Sprintf("%s (%d cores)", id.CPUModel, id.CPUCores))
		if up, err := system.Uptime(cmd.Context()); err == nil {
			row("Uptime", (time.Duration(up) * time.Second).String())
		}
		return nil
	},
}
