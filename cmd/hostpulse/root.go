package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hostpulse/internal/agent"
	"hostpulse/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "hostpulse",
	Short: "Desktop system monitor and metrics agent",
	Long: `hostpulse samples CPU, memory, disk and network usage of this machine.

Run it as an agent to serve a local JSON API, keep a short history and
optionally stream samples to a backend, or use the one-shot commands.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd, snapshotCmd, hostCmd, duCmd, cleanCmd)
}

// loadConfig is shared by every command; it also applies the subprocess
// settings so one-shot commands honour the same limits as the agent.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	agent.ApplySystemSettings(cfg)
	return cfg, nil
}
