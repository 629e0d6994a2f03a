package main

import (
	"github.com/spf13/cobra"

	"hostpulse/internal/agent"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitoring agent until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := agent.BuildLogger(cfg)
		a, err := agent.New(cfg, logger)
		if err != nil {
			logger.Error("agent initialization failed", "error", err)
			return err
		}
		if err := a.Run(cmd.Context()); err != nil {
			logger.Error("agent runtime failed", "error", err)
			return err
		}
		return nil
	},
}
