package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hostpulse/internal/agent"
	"hostpulse/internal/collector"
	"hostpulse/internal/model"
	"hostpulse/internal/system"
)

var (
	snapshotInterval time.Duration
	snapshotJSON     bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Take two samples one interval apart and print usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := agent.BuildLogger(cfg)
		sampler := collector.NewSampler(collector.DefaultSources(), cfg.AgentID, cfg.Hostname, logger)

		if _, err := sampler.Collect(cmd.Context()); err != nil {
			logger.Debug("baseline sample partial", "error", err)
		}
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-time.After(snapshotInterval):
		}
		snap, err := sampler.Collect(cmd.Context())
		if err != nil {
			logger.Warn("sample partial", "error", err)
		}

		if snapshotJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}
		printSnapshot(cmd.OutOrStdout(), snap)
		return nil
	},
}

func init() {
	snapshotCmd.Flags().DurationVarP(&snapshotInterval, "interval", "i", time.Second, "time between the two samples")
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "print the snapshot as JSON")
}

func printSnapshot(w io.Writer, s model.Snapshot) {
	cpu := "n/a"
	if s.CPUValid {
		cpu = usageColor(s.CPUPercent).Sprintf("%.1f%%", s.CPUPercent)
	}
	fmt.Fprintf(w, "CPU      %s\n", cpu)
	fmt.Fprintf(w, "Memory   %s  (%s)\n", usageColor(float64(s.MemoryPercent)).Sprintf("%d%%", s.MemoryPercent), s.MemorySummary)
	fmt.Fprintf(w, "Disk     %s  (%s)\n", usageColor(float64(s.DiskPercent)).Sprintf("%d%%", s.DiskPercent), s.DiskSummary)
	for _, m := range s.DiskMounts {
		fmt.Fprintf(w, "  %-20s %s / %s\n", m.MountPoint, system.FormatBytes(m.UsedBytes), system.FormatBytes(m.SizeBytes))
	}
	fmt.Fprintf(w, "Network  down %s  up %s\n", s.NetRxRate, s.NetTxRate)
	if s.UptimeSeconds > 0 {
		fmt.Fprintf(w, "Uptime   %s\n", time.Duration(s.UptimeSeconds)*time.Second)
	}
}

// usageColor is green below 60%, yellow below 85%, red above.
func usageColor(pct float64) *color.Color {
	switch {
	case pct >= 85:
		return color.New(color.FgRed, color.Bold)
	case pct >= 60:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
