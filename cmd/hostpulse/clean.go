package main

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hostpulse/internal/model"
	"hostpulse/internal/system"
)

var (
	cleanApply      bool
	cleanCategories []string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Report reclaimable space, and remove it with --apply",
	Long: `clean lists downloaded package archives, crash reports, system logs and
the user cache with their sizes. With --apply the listed entries are removed;
system directories go through the privilege broker (pkexec by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		cats, err := system.ScanCleanup(system.HomeDir())
		if err != nil {
			color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
		cats = filterCategories(cats, cleanCategories)
		report := system.NewCleanupReport(0, cats)
		printCleanup(cmd.OutOrStdout(), report)

		if !cleanApply {
			return nil
		}
		var errs []error
		for _, cat := range cats {
			if len(cat.Entries) == 0 {
				continue
			}
			if err := system.RemoveCleanup(cmd.Context(), cat); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", cat.Name, err))
				continue
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "removed %s (%s)\n", cat.Name, system.FormatBytes(cat.TotalBytes))
		}
		return errors.Join(errs...)
	},
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanApply, "apply", false, "remove the listed entries")
	cleanCmd.Flags().StringSliceVarP(&cleanCategories, "category", "c", nil, "limit to these categories (packages, crash_reports, logs, cache)")
}

func filterCategories(cats []model.CleanupCategory, names []string) []model.CleanupCategory {
	if len(names) == 0 {
		return cats
	}
	out := make([]model.CleanupCategory, 0, len(names))
	for _, c := range cats {
		if slices.Contains(names, c.Name) {
			out = append(out, c)
		}
	}
	return out
}

func printCleanup(w io.Writer, r model.CleanupReport) {
	for _, c := range r.Categories {
		marker := ""
		if c.Privileged {
			marker = " (needs authentication)"
		}
		fmt.Fprintf(w, "%-14s %10s  %d entries  %s%s\n", c.Name, system.FormatBytes(c.TotalBytes), len(c.Entries), c.Dir, marker)
	}
	color.New(color.Bold).Fprintf(w, "%-14s %10s\n", "total", r.Total)
}
