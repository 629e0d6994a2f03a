package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"hostpulse/internal/model"
)

var (
	AptArchivesDir = "/var/cache/apt/archives"
	CrashReportDir = "/var/crash"
	LogDir         = "/var/log"
)

type cleanupSource struct {
	name       string
	dir        string
	filesOnly  bool
	privileged bool
}

// ScanCleanup lists downloaded package archives, crash reports, system logs
// and the user's cache directory with their sizes. Missing directories give
// empty categories. home may be empty, in which case the cache is skipped.
func ScanCleanup(home string) ([]model.CleanupCategory, error) {
	sources := []cleanupSource{
		{name: "packages", dir: AptArchivesDir, filesOnly: true, privileged: true},
		{name: "crash_reports", dir: CrashReportDir, filesOnly: true, privileged: true},
		{name: "logs", dir: LogDir, privileged: true},
	}
	if home != "" {
		sources = append(sources, cleanupSource{name: "cache", dir: filepath.Join(home, ".cache")})
	}

	var errs []error
	out := make([]model.CleanupCategory, 0, len(sources))
	for _, src := range sources {
		cat := model.CleanupCategory{Name: src.name, Dir: src.dir, Privileged: src.privileged}
		entries, err := scanCleanupDir(src.dir, src.filesOnly)
		if err != nil {
			errs = append(errs, err)
		}
		for _, e := range entries {
			cat.TotalBytes += e.SizeBytes
		}
		cat.Entries = entries
		out = append(out, cat)
	}
	return out, errors.Join(errs...)
}

func scanCleanupDir(dir string, filesOnly bool) ([]model.CleanupEntry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var out []model.CleanupEntry
	for _, de := range dirEntries {
		isDir := de.IsDir()
		if isDir && filesOnly {
			continue
		}
		if !isDir && !de.Type().IsRegular() {
			continue
		}
		p := filepath.Join(dir, de.Name())
		// Unreadable parts of a subtree are left out of its size.
		size, _ := FileTreeSize(p)
		out = append(out, model.CleanupEntry{Path: p, SizeBytes: size, Dir: isDir})
	}
	return out, nil
}

// RemoveCleanup deletes every entry of the category, going through the
// privilege broker for system directories.
func RemoveCleanup(ctx context.Context, cat model.CleanupCategory) error {
	if len(cat.Entries) == 0 {
		return nil
	}
	if cat.Privileged {
		args := []string{"-rf", "--"}
		for _, e := range cat.Entries {
			args = append(args, e.Path)
		}
		_, err := RunPrivileged(ctx, "rm", args...)
		return err
	}

	var errs []error
	for _, e := range cat.Entries {
		if err := os.RemoveAll(e.Path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewCleanupReport totals the scanned categories.
func NewCleanupReport(at int64, cats []model.CleanupCategory) model.CleanupReport {
	r := model.CleanupReport{ScannedAtUnix: at, Categories: cats}
	for _, c := range cats {
		r.TotalBytes += c.TotalBytes
	}
	r.Total = FormatBytes(r.TotalBytes)
	return r
}

// HomeDir returns the current user's home directory or "".
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
