package system

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"hostpulse/internal/model"
)

func withCleanupDirs(t *testing.T) (apt, crash, logs string) {
	t.Helper()
	base := t.TempDir()
	apt = filepath.Join(base, "archives")
	crash = filepath.Join(base, "crash")
	logs = filepath.Join(base, "log")
	for _, d := range []string{apt, filepath.Join(apt, "partial"), logs, filepath.Join(logs, "journal")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	origApt, origCrash, origLog := AptArchivesDir, CrashReportDir, LogDir
	AptArchivesDir, CrashReportDir, LogDir = apt, crash, logs
	t.Cleanup(func() { AptArchivesDir, CrashReportDir, LogDir = origApt, origCrash, origLog })
	return apt, crash, logs
}

func TestScanCleanup(t *testing.T) {
	apt, _, logs := withCleanupDirs(t)
	writeSized(t, filepath.Join(apt, "vim.deb"), 300)
	writeSized(t, filepath.Join(apt, "partial", "curl.deb"), 999)
	writeSized(t, filepath.Join(logs, "syslog"), 40)
	writeSized(t, filepath.Join(logs, "journal", "system.journal"), 60)

	home := t.TempDir()
	cache := filepath.Join(home, ".cache", "thumbnails")
	if err := os.MkdirAll(cache, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSized(t, filepath.Join(cache, "x.png"), 7)

	cats, err := ScanCleanup(home)
	if err != nil {
		t.Fatalf("ScanCleanup: %v", err)
	}
	byName := map[string]model.CleanupCategory{}
	for _, c := range cats {
		byName[c.Name] = c
	}

	if got := byName["packages"]; got.TotalBytes != 300 || len(got.Entries) != 1 || !got.Privileged {
		t.Errorf("packages = %+v", got)
	}
	if got := byName["crash_reports"]; got.TotalBytes != 0 || len(got.Entries) != 0 {
		t.Errorf("crash_reports = %+v", got)
	}
	if got := byName["logs"]; got.TotalBytes != 100 || len(got.Entries) != 2 {
		t.Errorf("logs = %+v", got)
	}
	if got := byName["cache"]; got.TotalBytes != 7 || got.Privileged {
		t.Errorf("cache = %+v", got)
	}
}

func TestRemoveCleanupUserCategory(t *testing.T) {
	dir := t.TempDir()
	victim := filepath.Join(dir, "old")
	if err := os.MkdirAll(filepath.Join(victim, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	cat := model.CleanupCategory{Name: "cache", Dir: dir, Entries: []model.CleanupEntry{{Path: victim, Dir: true}}}

	if err := RemoveCleanup(context.Background(), cat); err != nil {
		t.Fatalf("RemoveCleanup: %v", err)
	}
	if _, err := os.Stat(victim); !os.IsNotExist(err) {
		t.Fatalf("entry still present: %v", err)
	}
}

func TestRemoveCleanupPrivilegedUsesBroker(t *testing.T) {
	withBroker(t, 0)
	dir := t.TempDir()
	victim := filepath.Join(dir, "crash.report")
	writeSized(t, victim, 10)
	cat := model.CleanupCategory{Name: "crash_reports", Dir: dir, Privileged: true, Entries: []model.CleanupEntry{{Path: victim}}}

	if err := RemoveCleanup(context.Background(), cat); err != nil {
		t.Fatalf("RemoveCleanup: %v", err)
	}
	if _, err := os.Stat(victim); !os.IsNotExist(err) {
		t.Fatalf("entry still present: %v", err)
	}
}

func TestNewCleanupReport(t *testing.T) {
	report := NewCleanupReport(42, []model.CleanupCategory{
		{Name: "logs", TotalBytes: 1024},
		{Name: "cache", TotalBytes: 512},
	})
	if report.ScannedAtUnix != 42 || report.TotalBytes != 1536 || report.Total != "1.5 KB" {
		t.Fatalf("report = %+v", report)
	}
}
