package system

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"runtime"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/host"
)

var (
	ProcCPUInfoPath = "/proc/cpuinfo"
	OSReleasePath   = "/etc/os-release"
)

// HostIdentity is static for the process lifetime.
type HostIdentity struct {
	Username     string
	Hostname     string
	Platform     string
	Distribution string
	Kernel       string
	CPUModel     string
	CPUCores     int
}

// Host returns the identity of this machine, computed on first use.
var Host = sync.OnceValues(func() (HostIdentity, error) {
	return ReadHostIdentity(context.Background())
})

func ReadHostIdentity(ctx context.Context) (HostIdentity, error) {
	id := HostIdentity{
		Username: Username(),
		Platform: runtime.GOOS + " " + runtime.GOARCH,
	}

	info, err := host.InfoWithContext(ctx)
	if err == nil {
		id.Hostname = info.Hostname
		if info.OS != "" && info.KernelArch != "" {
			id.Platform = info.OS + " " + info.KernelArch
		}
		id.Kernel = info.KernelVersion
		id.Distribution = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	}
	if pretty := readPrettyName(OSReleasePath); pretty != "" {
		id.Distribution = pretty
	}

	f, openErr := os.Open(ProcCPUInfoPath)
	if openErr != nil {
		return id, fmt.Errorf("open %s: %w", ProcCPUInfoPath, openErr)
	}
	defer f.Close()

	id.CPUModel, id.CPUCores, err = ParseCPUInfo(f)
	if err != nil {
		return id, err
	}
	return id, nil
}

// Username prefers $USER, then $USERNAME, then the passwd entry of the
// current uid.
func Username() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	if name := os.Getenv("USERNAME"); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// ParseCPUInfo returns the first "model name" value and the number of
// "processor" entries, i.e. logical cores.
func ParseCPUInfo(r io.Reader) (string, int, error) {
	var model string
	cores := 0

	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		switch {
		case strings.HasPrefix(line, "processor"):
			cores++
		case model == "" && strings.HasPrefix(line, "model name"):
			if _, value, ok := strings.Cut(line, ":"); ok {
				model = strings.TrimSpace(value)
			}
		}
	}
	if err := s.Err(); err != nil {
		return "", 0, fmt.Errorf("scan %s: %w", ProcCPUInfoPath, err)
	}
	if model == "" {
		return "", cores, errorParse(ProcCPUInfoPath, "model name missing")
	}
	return model, cores, nil
}

// ParseOSRelease returns PRETTY_NAME from an os-release formatted stream.
func ParseOSRelease(r io.Reader) string {
	s := bufio.NewScanner(r)
	for s.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(s.Text()), "=")
		if !ok || key != "PRETTY_NAME" {
			continue
		}
		return strings.Trim(value, `"'`)
	}
	return ""
}

func readPrettyName(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	return ParseOSRelease(f)
}

// Uptime in seconds.
func Uptime(ctx context.Context) (uint64, error) {
	return host.UptimeWithContext(ctx)
}
