package system

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ProcMemInfoPath is the kernel memory statistics source.
var ProcMemInfoPath = "/proc/meminfo"

// MemoryInfo carries the raw /proc/meminfo values in KiB.
type MemoryInfo struct {
	TotalKiB     uint64
	AvailableKiB uint64
	SwapTotalKiB uint64
	SwapFreeKiB  uint64
}

func (m MemoryInfo) TotalBytes() uint64 {
	return m.TotalKiB << 10
}

// UsedBytes is MemTotal-MemAvailable, never more than TotalBytes.
func (m MemoryInfo) UsedBytes() uint64 {
	if m.AvailableKiB >= m.TotalKiB {
		return 0
	}
	return (m.TotalKiB - m.AvailableKiB) << 10
}

func (m MemoryInfo) SwapTotalBytes() uint64 {
	return m.SwapTotalKiB << 10
}

func (m MemoryInfo) SwapUsedBytes() uint64 {
	if m.SwapFreeKiB >= m.SwapTotalKiB {
		return 0
	}
	return (m.SwapTotalKiB - m.SwapFreeKiB) << 10
}

func ReadMemory() (MemoryInfo, error) {
	f, err := os.Open(ProcMemInfoPath)
	if err != nil {
		return MemoryInfo{}, fmt.Errorf("open %s: %w", ProcMemInfoPath, err)
	}
	defer f.Close()

	return ParseMemInfo(f)
}

func ParseMemInfo(r io.Reader) (MemoryInfo, error) {
	var out MemoryInfo
	targets := map[string]*uint64{
		"MemTotal":     &out.TotalKiB,
		"MemAvailable": &out.AvailableKiB,
		"SwapTotal":    &out.SwapTotalKiB,
		"SwapFree":     &out.SwapFreeKiB,
	}
	seen := map[string]bool{}

	s := bufio.NewScanner(r)
	for s.Scan() {
		parts := strings.Fields(s.Text())
		if len(parts) < 2 {
			continue
		}
		key := strings.TrimSuffix(parts[0], ":")
		dst, ok := targets[key]
		if !ok || seen[key] {
			continue
		}
		v, convErr := strconv.ParseUint(parts[1], 10, 64)
		if convErr != nil {
			return MemoryInfo{}, &ParseError{Source: ProcMemInfoPath, Reason: key, Err: convErr}
		}
		*dst = v
		seen[key] = true
	}
	if err := s.Err(); err != nil {
		return MemoryInfo{}, fmt.Errorf("scan %s: %w", ProcMemInfoPath, err)
	}
	for _, key := range []string{"MemTotal", "MemAvailable", "SwapTotal", "SwapFree"} {
		if !seen[key] {
			return MemoryInfo{}, errorParse(ProcMemInfoPath, key+" missing")
		}
	}
	return out, nil
}

// Percent is round(used*100/total).
func (m MemoryInfo) Percent() (int, error) {
	if m.TotalKiB == 0 {
		return 0, ErrDivideByZero
	}
	used := m.TotalKiB - min(m.AvailableKiB, m.TotalKiB)
	return int(math.Round(float64(used) * 100 / float64(m.TotalKiB))), nil
}

// Summary renders "used / total" in GB with one decimal.
func (m MemoryInfo) Summary() string {
	used := m.TotalKiB - min(m.AvailableKiB, m.TotalKiB)
	return fmt.Sprintf("%.1fGB / %.1fGB", kibToGB(used), kibToGB(m.TotalKiB))
}

// MemoryPercent reads /proc/meminfo and returns the used percentage together
// with its summary text.
func MemoryPercent() (int, string, error) {
	m, err := ReadMemory()
	if err != nil {
		return 0, "", err
	}
	percent, err := m.Percent()
	if err != nil {
		return 0, "", err
	}
	return percent, m.Summary(), nil
}

func kibToGB(kib uint64) float64 {
	return float64(kib) / 1024 / 1024
}
