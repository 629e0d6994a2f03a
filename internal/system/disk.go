package system

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"
)

// DFCommand is the filesystem usage utility; it is run as `df -Pl`.
var DFCommand = "df"

var errNoFilesystems = errors.New("no block-backed filesystem in output")

var dfGroup singleflight.Group

type MountUsage struct {
	Device     string `json:"device"`
	MountPoint string `json:"mount_point"`
	SizeBytes  uint64 `json:"size_bytes"`
	UsedBytes  uint64 `json:"used_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}

// DiskUsage is the sum over every real (device path starting with "/") local
// mount. The composite ratio hides a full small partition behind a large empty
// one, so Mounts keeps the per-mount rows as well.
type DiskUsage struct {
	SizeBytes uint64
	UsedBytes uint64
	FreeBytes uint64
	Mounts    []MountUsage
}

// Percent is round(used*100/size).
func (d DiskUsage) Percent() (int, error) {
	if d.SizeBytes == 0 {
		return 0, ErrDivideByZero
	}
	return int(math.Round(float64(d.UsedBytes) * 100 / float64(d.SizeBytes))), nil
}

// Summary renders "used / size" in GB with one decimal.
func (d DiskUsage) Summary() string {
	return fmt.Sprintf("%.1fGB / %.1fGB", bytesToGB(d.UsedBytes), bytesToGB(d.SizeBytes))
}

// ParseDF parses POSIX `df -P` output in 1K blocks. A device listed more than
// once (bind mounts) is counted once. When no line matches, the returned usage
// is zero and the error is an *ExternalToolError.
func ParseDF(r io.Reader) (DiskUsage, error) {
	var out DiskUsage
	seen := map[string]bool{}

	s := bufio.NewScanner(r)
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) < 4 || !strings.HasPrefix(fields[0], "/") {
			continue
		}
		var blocks [3]uint64
		for i := range blocks {
			v, err := strconv.ParseUint(fields[i+1], 10, 64)
			if err != nil {
				return DiskUsage{}, &ParseError{Source: DFCommand, Reason: fmt.Sprintf("column %d of %s", i+2, fields[0]), Err: err}
			}
			blocks[i] = v << 10
		}
		if seen[fields[0]] {
			continue
		}
		seen[fields[0]] = true

		mount := MountUsage{
			Device:    fields[0],
			SizeBytes: blocks[0],
			UsedBytes: blocks[1],
			FreeBytes: blocks[2],
		}
		if len(fields) >= 6 {
			mount.MountPoint = strings.Join(fields[5:], " ")
		}
		out.Mounts = append(out.Mounts, mount)
		out.SizeBytes += mount.SizeBytes
		out.UsedBytes += mount.UsedBytes
		out.FreeBytes += mount.FreeBytes
	}
	if err := s.Err(); err != nil {
		return DiskUsage{}, fmt.Errorf("scan %s output: %w", DFCommand, err)
	}
	if len(out.Mounts) == 0 {
		return DiskUsage{}, &ExternalToolError{Tool: DFCommand, Err: errNoFilesystems}
	}
	return out, nil
}

// ReadDiskUsage runs df once for all concurrent callers. The shared run is
// detached from any single caller's cancellation and bounded by
// CommandTimeout; a caller whose ctx ends stops waiting on its own.
func ReadDiskUsage(ctx context.Context) (DiskUsage, error) {
	shared := context.WithoutCancel(ctx)
	ch := dfGroup.DoChan(DFCommand, func() (any, error) {
		res, err := runCommand(shared, CommandTimeout, DFCommand, "-Pl")
		if err != nil {
			var te *TimeoutError
			if errors.As(err, &te) {
				return DiskUsage{}, err
			}
			// df exits non-zero when a single mount is unreadable but still
			// reports the rest.
			if len(res.stdout) == 0 {
				return DiskUsage{}, &ExternalToolError{Tool: DFCommand, Err: err}
			}
		}
		return ParseDF(bytes.NewReader(res.stdout))
	})

	select {
	case <-ctx.Done():
		return DiskUsage{}, ctx.Err()
	case r := <-ch:
		usage, _ := r.Val.(DiskUsage)
		usage.Mounts = slices.Clone(usage.Mounts)
		return usage, r.Err
	}
}

// DiskPercent returns the composite used percentage of all local block-backed
// mounts and its summary text.
func DiskPercent(ctx context.Context) (int, string, error) {
	usage, err := ReadDiskUsage(ctx)
	if err != nil {
		return 0, "", err
	}
	percent, err := usage.Percent()
	if err != nil {
		return 0, "", err
	}
	return percent, usage.Summary(), nil
}

func bytesToGB(b uint64) float64 {
	return float64(b) / 1024 / 1024 / 1024
}
