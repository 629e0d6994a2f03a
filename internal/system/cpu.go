package system

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ProcStatPath is the kernel scheduler statistics source.
var ProcStatPath = "/proc/stat"

// CPUTimes holds the aggregate jiffy counters of the "cpu " line. Values are
// cumulative since boot, only the difference of two samples is meaningful.
type CPUTimes struct {
	User    uint64
	Nice    uint64
	System  uint64
	Idle    uint64
	IOWait  uint64
	IRQ     uint64
	SoftIRQ uint64
	Steal   uint64
}

// Work is user+nice+system.
func (c CPUTimes) Work() uint64 {
	return c.User + c.Nice + c.System
}

// Total is the sum of all eight counters, guest time excluded.
func (c CPUTimes) Total() uint64 {
	return c.Work() + c.Idle + c.IOWait + c.IRQ + c.SoftIRQ + c.Steal
}

func ReadCPUTimes() (CPUTimes, error) {
	f, err := os.Open(ProcStatPath)
	if err != nil {
		return CPUTimes{}, fmt.Errorf("open %s: %w", ProcStatPath, err)
	}
	defer f.Close()

	return ParseCPUTimes(f)
}

// ParseCPUTimes reads a /proc/stat formatted stream and returns the system
// wide aggregate. Per-core lines (cpu0, cpu1...) are ignored.
func ParseCPUTimes(r io.Reader) (CPUTimes, error) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 9 {
			return CPUTimes{}, errorParse(ProcStatPath, fmt.Sprintf("cpu line has %d counters, want 8", len(parts)-1))
		}
		var vals [8]uint64
		for i := range vals {
			v, convErr := strconv.ParseUint(parts[i+1], 10, 64)
			if convErr != nil {
				return CPUTimes{}, &ParseError{Source: ProcStatPath, Reason: fmt.Sprintf("counter %d", i+1), Err: convErr}
			}
			vals[i] = v
		}
		return CPUTimes{
			User:    vals[0],
			Nice:    vals[1],
			System:  vals[2],
			Idle:    vals[3],
			IOWait:  vals[4],
			IRQ:     vals[5],
			SoftIRQ: vals[6],
			Steal:   vals[7],
		}, nil
	}
	if err := s.Err(); err != nil {
		return CPUTimes{}, fmt.Errorf("scan %s: %w", ProcStatPath, err)
	}
	return CPUTimes{}, errorParse(ProcStatPath, "cpu aggregate line not found")
}

// CPUBusyPercent returns 100*Δwork/Δtotal between two samples. It returns
// ErrDivideByZero when no time has been accounted between them, callers should
// keep their previous value for that tick.
func CPUBusyPercent(prev, cur CPUTimes) (float64, error) {
	prevTotal, curTotal := prev.Total(), cur.Total()
	if curTotal <= prevTotal {
		return 0, ErrDivideByZero
	}
	totalDelta := float64(curTotal - prevTotal)

	var workDelta float64
	if cur.Work() > prev.Work() {
		workDelta = float64(cur.Work() - prev.Work())
	}
	usage := workDelta / totalDelta * 100
	if usage > 100 {
		return 100, nil
	}
	return usage, nil
}
