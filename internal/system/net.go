package system

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ProcNetDevPath is the kernel network device statistics source.
var ProcNetDevPath = "/proc/net/dev"

// NetCounters are cumulative byte counters summed over every interface
// except loopback.
type NetCounters struct {
	RxBytes uint64
	TxBytes uint64
}

// ReadNetCounters never fails: an unreadable source yields zero counters so a
// polling loop keeps running.
func ReadNetCounters() NetCounters {
	f, err := os.Open(ProcNetDevPath)
	if err != nil {
		return NetCounters{}
	}
	defer f.Close()

	out, err := ParseNetDev(f)
	if err != nil {
		return NetCounters{}
	}
	return out
}

func ParseNetDev(r io.Reader) (NetCounters, error) {
	var out NetCounters
	s := bufio.NewScanner(r)
	lineNo := 0
	for s.Scan() {
		lineNo++
		if lineNo <= 2 {
			continue
		}
		iface, rest, ok := strings.Cut(s.Text(), ":")
		if !ok {
			continue
		}
		iface = strings.TrimSpace(iface)
		if iface == "lo" || iface == "" {
			continue
		}
		metrics := strings.Fields(rest)
		if len(metrics) < 9 {
			continue
		}
		rx, rxErr := strconv.ParseUint(metrics[0], 10, 64)
		tx, txErr := strconv.ParseUint(metrics[8], 10, 64)
		if rxErr != nil || txErr != nil {
			continue
		}
		out.RxBytes += rx
		out.TxBytes += tx
	}
	if err := s.Err(); err != nil {
		return NetCounters{}, fmt.Errorf("scan %s: %w", ProcNetDevPath, err)
	}
	return out, nil
}

// NetRate converts two counter samples into bytes per second. A direction
// whose counter went backwards (interface removed, counter wrap) reports 0.
func NetRate(prev, cur NetCounters, elapsed time.Duration) (rx, tx float64) {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0, 0
	}
	if cur.RxBytes >= prev.RxBytes {
		rx = float64(cur.RxBytes-prev.RxBytes) / secs
	}
	if cur.TxBytes >= prev.TxBytes {
		tx = float64(cur.TxBytes-prev.TxBytes) / secs
	}
	return rx, tx
}
