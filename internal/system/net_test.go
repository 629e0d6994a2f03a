package system

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleNetDev = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo:    1000      10    0    0    0     0          0         0     1000      10    0    0    0     0       0          0
  eth0:     500       5    0    0    0     0          0         0      300       3    0    0    0     0       0          0
`

func TestParseNetDevSkipsLoopback(t *testing.T) {
	got, err := ParseNetDev(strings.NewReader(sampleNetDev))
	if err != nil {
		t.Fatalf("ParseNetDev: %v", err)
	}
	if got.RxBytes != 500 || got.TxBytes != 300 {
		t.Fatalf("got %+v, want rx=500 tx=300", got)
	}
}

func TestParseNetDevSumsInterfaces(t *testing.T) {
	input := sampleNetDev + "wlan0:1200 9 0 0 0 0 0 0 700 4 0 0 0 0 0 0\n"
	got, err := ParseNetDev(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseNetDev: %v", err)
	}
	if got.RxBytes != 1700 || got.TxBytes != 1000 {
		t.Fatalf("got %+v, want rx=1700 tx=1000", got)
	}
}

func TestReadNetCountersUnavailable(t *testing.T) {
	orig := ProcNetDevPath
	ProcNetDevPath = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { ProcNetDevPath = orig })

	if got := ReadNetCounters(); got != (NetCounters{}) {
		t.Fatalf("got %+v, want zero counters", got)
	}
}

func TestReadNetCounters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev")
	if err := os.WriteFile(path, []byte(sampleNetDev), 0o644); err != nil {
		t.Fatal(err)
	}
	orig := ProcNetDevPath
	ProcNetDevPath = path
	t.Cleanup(func() { ProcNetDevPath = orig })

	if got := ReadNetCounters(); got != (NetCounters{RxBytes: 500, TxBytes: 300}) {
		t.Fatalf("got %+v", got)
	}
}

func TestNetRate(t *testing.T) {
	prev := NetCounters{RxBytes: 1000, TxBytes: 5000}
	cur := NetCounters{RxBytes: 3048, TxBytes: 4000}

	rx, tx := NetRate(prev, cur, 2*time.Second)
	if rx != 1024 {
		t.Errorf("rx = %v, want 1024", rx)
	}
	if tx != 0 {
		t.Errorf("tx = %v, want 0 after counter reset", tx)
	}

	if rx, tx := NetRate(prev, cur, 0); rx != 0 || tx != 0 {
		t.Errorf("zero elapsed: got %v %v", rx, tx)
	}
}
