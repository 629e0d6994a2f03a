package system

import (
	"errors"
	"strings"
	"testing"
)

const sampleProcStat = `cpu  4705 356 584 3699 23 23 0 0 0 0
cpu0 1393 280 439 1833 11 21 0 0 0 0
cpu1 3312 76 145 1866 12 2 0 0 0 0
intr 114930548 113199788 3 0 5 263 0 4 [... lots more numbers ...]
ctxt 1990473
btime 1062191376
`

func TestParseCPUTimes(t *testing.T) {
	got, err := ParseCPUTimes(strings.NewReader(sampleProcStat))
	if err != nil {
		t.Fatalf("ParseCPUTimes: %v", err)
	}
	want := CPUTimes{User: 4705, Nice: 356, System: 584, Idle: 3699, IOWait: 23, IRQ: 23}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if got.Work() != 5645 {
		t.Errorf("Work() = %d, want 5645", got.Work())
	}
	if got.Total() != 9390 {
		t.Errorf("Total() = %d, want 9390", got.Total())
	}
}

func TestParseCPUTimesIgnoresGuestColumns(t *testing.T) {
	got, err := ParseCPUTimes(strings.NewReader("cpu  1 2 3 4 5 6 7 8 900 900\n"))
	if err != nil {
		t.Fatalf("ParseCPUTimes: %v", err)
	}
	if got.Total() != 36 {
		t.Fatalf("Total() = %d, want 36", got.Total())
	}
	if got.Work() > got.Total() {
		t.Fatalf("work %d exceeds total %d", got.Work(), got.Total())
	}
}

func TestParseCPUTimesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "no aggregate line", input: "cpu0 1 2 3 4 5 6 7 8\nintr 1\n"},
		{name: "too few counters", input: "cpu  1 2 3 4\n"},
		{name: "non numeric counter", input: "cpu  1 2 x 4 5 6 7 8\n"},
		{name: "empty", input: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCPUTimes(strings.NewReader(tt.input))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
		})
	}
}

func TestCPUBusyPercent(t *testing.T) {
	prev := CPUTimes{User: 100, Nice: 0, System: 50, Idle: 800, IOWait: 50}
	cur := CPUTimes{User: 150, Nice: 10, System: 90, Idle: 900, IOWait: 50}

	got, err := CPUBusyPercent(prev, cur)
	if err != nil {
		t.Fatalf("CPUBusyPercent: %v", err)
	}
	// Δwork = 100, Δtotal = 200
	if got != 50 {
		t.Fatalf("busy = %v, want 50", got)
	}
}

func TestCPUBusyPercentBounds(t *testing.T) {
	samples := []CPUTimes{
		{User: 10, Idle: 10},
		{User: 10, Idle: 50},
		{User: 90, Idle: 50},
		{User: 95, System: 5, Idle: 60, Steal: 3},
	}
	for i := 1; i < len(samples); i++ {
		got, err := CPUBusyPercent(samples[i-1], samples[i])
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		if got < 0 || got > 100 {
			t.Fatalf("sample %d: busy %v out of range", i, got)
		}
	}
}

func TestCPUBusyPercentNoElapsedTime(t *testing.T) {
	s := CPUTimes{User: 10, Idle: 10}
	if _, err := CPUBusyPercent(s, s); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("error = %v, want ErrDivideByZero", err)
	}
	if _, err := CPUBusyPercent(CPUTimes{Idle: 100}, CPUTimes{Idle: 10}); !errors.Is(err, ErrDivideByZero) {
		t.Fatalf("backwards counters: error = %v, want ErrDivideByZero", err)
	}
}
