package system

import (
	"errors"
	"strings"
	"testing"
)

const sampleCPUInfo = `processor	: 0
vendor_id	: GenuineIntel
model name	: Intel(R) Core(TM) i7-8550U CPU @ 1.80GHz
cpu MHz		: 1992.000

processor	: 1
vendor_id	: GenuineIntel
model name	: Intel(R) Core(TM) i7-8550U CPU @ 1.80GHz

processor	: 2
model name	: Other Model

processor	: 3
`

func TestParseCPUInfo(t *testing.T) {
	model, cores, err := ParseCPUInfo(strings.NewReader(sampleCPUInfo))
	if err != nil {
		t.Fatalf("ParseCPUInfo: %v", err)
	}
	if model != "Intel(R) Core(TM) i7-8550U CPU @ 1.80GHz" {
		t.Errorf("model = %q", model)
	}
	if cores != 4 {
		t.Errorf("cores = %d, want 4", cores)
	}
}

func TestParseCPUInfoWithoutModel(t *testing.T) {
	_, cores, err := ParseCPUInfo(strings.NewReader("processor\t: 0\nBogoMIPS\t: 48.00\n"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if cores != 1 {
		t.Errorf("cores = %d, want 1", cores)
	}
}

func TestParseOSRelease(t *testing.T) {
	input := `NAME="Debian GNU/Linux"
VERSION_ID="12"
PRETTY_NAME="Debian GNU/Linux 12 (bookworm)"
ID=debian
`
	if got := ParseOSRelease(strings.NewReader(input)); got != "Debian GNU/Linux 12 (bookworm)" {
		t.Fatalf("got %q", got)
	}
	if got := ParseOSRelease(strings.NewReader("ID=alpine\n")); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestUsername(t *testing.T) {
	t.Setenv("USER", "alice")
	t.Setenv("USERNAME", "bob")
	if got := Username(); got != "alice" {
		t.Fatalf("got %q, want alice", got)
	}

	t.Setenv("USER", "")
	if got := Username(); got != "bob" {
		t.Fatalf("got %q, want bob", got)
	}
}
