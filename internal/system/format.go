package system

import "fmt"

const (
	kibi uint64 = 1 << (10 * (iota + 1))
	mebi
	gibi
	tebi
	pebi
	exbi
)

// FormatRate renders a throughput with integer division per unit step.
func FormatRate(bytesPerSecond uint64) string {
	switch {
	case bytesPerSecond < kibi:
		return fmt.Sprintf("%d B/s", bytesPerSecond)
	case bytesPerSecond < mebi:
		return fmt.Sprintf("%d K/s", bytesPerSecond/kibi)
	case bytesPerSecond < gibi:
		return fmt.Sprintf("%d M/s", bytesPerSecond/mebi)
	default:
		return fmt.Sprintf("%d G/s", bytesPerSecond/gibi)
	}
}

// FormatBytes renders a size using binary multiples with one decimal.
func FormatBytes(n uint64) string {
	switch {
	case n == 1:
		return "1 byte"
	case n < kibi:
		return fmt.Sprintf("%d bytes", n)
	case n < mebi:
		return formatUnit(n, kibi, "KB")
	case n < gibi:
		return formatUnit(n, mebi, "MB")
	case n < tebi:
		return formatUnit(n, gibi, "GB")
	case n < pebi:
		return formatUnit(n, tebi, "TB")
	case n < exbi:
		return formatUnit(n, pebi, "PB")
	default:
		return formatUnit(n, exbi, "EB")
	}
}

func formatUnit(n, unit uint64, suffix string) string {
	return fmt.Sprintf("%.1f %s", float64(n)/float64(unit), suffix)
}
