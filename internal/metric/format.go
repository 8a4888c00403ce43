package metric

import (
	"fmt"
	"math"
)

const bytesPerMB = 1024 * 1024

// FormatUptime renders sysUpTime timeticks (hundredths of a second) as
// "{days}d {hours}h {minutes}m".
func FormatUptime(timeticks uint64) string {
	seconds := timeticks / 100
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

func clampPct(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ratioPct(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}
