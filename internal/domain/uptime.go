package domain

import "fmt"

// FormatUptime renders a device uptime as "HH:MM:SS", prefixed with
// "<n>days " once it passes a day.
func FormatUptime(uptimeMs int64) string {
	if uptimeMs < 0 {
		uptimeMs = 0
	}
	total := uptimeMs / 1000
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	clock := fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	if days > 0 {
		return fmt.Sprintf("%ddays %s", days, clock)
	}
	return clock
}
