// campusvoice/utils/system.go
package utils

import (
	"fmt"
	"time"
)

// GetTime returns the current time. Useful for mocking in tests.
func GetTime() time.Time {
	return time.Now()
}

// GetSQLTime returns the current time in UTC for database storage.
func GetSQLTime() time.Time {
	return time.Now().UTC()
}

// TimeAgo renders the age of t relative to now the way the board shows it.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	if d < time.Minute {
		return "Just now"
	}
	minutes := int(d.Minutes())
	if minutes < 60 {
		return plural(minutes, "minute")
	}
	hours := int(d.Hours())
	if hours < 24 {
		return plural(hours, "hour")
	}
	days := hours / 24
	switch {
	case days < 7:
		return plural(days, "day")
	case days < 30:
		return plural(days/7, "week")
	case days < 365:
		return plural(days/30, "month")
	}
	return plural(days/365, "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
