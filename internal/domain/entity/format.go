package entity

import (
	"fmt"
	"time"
)

// Period durations in milliseconds
const (
	hourMs  int64 = 60 * 60 * 1000
	dayMs   int64 = 24 * hourMs
	monthMs int64 = 30 * dayMs
)

// FormatPeriod maps an access period in milliseconds to its display label.
// Zero means unbounded access.
func FormatPeriod(periodMs int64) string {
	if periodMs == 0 {
		return "PERMANENT ACCESS"
	}

	if periodMs >= monthMs && periodMs%monthMs == 0 {
		months := periodMs / monthMs
		if months == 1 {
			return "1 MONTH"
		}
		return fmt.Sprintf("%d MONTHS", months)
	}

	if periodMs >= dayMs {
		days := periodMs / dayMs
		if days == 1 {
			return "1 DAY"
		}
		return fmt.Sprintf("%d DAYS", days)
	}

	hours := periodMs / hourMs
	if hours <= 1 {
		return "1 HOUR"
	}
	return fmt.Sprintf("%d HOURS", hours)
}

// FormatCheckIn maps a check-in timestamp to a calendar date for display
func FormatCheckIn(checkIn time.Time) string {
	if checkIn.IsZero() {
		return ""
	}
	return checkIn.Format("Jan 2, 2006")
}
