package appointment

import (
	"strings"
	"time"
)

// Period selects the calendar range of a schedule query.
type Period string

const (
	Week  Period = "week"
	Month Period = "month"
	Year  Period = "year"
)

// ParsePeriod maps a query value to a Period. An empty value means Month,
// anything unrecognised means Week.
func ParsePeriod(raw string) Period {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return Month
	case "month":
		return Month
	case "year":
		return Year
	default:
		return Week
	}
}

// Range returns the first and last instant of the period containing now,
// in now's location. Weeks start on Monday.
func (p Period) Range(now time.Time) (start, end time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch p {
	case Year:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(1, 0, 0)
	case Month:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0)
	default:
		offset := (int(day.Weekday()) + 6) % 7
		start = day.AddDate(0, 0, -offset)
		end = start.AddDate(0, 0, 7)
	}
	return start, end.Add(-time.Nanosecond)
}
