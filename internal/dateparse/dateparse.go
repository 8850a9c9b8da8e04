// Package dateparse parses the relative dates accepted by post filters.
package dateparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseFrom parses a date relative to now and returns midnight of that day
// in now's location. It reports false for input it does not recognise.
//
// Supported formats:
//   - today, yesterday
//   - last week, last month, last year (one period back from today)
//   - this week (Monday), this month, this year (first day)
//   - monday, tuesday, ... (most recent past occurrence; same day = a week ago)
//   - -N, N days ago, N weeks ago, N months ago
//   - YYYY-MM-DD, YYYY-MM (first of the month), YYYY (January 1st)
func ParseFrom(input string, now time.Time) (time.Time, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	today := midnight(now)

	switch input {
	case "today":
		return today, true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	case "last week", "lastweek":
		return today.AddDate(0, 0, -7), true
	case "last month", "lastmonth":
		return today.AddDate(0, -1, 0), true
	case "last year", "lastyear":
		return today.AddDate(-1, 0, 0), true
	case "this week":
		return lastWeekday(today, time.Monday, true), true
	case "this month":
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()), true
	case "this year":
		return time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()), true
	}

	if day, ok := parseWeekday(input); ok {
		return lastWeekday(today, day, false), true
	}

	// -N days
	if rest, ok := strings.CutPrefix(input, "-"); ok {
		if days, err := strconv.Atoi(rest); err == nil && days >= 0 {
			return today.AddDate(0, 0, -days), true
		}
	}

	if m := agoPattern.FindStringSubmatch(input); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		switch m[2] {
		case "day":
			return today.AddDate(0, 0, -n), true
		case "week":
			return today.AddDate(0, 0, -7*n), true
		case "month":
			return today.AddDate(0, -n, 0), true
		}
	}

	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.ParseInLocation(layout, input, now.Location()); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// Parse parses input relative to the current time.
func Parse(input string) (time.Time, bool) {
	return ParseFrom(input, time.Now())
}

var agoPattern = regexp.MustCompile(`^(\d{1,4}) (day|week|month)s? ago$`)

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func parseWeekday(input string) (time.Weekday, bool) {
	input = strings.TrimPrefix(input, "last ")

	switch input {
	case "sunday", "sun":
		return time.Sunday, true
	case "monday", "mon":
		return time.Monday, true
	case "tuesday", "tue":
		return time.Tuesday, true
	case "wednesday", "wed":
		return time.Wednesday, true
	case "thursday", "thu":
		return time.Thursday, true
	case "friday", "fri":
		return time.Friday, true
	case "saturday", "sat":
		return time.Saturday, true
	}
	return 0, false
}

// lastWeekday returns the most recent target weekday before today. With
// includeToday, today itself counts.
func lastWeekday(today time.Time, target time.Weekday, includeToday bool) time.Time {
	daysBack := int(today.Weekday() - target)
	if daysBack < 0 {
		daysBack += 7
	}
	if daysBack == 0 && !includeToday {
		daysBack = 7
	}
	return today.AddDate(0, 0, -daysBack)
}
