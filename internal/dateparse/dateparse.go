// Package dateparse parses battery manufacture dates typed by operators into
// ISO 8601 (YYYY-MM-DD). Dates point to the past, so relative forms count
// backwards.
package dateparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

// ParseDate parses input relative to the current time.
//
// Supported formats:
//   - Exact dates: "2024-03-01", "01/03/2024" (day first)
//   - Month only: "2024-03", "03/2024" (first day of the month)
//   - Relative: "-10d", "-2w", "-18m", "-1y"
//   - Keywords: "today", "yesterday", "last-month", "last-year"
func ParseDate(input string) (string, error) {
	return ParseDateFrom(input, time.Now())
}

// ParseDateFrom parses a date input string relative to the given reference time.
// Dates after now are rejected.
func ParseDateFrom(input string, now time.Time) (string, error) {
	t, err := parse(strings.TrimSpace(strings.ToLower(input)), now)
	if err != nil {
		return "", err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if t.After(today) {
		return "", fmt.Errorf("manufacture date %s is in the future", formatDate(t))
	}
	return formatDate(t), nil
}

func parse(input string, now time.Time) (time.Time, error) {
	if input == "" {
		return time.Time{}, fmt.Errorf("empty date input")
	}

	for _, layout := range []string{isoLayout, "02/01/2006", "2006-01", "01/2006"} {
		if t, err := time.Parse(layout, input); err == nil {
			return t, nil
		}
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch input {
	case "today":
		return day, nil
	case "yesterday":
		return day.AddDate(0, 0, -1), nil
	case "last-month":
		return time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC), nil
	case "last-year":
		return time.Date(now.Year()-1, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}

	// Relative offsets: -Nd, -Nw, -Nm, -Ny
	if strings.HasPrefix(input, "-") && len(input) >= 3 {
		suffix := input[len(input)-1]
		n, err := strconv.Atoi(input[1 : len(input)-1])
		if err == nil && n >= 0 {
			switch suffix {
			case 'd':
				return day.AddDate(0, 0, -n), nil
			case 'w':
				return day.AddDate(0, 0, -n*7), nil
			case 'm':
				return day.AddDate(0, -n, 0), nil
			case 'y':
				return day.AddDate(-n, 0, 0), nil
			default:
				return time.Time{}, fmt.Errorf("unknown relative unit %q in %q (use d, w, m or y)", string(suffix), input)
			}
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %q", input)
}

// MonthsBetween returns the whole months elapsed from then to now.
func MonthsBetween(then, now time.Time) int {
	months := (now.Year()-then.Year())*12 + int(now.Month()) - int(then.Month())
	if now.Day() < then.Day() {
		months--
	}
	return months
}

func formatDate(t time.Time) string {
	return t.Format(isoLayout)
}
