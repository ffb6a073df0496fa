// Package battery grades equipment batteries by age.
package battery

import (
	"fmt"
	"time"

	"github.com/maprix/maprix/internal/dateparse"
)

// Status names.
const (
	StatusOK        = "OK"
	StatusAttention = "ATENCAO"
	StatusReplace   = "TROCAR"
)

// Status colors.
const (
	ColorOK        = "#28a745"
	ColorAttention = "#ffc107"
	ColorReplace   = "#dc3545"
)

// Thresholds are battery ages in whole months.
type Thresholds struct {
	WarnMonths    int
	ReplaceMonths int
}

// DefaultThresholds: under a year OK, under two years ATENCAO, then TROCAR.
var DefaultThresholds = Thresholds{WarnMonths: 12, ReplaceMonths: 24}

// Grade is a classified battery.
type Grade struct {
	Status string
	Color  string
	Months int
}

// Classify grades a battery manufactured on date (YYYY-MM-DD) as of now.
func Classify(date string, now time.Time, th Thresholds) (Grade, error) {
	made, err := time.Parse("2006-01-02", date)
	if err != nil {
		return Grade{}, fmt.Errorf("invalid manufacture date %q: %w", date, err)
	}
	months := dateparse.MonthsBetween(made, now)
	switch {
	case months < th.WarnMonths:
		return Grade{StatusOK, ColorOK, months}, nil
	case months < th.ReplaceMonths:
		return Grade{StatusAttention, ColorAttention, months}, nil
	default:
		return Grade{StatusReplace, ColorReplace, months}, nil
	}
}
