package battery

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		date   string
		status string
		color  string
	}{
		{"2026-02-01", StatusOK, ColorOK},
		{"2025-02-19", StatusOK, ColorOK},
		{"2025-02-18", StatusAttention, ColorAttention},
		{"2024-02-19", StatusAttention, ColorAttention},
		{"2024-02-18", StatusReplace, ColorReplace},
		{"2019-06-01", StatusReplace, ColorReplace},
	}
	for _, tt := range tests {
		g, err := Classify(tt.date, now, DefaultThresholds)
		if err != nil {
			t.Fatalf("Classify(%s): %v", tt.date, err)
		}
		if g.Status != tt.status || g.Color != tt.color {
			t.Errorf("Classify(%s) = %+v, want %s %s", tt.date, g, tt.status, tt.color)
		}
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	now := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
	g, _ := Classify("2025-08-18", now, Thresholds{WarnMonths: 3, ReplaceMonths: 6})
	if g.Status != StatusReplace {
		t.Errorf("6 months with replace=6 should be %s, got %s", StatusReplace, g.Status)
	}
}

func TestClassifyInvalid(t *testing.T) {
	if _, err := Classify("18/02/2026", time.Now(), DefaultThresholds); err == nil {
		t.Error("expected error for non-ISO date")
	}
}
