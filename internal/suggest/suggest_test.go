package suggest

import (
	"testing"

	"github.com/maprix/maprix/internal/models"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"tr-01", "tr-01", 0},
		{"tr-01", "tr-02", 1},
		{"tx01", "tr-01", 2},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEquipment(t *testing.T) {
	assets := []models.Asset{
		{Name: "TR-01"},
		{Name: "TR-02"},
		{Name: "Gerador Norte"},
		{Name: "Caminhão 7"},
	}

	tests := []struct {
		query string
		first string
	}{
		{"tr01", "TR-01"},
		{"gerador", "Gerador Norte"},
		{"TX-02", "TR-02"},
	}
	for _, tt := range tests {
		got := Equipment(tt.query, assets)
		if len(got) == 0 || got[0] != tt.first {
			t.Errorf("Equipment(%q) = %v, want first %q", tt.query, got, tt.first)
		}
		if len(got) > maxSuggestions {
			t.Errorf("Equipment(%q) returned %d suggestions", tt.query, len(got))
		}
	}

	if got := Equipment("zzzzzzzz", assets); len(got) != 0 {
		t.Errorf("unrelated query suggested %v", got)
	}
	if got := Equipment("  ", assets); got != nil {
		t.Errorf("blank query suggested %v", got)
	}
}

func TestFlag(t *testing.T) {
	got := Flag("--observaton", []string{"--observation", "--lat", "--lon"})
	if len(got) == 0 || got[0] != "--observation" {
		t.Errorf("Flag = %v", got)
	}
}

func TestGetFlagHint(t *testing.T) {
	if GetFlagHint("--OBS") != "--observation, -o" {
		t.Error("expected hint for --obs")
	}
	if GetFlagHint("--nothing") != "" {
		t.Error("unexpected hint")
	}
}
