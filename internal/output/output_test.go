package output

import (
	"strings"
	"testing"
	"time"

	"github.com/maprix/maprix/internal/models"
)

// TestFormatTimeAgoJustNow tests times less than a minute ago
func TestFormatTimeAgoJustNow(t *testing.T) {
	now := time.Now()
	for _, tm := range []time.Time{now, now.Add(-30 * time.Second), now.Add(-59 * time.Second)} {
		if result := FormatTimeAgo(tm); result != "just now" {
			t.Errorf("FormatTimeAgo(%v) = %q, want 'just now'", tm, result)
		}
	}
}

func TestFormatTimeAgo(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{1 * time.Minute, "1m ago"},
		{30 * time.Minute, "30m ago"},
		{1 * time.Hour, "1h ago"},
		{23 * time.Hour, "23h ago"},
		{24 * time.Hour, "1d ago"},
		{6 * 24 * time.Hour, "6d ago"},
	}

	for _, tc := range tests {
		tm := time.Now().Add(-tc.duration)
		if result := FormatTimeAgo(tm); result != tc.expected {
			t.Errorf("FormatTimeAgo(-%v) = %q, want %q", tc.duration, result, tc.expected)
		}
	}

	old := time.Now().Add(-8 * 24 * time.Hour)
	if result := FormatTimeAgo(old); result != old.Format("2006-01-02") {
		t.Errorf("FormatTimeAgo(-8d) = %q", result)
	}
}

func TestFormatGate(t *testing.T) {
	for _, s := range []string{"unchecked", "exempt", "pending", "satisfied"} {
		if !strings.Contains(FormatGate(s), s) {
			t.Errorf("FormatGate(%q) should contain the state", s)
		}
	}
	if FormatGate("weird") != "weird" {
		t.Error("unknown gate state should render plain")
	}
}

func TestSwatchInvalidColor(t *testing.T) {
	if got := Swatch("blue", "TR-01"); got != "TR-01" {
		t.Errorf("Swatch with invalid color = %q", got)
	}
}

func TestFormatAssetLine(t *testing.T) {
	typeID := int64(2)
	typed := models.Asset{ID: 5, Name: "TR-01", TypeID: &typeID, TypeName: "Trator", BatteryManufactureDate: "2023-01-01", BatteryStatus: "ATENCAO", BatteryColor: "#ffc107"}
	line := FormatAssetLine(typed)
	for _, want := range []string{"#5", "TR-01", "Trator", "ATENCAO"} {
		if !strings.Contains(line, want) {
			t.Errorf("FormatAssetLine missing %q: %s", want, line)
		}
	}

	untyped := FormatAssetLine(models.Asset{ID: 6, Name: "GER-02"})
	if !strings.Contains(untyped, "untyped") || strings.Contains(untyped, "battery") {
		t.Errorf("untyped asset line = %s", untyped)
	}
}

func TestFormatReportLine(t *testing.T) {
	line := FormatReportLine(0, models.PendingReport{Equipment: "TR-01", Latitude: -23.5, Longitude: -46.6, Timestamp: "2024-03-01T10:00:00Z", Observation: "abastecido"})
	for _, want := range []string{"1.", "TR-01", "-23.500000,-46.600000", "abastecido"} {
		if !strings.Contains(line, want) {
			t.Errorf("FormatReportLine missing %q: %s", want, line)
		}
	}
}

func TestChecklistMarkdown(t *testing.T) {
	md := ChecklistMarkdown("TR-01", []models.ChecklistQuestion{{ID: 1, Text: "Pneus"}, {ID: 2, Text: "Freios"}})
	if !strings.Contains(md, "- [ ] Pneus") || !strings.Contains(md, "- [ ] Freios") {
		t.Errorf("ChecklistMarkdown = %q", md)
	}
	if !strings.Contains(ChecklistMarkdown("X", nil), "No questions") {
		t.Error("empty checklist should say so")
	}
}

func TestSubmissionMarkdown(t *testing.T) {
	md := SubmissionMarkdown(models.ChecklistSubmission{
		ID: 1, Equipment: "TR-01", Operator: "Ana",
		Items: []models.ChecklistAnswer{
			{Text: "Pneus", Conformant: true},
			{Text: "Freios", Observation: "gastos", PhotoName: "f.jpg"},
		},
	})
	if !strings.Contains(md, "- [x] Pneus") || !strings.Contains(md, "- [ ] Freios: gastos (photo `f.jpg`)") {
		t.Errorf("SubmissionMarkdown = %q", md)
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	out, err := RenderMarkdownWithWidth("   ", 40)
	if err != nil || out != "" {
		t.Errorf("RenderMarkdownWithWidth(blank) = %q, %v", out, err)
	}
}

// TestSectionHeader tests section header formatting
func TestSectionHeader(t *testing.T) {
	if got := SectionHeader("pending"); got != "\nPENDING:\n" {
		t.Errorf("SectionHeader = %q", got)
	}
}

// TestIndentLines tests line indentation
func TestIndentLines(t *testing.T) {
	result := IndentLines([]string{"line1", "line2"}, 2)
	if result[0] != "  line1" || result[1] != "  line2" {
		t.Errorf("IndentLines = %q", result)
	}
}

// TestBulletList tests bullet list formatting
func TestBulletList(t *testing.T) {
	result := BulletList([]string{"a", "b"}, 0)
	if result[0] != "- a" || result[1] != "- b" {
		t.Error("Bullet list with 0 indent should have '- ' prefix only")
	}
}
