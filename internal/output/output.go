// Package output provides styled terminal output helpers (success, error,
// warning, asset and record formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/maprix/maprix/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	gateStyles   = map[string]lipgloss.Style{
		"unchecked": lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		"exempt":    lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		"pending":   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"satisfied": lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound       = "not_found"
	ErrCodeInvalidInput   = "invalid_input"
	ErrCodeNoSession      = "no_session"
	ErrCodeBlocked        = "checklist_required"
	ErrCodeSyncInProgress = "sync_in_progress"
	ErrCodeServerError    = "server_error"
	ErrCodeStorageError   = "storage_error"
	ErrCodeLocation       = "location_unavailable"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	JSONErrorWithDetails(code, message, nil)
}

// JSONErrorWithDetails outputs an error as JSON with additional context
func JSONErrorWithDetails(code, message string, details map[string]interface{}) {
	errObj := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if len(details) > 0 {
		errObj["details"] = details
	}
	data, _ := json.MarshalIndent(map[string]interface{}{"error": errObj}, "", "  ")
	fmt.Println(string(data))
}

// FormatGate formats a gate state with color
func FormatGate(state string) string {
	style, ok := gateStyles[state]
	if !ok {
		return state
	}
	return style.Render(fmt.Sprintf("[%s]", state))
}

// FormatOnline renders the connectivity indicator.
func FormatOnline(online bool) string {
	if online {
		return successStyle.Render("● online")
	}
	return errorStyle.Render("○ offline")
}

// FormatPending renders the pending queue size, highlighted when non-zero.
func FormatPending(n int) string {
	if n == 0 {
		return subtleStyle.Render("0 pending")
	}
	return warningStyle.Render(fmt.Sprintf("%d pending", n))
}

// Swatch renders text in a #rrggbb color; invalid colors render plain.
func Swatch(hex, text string) string {
	if !strings.HasPrefix(hex, "#") || (len(hex) != 7 && len(hex) != 4) {
		return text
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(text)
}

// FormatBattery renders a battery status in its server-assigned color.
func FormatBattery(status, color string) string {
	if status == "" {
		return subtleStyle.Render("battery n/a")
	}
	return Swatch(color, "▮ "+status)
}

// FormatAssetLine formats an asset in one line
func FormatAssetLine(a models.Asset) string {
	parts := []string{
		titleStyle.Render(fmt.Sprintf("#%d", a.ID)),
		Swatch(a.Color, a.Name),
	}
	if a.HasType() {
		typ := a.TypeName
		if typ == "" {
			typ = fmt.Sprintf("type %d", *a.TypeID)
		}
		parts = append(parts, subtleStyle.Render(typ))
	} else {
		parts = append(parts, subtleStyle.Render("untyped"))
	}
	if a.BatteryManufactureDate != "" {
		parts = append(parts, FormatBattery(a.BatteryStatus, a.BatteryColor))
	}
	return strings.Join(parts, "  ")
}

// FormatRecordLine formats a stored position in one line
func FormatRecordLine(r models.Record) string {
	parts := []string{
		titleStyle.Render(fmt.Sprintf("#%d", r.ID)),
		Swatch(r.Color, r.Equipment),
		fmt.Sprintf("%.6f,%.6f", r.Latitude, r.Longitude),
		subtleStyle.Render(r.Timestamp),
	}
	if r.Observation != "" {
		parts = append(parts, r.Observation)
	}
	return strings.Join(parts, "  ")
}

// FormatReportLine formats a queued report in one line
func FormatReportLine(i int, r models.PendingReport) string {
	line := fmt.Sprintf("%3d. %s  %.6f,%.6f  %s", i+1, r.Equipment, r.Latitude, r.Longitude, subtleStyle.Render(r.Timestamp))
	if r.Observation != "" {
		line += "  " + r.Observation
	}
	return line
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nPENDING:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// IndentLines indents each line by the specified number of spaces
func IndentLines(lines []string, spaces int) []string {
	indent := strings.Repeat(" ", spaces)
	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = indent + line
	}
	return result
}

// BulletList formats items as a bulleted list with optional indentation
func BulletList(items []string, indent int) []string {
	prefix := strings.Repeat(" ", indent)
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = prefix + "- " + item
	}
	return result
}
