package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/maprix/maprix/internal/gate"
	"github.com/maprix/maprix/internal/output"
)

func (m Model) View() string {
	width := m.Width
	if width <= 0 {
		width = 80
	}

	var sections []string
	sections = append(sections, m.renderHeader(width))

	switch {
	case m.form != nil:
		sections = append(sections, m.form.Form.View())
	case m.noteOpen:
		sections = append(sections, panelStyle.Width(width-2).Render("Capture with note\n\n"+m.note.View()+"\n\n"+subtleStyle.Render("enter capture · esc cancel")))
	default:
		sections = append(sections, m.renderEvents(width))
	}

	sections = append(sections, m.renderFooter(width))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(width int) string {
	title := headerStyle.Render("MAPRIX")
	parts := []string{title}

	if sess := m.ctrl.Session(); sess != nil {
		parts = append(parts, fmt.Sprintf("%s · %s", sess.Equipment, sess.Operator))
	} else {
		parts = append(parts, subtleStyle.Render("no shift"))
	}
	parts = append(parts, output.FormatOnline(m.online))

	pending := 0
	state := m.ctrl.Gate().State()
	if m.status != nil {
		pending = m.status.Pending
	}
	parts = append(parts, output.FormatPending(pending), output.FormatGate(string(state)))

	if m.busy != "" {
		parts = append(parts, m.spinner.View()+" "+m.busy)
	}

	line := strings.Join(parts, "  ")
	lines := []string{ansi.Truncate(line, width, "…")}

	if state == gate.Pending {
		if err := m.ctrl.Gate().Err(); err != nil {
			lines = append(lines, errorStyle.Render(ansi.Truncate("Checklist unavailable: "+err.Error(), width, "…")))
		} else {
			lines = append(lines, warningStyle.Render(fmt.Sprintf("Checklist required (%d questions), press k", len(m.ctrl.Gate().Questions()))))
		}
	}
	if m.update != nil {
		lines = append(lines, subtleStyle.Render(ansi.Truncate(
			fmt.Sprintf("Update available: %s → %s", m.update.CurrentVersion, m.update.LatestVersion), width, "…")))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderEvents(width int) string {
	// header, footer and borders
	height := m.Height - 8
	if height < 3 {
		height = 10
	}
	events := m.events
	if len(events) > height {
		events = events[len(events)-height:]
	}

	inner := width - 4
	var lines []string
	if len(events) == 0 {
		lines = append(lines, subtleStyle.Render("Press c to capture the current position."))
	}
	for _, e := range events {
		ts := timestampStyle.Render(e.at.Format("15:04:05"))
		text := ansi.Truncate(e.text, max(inner-10, 10), "…")
		switch e.level {
		case levelSuccess:
			text = successStyle.Render(text)
		case levelWarning:
			text = warningStyle.Render(text)
		case levelError:
			text = errorStyle.Render(text)
		}
		lines = append(lines, ts+"  "+text)
	}
	return panelStyle.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func (m Model) renderFooter(width int) string {
	var lines []string
	if m.statusLine != "" {
		style := subtleStyle
		if m.statusErr {
			style = errorStyle
		}
		lines = append(lines, style.Render(ansi.Truncate(m.statusLine, width, "…")))
	}
	lines = append(lines, m.help.View(keys))
	return strings.Join(lines, "\n")
}
