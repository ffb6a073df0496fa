package output

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/maprix/maprix/internal/models"
	"golang.org/x/term"
)

const (
	defaultMarkdownWidth = 80
	minMarkdownWidth     = 20
)

// TerminalWidth returns the current terminal width or a fallback when unavailable.
func TerminalWidth(fallback int) int {
	if fallback <= 0 {
		fallback = defaultMarkdownWidth
	}

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if parsed, err := strconv.Atoi(cols); err == nil && parsed > 0 {
			return parsed
		}
	}

	return fallback
}

// RenderMarkdown renders markdown using Glamour with terminal-aware wrapping.
func RenderMarkdown(text string) (string, error) {
	return RenderMarkdownWithWidth(text, TerminalWidth(defaultMarkdownWidth))
}

// RenderMarkdownWithWidth renders markdown using Glamour with explicit wrapping.
func RenderMarkdownWithWidth(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if width < minMarkdownWidth {
		width = minMarkdownWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(text)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(rendered, "\n"), nil
}

// ChecklistMarkdown lists the questions an operator must answer before capturing.
func ChecklistMarkdown(equipment string, questions []models.ChecklistQuestion) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Checklist: %s\n\n", equipment)
	if len(questions) == 0 {
		sb.WriteString("_No questions configured._\n")
		return sb.String()
	}
	for _, q := range questions {
		fmt.Fprintf(&sb, "- [ ] %s\n", q.Text)
	}
	sb.WriteString("\nNon-conformant items need an **observation** and a **photo**.\n")
	return sb.String()
}

// SubmissionMarkdown renders a stored checklist with its answers.
func SubmissionMarkdown(s models.ChecklistSubmission) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### #%d %s (%s)\n\n", s.ID, s.Equipment, s.Operator)
	fmt.Fprintf(&sb, "Filled at %s, received %s\n\n", s.LocalTime, s.CreatedAt)
	for _, it := range s.Items {
		mark := "x"
		if !it.Conformant {
			mark = " "
		}
		fmt.Fprintf(&sb, "- [%s] %s", mark, it.Text)
		if it.Observation != "" {
			fmt.Fprintf(&sb, ": %s", it.Observation)
		}
		if it.PhotoName != "" {
			fmt.Fprintf(&sb, " (photo `%s`)", it.PhotoName)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
