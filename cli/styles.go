package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/richinex/zerb/session"
)

// Color palette.
var (
	successColor = lipgloss.Color("#10B981") // Green
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

var (
	// planLabelStyle heads replies that carry an engineering plan.
	planLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(mutedColor)

	sectionStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	doneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	insertStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	failureStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

func doneBadge(name string) string {
	return "  " + name + " " + doneStyle.Render("✓ DONE")
}

func insertLine(name string) string {
	return insertStyle.Render("  + " + name)
}

// renderReply formats an assistant reply the way the chat view shows it:
// task replies get a plan heading and one badge per completed file.
func renderReply(reply session.Message, active string) string {
	var b strings.Builder
	switch reply.Content {
	case session.AuthLostMessage, session.ConnectionLostMessage:
		b.WriteString(failureStyle.Render(reply.Content))
		b.WriteString("\n")
		return b.String()
	}

	task := reply.IsTask()
	if task {
		b.WriteString(planLabelStyle.Render("ARCHITECTURAL PLAN"))
		b.WriteString("\n")
	}
	b.WriteString(reply.Content)
	b.WriteString("\n")

	if task && len(reply.UpdatedFiles) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("EXECUTION SUCCESS"))
		b.WriteString("\n")
		for _, name := range reply.UpdatedFiles {
			b.WriteString(doneBadge(name))
			b.WriteString("\n")
		}
	}
	if task && active != "" {
		b.WriteString(sectionStyle.Render("Active: " + active))
		b.WriteString("\n")
	}
	return b.String()
}
