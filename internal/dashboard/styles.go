package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/devgrid/internal/ui"
	"github.com/muurk/devgrid/internal/version"
)

// Application branding constants
const (
	AppName   = "DEVGRID DEVICE DASHBOARD"
	GitHubURL = "github.com/muurk/devgrid"
)

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 72 // Minimum supported terminal width
	DefaultHeight    = 24 // Height used before the first WindowSizeMsg
	chromeHeight     = 11 // Lines used by header, search, status and footer
)

var (
	// SearchLabelStyle is for the "Search:" prompt
	SearchLabelStyle = lipgloss.NewStyle().
				Foreground(ui.MutedColor).
				PaddingLeft(2)

	// StatusLineStyle is for the summary line under the table
	StatusLineStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor).
			PaddingLeft(2)

	// EventStyle is for the most recent grid event
	EventStyle = lipgloss.NewStyle().
			Foreground(ui.SuccessColor)

	// DetailBoxStyle frames the activated device's details
	DetailBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.PrimaryColor).
			Padding(0, 1).
			MarginLeft(2)

	// ErrorLineStyle is for scan and reload errors
	ErrorLineStyle = lipgloss.NewStyle().
			Foreground(ui.ErrorColor).
			PaddingLeft(2)
)

// BuildHeaderContent creates header content with app name and project URL
func BuildHeaderContent() string {
	left := lipgloss.NewStyle().
		Foreground(ui.TextColor).
		Bold(true).
		Render(AppName + " " + version.Version)

	right := lipgloss.NewStyle().
		Foreground(ui.MutedColor).
		Render(GitHubURL)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps screen content with the header, footer
// and outer border, filling the terminal.
func RenderApplicationContainer(content string, footerText string, terminalWidth int, terminalHeight int) string {
	if terminalWidth < MinTerminalWidth {
		terminalWidth = MinTerminalWidth
	}
	if terminalHeight <= 0 {
		terminalHeight = DefaultHeight
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(ui.PrimaryColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(ui.PrimaryColor).
		Foreground(ui.MutedColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth - 4)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(BuildHeaderContent()),
		contentStyle.Render(content),
		footerStyle.Render(footerText),
	)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(ui.PrimaryColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, bordered)
}
