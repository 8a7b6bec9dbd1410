package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm displays a warning box and asks a yes/no question on out, reading
// the answer from in. Only "y" or "yes" (any case) confirms; EOF declines.
func Confirm(in io.Reader, out io.Writer, title string, warnings []string, width int) bool {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var lines []string

	titleLine := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true).
		Render(fmt.Sprintf("   ⚠  %s", title))
	lines = append(lines, "", titleLine, "")

	bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
	for _, warning := range warnings {
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	fmt.Fprintln(out, box)
	fmt.Fprint(out, lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("Continue? [y/N]: "))

	// a final answer without a newline still counts
	input, _ := bufio.NewReader(in).ReadString('\n')

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		fmt.Fprintln(out)
		return true
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	return false
}

// ConfirmOverwrite asks before replacing an existing config file.
func ConfirmOverwrite(in io.Reader, out io.Writer, path string) bool {
	return Confirm(in, out, "OVERWRITE CONFIG FILE", []string{
		"A config file already exists at " + path,
		"Configured devices and preferences in it will be replaced",
	}, GetTerminalWidth())
}
