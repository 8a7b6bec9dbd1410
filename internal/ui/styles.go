package ui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/muurk/devgrid/internal/grid"
)

// Color palette for devgrid output
var (
	// Primary colors
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - online, checkmarks
	ErrorColor   = lipgloss.Color("#FF5555") // Red - offline, errors
	WarningColor = lipgloss.Color("#FFA500") // Orange - updates
	InfoColor    = lipgloss.Color("#4FC1FF") // Blue - discovered
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 160 // Maximum content width before capping
	DefaultPadding   = 2   // Default padding inside boxes
	MaxCellWidth     = 32  // Cap for auto-sized columns
)

// Shared styles
var (
	// HeaderTitleStyle is for command titles (e.g., "DEVICES")
	HeaderTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	// HeaderCommandStyle is for the command path (e.g., "devgrid list")
	HeaderCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// ColumnHeaderStyle is for grid column titles
	ColumnHeaderStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	// GroupHeaderStyle is for group bucket rows
	GroupHeaderStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true)

	// GroupCountStyle is for the row count next to a group label
	GroupCountStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// CursorRowStyle highlights the row under the dashboard cursor
	CursorRowStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	// SelectedRowStyle is for rows in the selection
	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// CellStyle is for ordinary data cells
	CellStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// NoDataStyle is for the empty-grid message
	NoDataStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	// SuccessTitleStyle is for the success result title
	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	// ErrorTitleStyle is for the error result title
	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// ErrorMessageStyle is for error message text
	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// ResultKeyStyle is for result detail keys
	ResultKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(15)

	// ResultValueStyle is for result detail values
	ResultValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)
)

// Markers
const (
	SortMarkerAsc       = "▲"
	SortMarkerDesc      = "▼"
	GroupMarkerOpen     = "▾"
	GroupMarkerCollapse = "▸"
	CheckboxOn          = "[x]"
	CheckboxOff         = "[ ]"
	CheckboxSome        = "[-]"
	CheckboxNone        = "   "
	CursorMarker        = ">"
	SuccessMarker       = "✓"
	FailureMarker       = "✗"
)

// statusStyles maps a status token to its dot and color
var statusStyles = map[string]struct {
	dot   string
	color lipgloss.Color
}{
	grid.StatusOnline:          {"●", SuccessColor},
	grid.StatusOffline:         {"○", ErrorColor},
	grid.StatusDiscovered:      {"◆", InfoColor},
	grid.StatusUpdateAvailable: {"▲", WarningColor},
	grid.StatusUpdating:        {"↻", WarningColor},
}

// StatusIndicator renders a status token as a colored dot and label.
// Unknown tokens get a muted "?" dot and their raw text.
func StatusIndicator(token string) string {
	s, ok := statusStyles[token]
	if !ok {
		if token == "" {
			return ""
		}
		return lipgloss.NewStyle().Foreground(MutedColor).Render("? " + token)
	}
	return lipgloss.NewStyle().Foreground(s.color).Render(s.dot + " " + grid.StatusLabel(token))
}

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _ := GetTerminalSize()
	return width
}

// IsTerminal reports whether w is a terminal file
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// GetTerminalSize returns the current terminal width and height
func GetTerminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth, 24 // Default fallback
	}
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if width > MaxContentWidth {
		width = MaxContentWidth
	}
	return width, height
}

// HeaderBorderStyle returns the border style for command headers
func HeaderBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2) // Account for border characters
}

// NoDataBoxStyle returns the border style for the empty-grid box
func NoDataBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(width-2).
		Align(lipgloss.Center).
		Padding(0, 1)
}

// SuccessBoxStyle returns the border style for success result boxes
func SuccessBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SuccessColor).
		Width(width-2).
		Padding(1, 2)
}

// ErrorBoxStyle returns the border style for error result boxes
func ErrorBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ErrorColor).
		Width(width-2).
		Padding(1, 2)
}

// RenderHorizontalDivider creates a horizontal line of the specified width
func RenderHorizontalDivider(width int, char string) string {
	if width < 0 {
		width = 0
	}
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat(char, width))
}
