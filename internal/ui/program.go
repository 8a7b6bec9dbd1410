package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/devgrid/internal/grid"
)

// gridOnceModel draws one grid view and quits. A size message arriving
// before the quit re-flows the table to the reported width.
type gridOnceModel struct {
	view    grid.View
	columns []grid.Column
	opts    GridOptions
}

func (m gridOnceModel) Init() tea.Cmd {
	return tea.Quit
}

func (m gridOnceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.opts.Width = min(ws.Width, MaxContentWidth)
	}
	return m, nil
}

func (m gridOnceModel) View() string {
	return renderGridWithSummary(m.view, m.columns, m.opts) + "\n"
}

// RenderOnce draws a grid view on out through a one-shot Bubble Tea
// program. Use it when out is a terminal; Printer.PrintGrid otherwise.
func RenderOnce(out io.Writer, view grid.View, columns []grid.Column, selectable bool) error {
	m := gridOnceModel{
		view:    view,
		columns: columns,
		opts:    GridOptions{Width: GetTerminalWidth(), Cursor: NoCursor, Selectable: selectable},
	}
	_, err := tea.NewProgram(m, tea.WithOutput(out), tea.WithInput(nil)).Run()
	return err
}

// renderGridWithSummary is RenderGrid plus the "n of m rows" line
func renderGridWithSummary(view grid.View, columns []grid.Column, opts GridOptions) string {
	return RenderGrid(view, columns, opts) + "\n" +
		GroupCountStyle.Render(fmt.Sprintf("  %d of %d rows", view.Matched, view.Total))
}

// Printer provides methods for printing UI components to a writer.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) {
	p.width = width
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Print(RenderHeader(title, command, params, p.width))
	p.Newline()
}

// PrintGrid prints a derived grid view followed by a match summary
func (p *Printer) PrintGrid(view grid.View, columns []grid.Column, selectable bool) {
	p.Println(renderGridWithSummary(view, columns, GridOptions{Width: p.width, Cursor: NoCursor, Selectable: selectable}))
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.Print(RenderSuccessBox(title, details, p.width))
	p.Newline()
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Print(RenderErrorBox(title, err, troubleshooting, p.width))
	p.Newline()
}

// RenderHeader renders a command header box
func RenderHeader(title, command string, params map[string]string, width int) string {
	titleLine := HeaderTitleStyle.Render(strings.ToUpper(title))
	commandLine := HeaderCommandStyle.Render(command)
	topSection := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	if len(params) == 0 {
		return HeaderBorderStyle(width).Render(topSection)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	paramLines := make([]string, 0, len(keys))
	for _, key := range keys {
		keyStyled := HeaderCommandStyle.Render(key + ":")
		paramLines = append(paramLines, keyStyled+" "+params[key])
	}

	dividerWidth := width - 6 // Account for border and padding
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := RenderHorizontalDivider(dividerWidth, "─")

	content := lipgloss.JoinVertical(lipgloss.Left, topSection, divider, strings.Join(paramLines, "\n"))
	return HeaderBorderStyle(width).Render(content)
}

// RenderSuccessBox renders a success result box
func RenderSuccessBox(title string, details map[string]string, width int) string {
	lines := []string{"", SuccessTitleStyle.Render("   " + SuccessMarker + "  " + title), ""}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		lines = append(lines, ResultKeyStyle.Render("   "+key+":")+" "+ResultValueStyle.Render(details[key]))
	}
	lines = append(lines, "")

	return SuccessBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderErrorBox renders an error result box with troubleshooting
func RenderErrorBox(title string, err error, troubleshooting []string, width int) string {
	lines := []string{"", ErrorTitleStyle.Render("   " + FailureMarker + "  FAILED  ─  " + title), ""}

	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+err.Error()), "")
	}

	if len(troubleshooting) > 0 {
		lines = append(lines, ResultKeyStyle.UnsetWidth().Bold(true).Render("   Troubleshooting:"))
		for _, tip := range troubleshooting {
			lines = append(lines, ResultKeyStyle.UnsetWidth().Render("     • "+tip))
		}
		lines = append(lines, "")
	}

	return ErrorBoxStyle(width).Render(strings.Join(lines, "\n"))
}
