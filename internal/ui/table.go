package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/muurk/devgrid/internal/grid"
)

// NoCursor disables the cursor marker in RenderGrid
const NoCursor = -1

// GridOptions controls how RenderGrid draws a view
type GridOptions struct {
	// Width caps every output line; zero means no cap
	Width int

	// Cursor is the index into view.Rows to highlight, or NoCursor
	Cursor int

	// Selectable draws the checkbox column
	Selectable bool
}

// RenderGrid draws a derived grid view as a text table: a header line with
// sort markers, then group headers and data rows. An empty view renders the
// no-data box instead.
func RenderGrid(view grid.View, columns []grid.Column, opts GridOptions) string {
	cols := grid.Visible(columns)
	widths := columnWidths(view, cols)

	var lines []string
	lines = append(lines, renderHeaderLine(view, cols, widths, opts))

	if view.Empty {
		text := view.NoDataText
		if text == "" {
			text = grid.DefaultNoDataText
		}
		boxWidth := lipgloss.Width(lines[0])
		if opts.Width > 0 && boxWidth > opts.Width {
			boxWidth = opts.Width
		}
		if boxWidth < 20 {
			boxWidth = 20
		}
		lines = append(lines, NoDataBoxStyle(boxWidth).Render(NoDataStyle.Render(text)))
		return strings.Join(lines, "\n")
	}

	for i, vr := range view.Rows {
		var line string
		if vr.Kind == grid.KindGroup {
			line = renderGroupLine(vr)
		} else {
			line = renderDataLine(vr, cols, widths, opts)
		}

		prefix := "  "
		if i == opts.Cursor {
			prefix = CursorMarker + " "
			line = CursorRowStyle.Render(ansi.Strip(line))
		}
		lines = append(lines, clip(prefix+line, opts.Width))
	}
	return strings.Join(lines, "\n")
}

// SortMarker returns the header marker for column key under spec
func SortMarker(spec grid.SortSpec, key string) string {
	if spec.Column != key {
		return ""
	}
	switch spec.Direction {
	case grid.DirectionAsc:
		return SortMarkerAsc
	case grid.DirectionDesc:
		return SortMarkerDesc
	default:
		return ""
	}
}

// HeaderCheckbox renders the select-all checkbox
func HeaderCheckbox(state grid.HeaderState) string {
	switch state {
	case grid.HeaderAll:
		return CheckboxOn
	case grid.HeaderSome:
		return CheckboxSome
	default:
		return CheckboxOff
	}
}

func renderHeaderLine(view grid.View, cols []grid.Column, widths []int, opts GridOptions) string {
	cells := make([]string, 0, len(cols)+1)
	if opts.Selectable {
		cells = append(cells, HeaderCheckbox(view.Header))
	}
	for i, c := range cols {
		title := c.Title
		if title == "" {
			title = c.Key
		}
		if m := SortMarker(view.Sort, c.Key); m != "" {
			title += " " + m
		}
		cells = append(cells, ColumnHeaderStyle.Render(pad(title, widths[i], c.Align)))
	}
	return clip("  "+strings.Join(cells, " "), opts.Width)
}

func renderGroupLine(vr grid.VisualRow) string {
	marker := GroupMarkerOpen
	if vr.Collapsed {
		marker = GroupMarkerCollapse
	}
	return GroupHeaderStyle.Render(marker+" "+vr.Label) + " " + GroupCountStyle.Render(fmt.Sprintf("(%d)", vr.Count))
}

func renderDataLine(vr grid.VisualRow, cols []grid.Column, widths []int, opts GridOptions) string {
	cells := make([]string, 0, len(cols)+1)
	if opts.Selectable {
		switch {
		case !vr.Selectable:
			cells = append(cells, CheckboxNone)
		case vr.Selected:
			cells = append(cells, CheckboxOn)
		default:
			cells = append(cells, CheckboxOff)
		}
	}

	style := CellStyle
	if vr.Selected {
		style = SelectedRowStyle
	}
	for i := range cols {
		c := &cols[i]
		if c.Type == "status" {
			cells = append(cells, pad(StatusIndicator(vr.Row.String(c.Key)), widths[i], c.Align))
			continue
		}
		cells = append(cells, style.Render(pad(c.Display(vr.Row), widths[i], c.Align)))
	}
	return strings.Join(cells, " ")
}

// cellText is the unstyled text a cell occupies, used for sizing
func cellText(c *grid.Column, row grid.Row) string {
	if c.Type == "status" {
		return ansi.Strip(StatusIndicator(row.String(c.Key)))
	}
	return c.Display(row)
}

func columnWidths(view grid.View, cols []grid.Column) []int {
	widths := make([]int, len(cols))
	for i := range cols {
		c := &cols[i]
		if c.Width > 0 {
			widths[i] = c.Width
			continue
		}
		w := lipgloss.Width(c.Title) + 2 // room for a sort marker
		for _, vr := range view.Rows {
			if vr.Kind != grid.KindData {
				continue
			}
			if cw := lipgloss.Width(cellText(c, vr.Row)); cw > w {
				w = cw
			}
		}
		if w > MaxCellWidth {
			w = MaxCellWidth
		}
		widths[i] = w
	}
	return widths
}

// pad truncates or pads s to exactly width cells
func pad(s string, width int, align grid.Align) string {
	if width <= 0 {
		return s
	}
	if lipgloss.Width(s) > width {
		s = ansi.Truncate(s, width, "…")
	}
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case grid.AlignRight:
		return strings.Repeat(" ", gap) + s
	case grid.AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}

func clip(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
