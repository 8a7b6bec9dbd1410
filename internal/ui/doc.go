// Package ui renders devgrid output for the terminal.
//
// It draws derived grid views as text tables with Lipgloss and provides the
// header, result and error boxes used by the non-interactive commands. The
// interactive dashboard reuses RenderGrid for its table body.
//
// # Grid Rendering
//
//	out := ui.RenderGrid(g.View(), g.Columns(), ui.GridOptions{
//	    Width:      ui.GetTerminalWidth(),
//	    Cursor:     ui.NoCursor,
//	    Selectable: true,
//	})
//
// The header line shows ▲/▼ next to the sorted column and the select-all
// checkbox ([ ], [-] or [x]). Group rows show ▾ or ▸ with their row count.
// Status cells are drawn by StatusIndicator.
//
// Confirm asks a yes/no question under a warning box; init uses it before
// replacing an existing config file.
//
// # Logging Integration
//
// Logging is controlled by the DEVGRID_LOG_LEVEL environment variable and
// goes to stderr, so rendered output on stdout stays clean.
package ui
