// Package dashboard implements the interactive device dashboard.
//
// The dashboard is a Bubble Tea program hosting one grid.Grid over the
// device inventory. It follows the Elm architecture: key presses and async
// results arrive as messages, Update mutates the grid through its public
// operations, and View renders the derived view with ui.RenderGrid inside
// the application container.
//
// # Keys
//
//   - ↑/↓ or k/j move the cursor over data rows and group headers
//   - space toggles the row checkbox, or collapses a group header
//   - enter opens the row's details, or collapses a group header
//   - a toggles select-all, c clears the selection
//   - 1..9 cycle the sort of the n-th visible column
//   - g cycles group-by through the groupable columns and "none"
//   - / focuses the search box; esc or enter leaves it
//   - t takes control of a discovered device, x removes a configured one
//   - r rescans the network, q quits
//
// # Search Debouncing
//
// Each keystroke in the search box schedules a tagged tick. Only the tick
// carrying the latest sequence number applies the filter, so the grid is
// filtered once typing pauses for the configured delay.
//
// # Config Reload
//
// Callers running config.Watch forward results with program.Send as a
// ConfigReloadedMsg; the dashboard swaps the registry and rebuilds rows
// while keeping selection, sort and grouping.
package dashboard
