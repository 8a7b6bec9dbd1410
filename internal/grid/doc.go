// Package grid implements the data grid engine behind the devgrid dashboard.
//
// The engine owns client-side filtering, three-state sorting, row selection
// and dynamic grouping over an in-memory row set. It is a pure derivation
// engine: given rows, columns, filter text, sort spec, group spec, selection
// set and collapsed-group set, View derives the exact sequence of visual rows
// to display. Nothing is cached; every View call recomputes the pipeline.
//
// # Pipeline
//
// Rows always flow through the stages in the same order:
//
//	rows -> Filter -> Sort -> Group -> collapse -> []VisualRow
//
// Filter, Sort and Group are exported as standalone functions so callers can
// run a single stage without a Grid.
//
// # Usage Example
//
//	g := grid.New(columns, grid.Options{
//	    Selectable: true,
//	    Clickable:  true,
//	    GroupBy:    "deviceType",
//	})
//	g.SetHandlers(grid.Handlers{
//	    OnSortChanged: func(e grid.SortChangedEvent) {
//	        log.Printf("sorted by %s %s", e.Column, e.Direction)
//	    },
//	})
//	g.SetRows(rows)
//	g.SetFilter("kitchen")
//	g.ActivateSort("status")
//
//	for _, vr := range g.View().Rows {
//	    // render vr
//	}
//
// # Events
//
// The grid emits three events through Handlers: sort-changed,
// selection-changed and row-activated. Handlers run synchronously after the
// internal state has been updated. Caller-driven assignments (SetSort,
// SetFilter, SetGroupBy) never emit events.
//
// # Thread Safety
//
// A Grid is owned by a single goroutine, typically a UI event loop. Callers
// that touch a Grid from several goroutines must serialize access themselves.
// Debouncer is the only type in this package that is safe for concurrent use.
package grid
