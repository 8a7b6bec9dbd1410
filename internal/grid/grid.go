package grid

import "slices"

// DefaultNoDataText is shown when no rows survive filtering
const DefaultNoDataText = "No data"

// Options configures a Grid at creation.
type Options struct {
	// IdentityField names the row key used as identity (default "name")
	IdentityField string

	// FallbackIdentityField is tried when IdentityField is missing (default "id")
	FallbackIdentityField string

	// Selectable enables the selection checkboxes
	Selectable bool

	// Clickable enables row-activated events
	Clickable bool

	// Grouping enables the group stage; GroupBy names the column
	Grouping   bool
	GroupBy    string
	GroupOrder []string

	// GroupLabels overrides built-in bucket labels
	GroupLabels map[string]string

	// InitialCollapsed seeds the collapsed-group set
	InitialCollapsed []string

	// Sort is the initial sort spec
	Sort SortSpec

	// NoDataText replaces DefaultNoDataText
	NoDataText string
}

// SortChangedEvent is emitted after a header activation
type SortChangedEvent struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// SelectionChangedEvent carries the full selection in insertion order
type SelectionChangedEvent struct {
	Selected []string `json:"selected"`
}

// RowActivatedEvent carries the identity of the activated row
type RowActivatedEvent struct {
	ID string `json:"id"`
}

// ActionEvent is a click on a named action control inside a row
type ActionEvent struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// Handlers receive grid events. Nil handlers are skipped.
type Handlers struct {
	OnSortChanged      func(SortChangedEvent)
	OnSelectionChanged func(SelectionChangedEvent)
	OnRowActivated     func(RowActivatedEvent)
	OnAction           func(ActionEvent)
}

// Target identifies one element in a click's event-target chain
type Target string

const (
	TargetCheckbox Target = "checkbox"
	TargetCell     Target = "cell"
	TargetAction   Target = "action"
	TargetRow      Target = "row"
)

// ClickEvent is a click on a data row. Path lists the event-target chain
// from the innermost element outwards. Action names the control when the
// path contains TargetAction.
type ClickEvent struct {
	RowID  string   `json:"id"`
	Path   []Target `json:"path"`
	Action string   `json:"action,omitempty"`
}

// RowKind distinguishes group headers from data rows in a View
type RowKind int

const (
	KindData RowKind = iota
	KindGroup
)

// VisualRow is one line of the derived view.
type VisualRow struct {
	Kind RowKind `json:"kind"`

	// Group header fields; Group is also set on data rows inside a bucket
	Group     string `json:"group,omitempty"`
	Label     string `json:"label,omitempty"`
	Count     int    `json:"count,omitempty"`
	Collapsed bool   `json:"collapsed,omitempty"`

	// Data row fields
	ID         string `json:"id,omitempty"`
	Row        Row    `json:"row,omitempty"`
	Selected   bool   `json:"selected,omitempty"`
	Selectable bool   `json:"selectable,omitempty"`
}

// View is the derived display state of a Grid.
type View struct {
	Rows       []VisualRow `json:"rows"`
	Empty      bool        `json:"empty"`
	NoDataText string      `json:"noDataText,omitempty"`
	Header     HeaderState `json:"header"`
	Sort       SortSpec    `json:"sort"`
	GroupBy    string      `json:"groupBy,omitempty"`
	Total      int         `json:"total"`
	Matched    int         `json:"matched"`
	Selected   []string    `json:"selected"`
}

// Grid is the grid engine state for one widget instance.
type Grid struct {
	columns  []Column
	rows     []Row
	opts     Options
	handlers Handlers

	filter    string
	sort      SortSpec
	group     GroupSpec
	selection Selection
	collapsed map[string]bool
}

// New creates a grid over columns with the given options.
func New(columns []Column, opts Options) *Grid {
	if opts.IdentityField == "" {
		opts.IdentityField = DefaultIdentityField
	}
	if opts.FallbackIdentityField == "" {
		opts.FallbackIdentityField = DefaultFallbackIdentityField
	}
	if opts.NoDataText == "" {
		opts.NoDataText = DefaultNoDataText
	}

	g := &Grid{
		columns:   columns,
		opts:      opts,
		sort:      opts.Sort,
		collapsed: make(map[string]bool),
	}
	if opts.Grouping {
		g.group = GroupSpec{Column: opts.GroupBy, Order: opts.GroupOrder, Labels: opts.GroupLabels}
	}
	for _, key := range opts.InitialCollapsed {
		g.collapsed[key] = true
	}
	return g
}

// SetHandlers replaces the event handlers.
func (g *Grid) SetHandlers(h Handlers) {
	g.handlers = h
}

// SetRows replaces the row collection. Selection is kept.
func (g *Grid) SetRows(rows []Row) {
	g.rows = rows
}

// Rows returns the current row collection as supplied.
func (g *Grid) Rows() []Row {
	return g.rows
}

// SetColumns replaces the column definitions.
func (g *Grid) SetColumns(columns []Column) {
	g.columns = columns
}

// Columns returns the column definitions.
func (g *Grid) Columns() []Column {
	return g.columns
}

// SetFilter assigns the filter text directly, bypassing any debouncing.
func (g *Grid) SetFilter(text string) {
	g.filter = text
}

// FilterText returns the applied filter text.
func (g *Grid) FilterText() string {
	return g.filter
}

// Sort returns the current sort spec.
func (g *Grid) Sort() SortSpec {
	return g.sort
}

// SetSort assigns the sort state from outside. The external value always
// wins over internal state and no event is emitted.
func (g *Grid) SetSort(spec SortSpec) {
	if spec.Direction == "" || spec.Column == "" {
		spec = SortSpec{Direction: DirectionNone}
	}
	g.sort = spec
}

// ActivateSort cycles the sort of the column with the given key and emits
// sort-changed. Unknown and non-sortable columns are ignored.
func (g *Grid) ActivateSort(key string) bool {
	col, ok := findColumn(g.columns, key)
	if !ok || !col.Sortable {
		return false
	}
	g.sort = g.sort.Activate(key)

	if g.handlers.OnSortChanged != nil {
		dir := g.sort.Direction
		if dir == "" {
			dir = DirectionNone
		}
		g.handlers.OnSortChanged(SortChangedEvent{Column: g.sort.Column, Direction: dir})
	}
	return true
}

// GroupSpec returns the active group spec.
func (g *Grid) GroupSpec() GroupSpec {
	return g.group
}

// SetGroupBy changes the grouping column; empty disables grouping.
// Order and labels from the options are kept.
func (g *Grid) SetGroupBy(column string) {
	g.opts.Grouping = column != ""
	g.opts.GroupBy = column
	if column == "" {
		g.group = GroupSpec{}
		return
	}
	g.group = GroupSpec{Column: column, Order: g.opts.GroupOrder, Labels: g.opts.GroupLabels}
}

// SetGroupSpec replaces the group spec wholesale.
func (g *Grid) SetGroupSpec(spec GroupSpec) {
	g.opts.Grouping = spec.Column != ""
	g.opts.GroupBy = spec.Column
	g.opts.GroupOrder = spec.Order
	g.opts.GroupLabels = spec.Labels
	g.group = spec
}

// ToggleGroup flips the collapsed state of a bucket and returns the new state.
func (g *Grid) ToggleGroup(key string) bool {
	if g.collapsed[key] {
		delete(g.collapsed, key)
		return false
	}
	g.collapsed[key] = true
	return true
}

// Collapsed returns the collapsed bucket keys in sorted order.
func (g *Grid) Collapsed() []string {
	keys := make([]string, 0, len(g.collapsed))
	for k := range g.collapsed {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// IsCollapsed reports whether a bucket is collapsed.
func (g *Grid) IsCollapsed(key string) bool {
	return g.collapsed[key]
}

// ID returns the identity of row under the grid's identity settings.
func (g *Grid) ID(row Row) string {
	return Identity(row, g.opts.IdentityField, g.opts.FallbackIdentityField)
}

// Selected returns the selection in insertion order.
func (g *Grid) Selected() []string {
	return g.selection.IDs()
}

// IsSelected reports whether the row with identity id is selected.
func (g *Grid) IsSelected(id string) bool {
	return g.selection.Has(id)
}

// ToggleRow flips the selection of the row with identity id.
// Unknown rows, non-selectable rows and grids without selection are ignored.
func (g *Grid) ToggleRow(id string) bool {
	if !g.opts.Selectable {
		return false
	}
	row, ok := g.lookup(id)
	if !ok || !row.Selectable() {
		return false
	}
	g.selection.Toggle(id)
	g.emitSelection()
	return true
}

// ToggleAll selects every filtered selectable row unless they are all
// selected already, in which case the entire selection is cleared.
func (g *Grid) ToggleAll() {
	if !g.opts.Selectable {
		return
	}
	candidates := g.candidates(Filter(g.rows, g.filter))
	if g.selection.Header(candidates) == HeaderAll {
		g.selection.Clear()
	} else {
		for _, id := range candidates {
			g.selection.Add(id)
		}
	}
	g.emitSelection()
}

// ClearSelection empties the selection.
func (g *Grid) ClearSelection() {
	g.selection.Clear()
	g.emitSelection()
}

// Header derives the select-all checkbox state.
func (g *Grid) Header() HeaderState {
	return g.selection.Header(g.candidates(Filter(g.rows, g.filter)))
}

// Click dispatches a click on a data row. A click whose target chain
// contains the checkbox toggles selection and never activates the row.
func (g *Grid) Click(ev ClickEvent) {
	if !g.opts.Clickable && !g.opts.Selectable {
		return
	}
	if slices.Contains(ev.Path, TargetCheckbox) {
		g.ToggleRow(ev.RowID)
		return
	}
	if !g.opts.Clickable {
		return
	}
	if _, ok := g.lookup(ev.RowID); !ok {
		return
	}
	// action controls never activate the row
	if slices.Contains(ev.Path, TargetAction) {
		if ev.Action != "" && g.handlers.OnAction != nil {
			g.handlers.OnAction(ActionEvent{ID: ev.RowID, Action: ev.Action})
		}
		return
	}
	if g.handlers.OnRowActivated != nil {
		g.handlers.OnRowActivated(RowActivatedEvent{ID: ev.RowID})
	}
}

// View derives the visual rows from the current state.
func (g *Grid) View() View {
	filtered := Filter(g.rows, g.filter)
	sorted := Sort(filtered, g.sort)

	v := View{
		Header:   g.selection.Header(g.candidates(filtered)),
		Sort:     g.sort,
		GroupBy:  g.group.Column,
		Total:    len(g.rows),
		Matched:  len(filtered),
		Selected: g.selection.IDs(),
	}
	if v.Sort.Direction == "" {
		v.Sort.Direction = DirectionNone
	}

	if len(sorted) == 0 {
		v.Empty = true
		v.NoDataText = g.opts.NoDataText
		return v
	}

	if g.group.Column == "" {
		v.Rows = make([]VisualRow, 0, len(sorted))
		for _, row := range sorted {
			v.Rows = append(v.Rows, g.dataRow(row, ""))
		}
		return v
	}

	for _, b := range Group(sorted, g.group) {
		collapsed := g.collapsed[b.Key]
		v.Rows = append(v.Rows, VisualRow{
			Kind:      KindGroup,
			Group:     b.Key,
			Label:     b.Label,
			Count:     len(b.Rows),
			Collapsed: collapsed,
		})
		if collapsed {
			continue
		}
		for _, row := range b.Rows {
			v.Rows = append(v.Rows, g.dataRow(row, b.Key))
		}
	}
	return v
}

func (g *Grid) dataRow(row Row, group string) VisualRow {
	id := g.ID(row)
	return VisualRow{
		Kind:       KindData,
		Group:      group,
		ID:         id,
		Row:        row,
		Selected:   g.selection.Has(id),
		Selectable: g.opts.Selectable && row.Selectable(),
	}
}

// candidates returns the identities of the selectable rows in rows.
func (g *Grid) candidates(rows []Row) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Selectable() {
			ids = append(ids, g.ID(row))
		}
	}
	return ids
}

// lookup finds a row by identity. With duplicate identities the last row
// wins, matching the selection set's keying.
func (g *Grid) lookup(id string) (Row, bool) {
	var found Row
	ok := false
	for _, row := range g.rows {
		if g.ID(row) == id {
			found, ok = row, true
		}
	}
	return found, ok
}

func (g *Grid) emitSelection() {
	if g.handlers.OnSelectionChanged != nil {
		g.handlers.OnSelectionChanged(SelectionChangedEvent{Selected: g.selection.IDs()})
	}
}
