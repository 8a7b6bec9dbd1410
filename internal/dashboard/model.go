package dashboard

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/devgrid/internal/config"
	"github.com/muurk/devgrid/internal/discovery"
	"github.com/muurk/devgrid/internal/grid"
	"github.com/muurk/devgrid/internal/inventory"
	"github.com/muurk/devgrid/internal/logging"
	"github.com/muurk/devgrid/internal/ui"
)

// ScanFunc runs one discovery scan
type ScanFunc func(ctx context.Context) ([]*discovery.Device, error)

// Config configures a dashboard model
type Config struct {
	// Inventory supplies the rows; required
	Inventory *inventory.Inventory

	// Columns defaults to inventory.Columns()
	Columns []grid.Column

	// Options seeds the grid
	Options grid.Options

	// Debounce is the search quiet period; zero uses grid.DefaultDebounce
	Debounce time.Duration

	// ScanOnStart runs a discovery scan from Init
	ScanOnStart bool

	// Scan overrides the discovery scan, mainly for tests
	Scan ScanFunc

	// ScanTimeout bounds the default scan
	ScanTimeout time.Duration
}

// Messages for async operations
type filterMsg struct {
	seq  int
	text string
}

type scanCompleteMsg struct {
	devices []*discovery.Device
	err     error
}

type actionDoneMsg struct {
	ev  grid.ActionEvent
	err error
}

// ConfigReloadedMsg delivers a reloaded registry from config.Watch
type ConfigReloadedMsg struct {
	Registry *config.Registry
	Err      error
}

// eventSink records grid events raised during Update.
// It is shared by every copy of the model.
type eventSink struct {
	last      string
	activated string
	action    *grid.ActionEvent
	titles    map[string]string
}

// Model is the device dashboard screen
type Model struct {
	grid       *grid.Grid
	inv        *inventory.Inventory
	columns    []grid.Column
	events     *eventSink
	selectable bool

	// Search state
	Search    textinput.Model
	Searching bool
	debounce  time.Duration
	filterSeq int

	// Table state
	Cursor int
	Detail string // identity of the opened row

	// Discovery state
	Scanning bool
	scan     ScanFunc
	Spinner  spinner.Model
	Err      error

	// UI state
	Width      int
	Height     int
	Help       help.Model
	Keys       keyMap
	SearchKeys searchKeyMap
}

// New creates a dashboard model over cfg.Inventory
func New(cfg Config) Model {
	columns := cfg.Columns
	if columns == nil {
		columns = inventory.Columns()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = grid.DefaultDebounce
	}

	scan := cfg.Scan
	if scan == nil {
		timeout := cfg.ScanTimeout
		scan = func(ctx context.Context) ([]*discovery.Device, error) {
			return discovery.ScanForDevices(ctx, timeout)
		}
	}

	events := &eventSink{titles: make(map[string]string)}
	for _, c := range columns {
		events.titles[c.Key] = c.Title
	}

	g := grid.New(columns, cfg.Options)
	g.SetHandlers(grid.Handlers{
		OnSortChanged: func(ev grid.SortChangedEvent) {
			logging.LogGridEvent("dashboard", "sort-changed",
				zap.String("column", ev.Column),
				zap.String("direction", string(ev.Direction)),
			)
			if ev.Direction == grid.DirectionNone {
				events.last = "sort cleared"
				return
			}
			events.last = fmt.Sprintf("sorted by %s (%s)", events.title(ev.Column), ev.Direction)
		},
		OnSelectionChanged: func(ev grid.SelectionChangedEvent) {
			logging.LogGridEvent("dashboard", "selection-changed", zap.Strings("selected", ev.Selected))
			events.last = fmt.Sprintf("%d selected", len(ev.Selected))
		},
		OnRowActivated: func(ev grid.RowActivatedEvent) {
			logging.LogGridEvent("dashboard", "row-activated", zap.String("id", ev.ID))
			events.activated = ev.ID
			events.last = "opened " + ev.ID
		},
		OnAction: func(ev grid.ActionEvent) {
			logging.LogGridEvent("dashboard", "action-requested",
				zap.String("id", ev.ID),
				zap.String("action", ev.Action),
			)
			events.action = &ev
		},
	})
	g.SetRows(cfg.Inventory.Rows())

	search := textinput.New()
	search.Placeholder = "name, address, platform..."
	search.Prompt = ""
	search.CharLimit = 64
	search.Width = 30

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.PrimaryColor)

	return Model{
		grid:       g,
		inv:        cfg.Inventory,
		columns:    columns,
		events:     events,
		selectable: cfg.Options.Selectable,
		Search:     search,
		debounce:   cfg.Debounce,
		Scanning:   cfg.ScanOnStart,
		scan:       scan,
		Spinner:    s,
		Help:       help.New(),
		Keys:       newKeyMap(),
		SearchKeys: newSearchKeyMap(),
	}
}

func (e *eventSink) title(key string) string {
	if t := e.titles[key]; t != "" {
		return t
	}
	return key
}

// Grid returns the grid engine behind the dashboard
func (m Model) Grid() *grid.Grid {
	return m.grid
}

// Init starts the initial scan when configured
func (m Model) Init() tea.Cmd {
	if m.Scanning {
		return tea.Batch(m.runScan(), m.Spinner.Tick)
	}
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width

	case tea.KeyMsg:
		if m.Searching {
			return m.updateSearch(msg)
		}
		return m.updateTable(msg)

	case filterMsg:
		// a newer keystroke superseded this tick
		if msg.seq != m.filterSeq {
			return m, nil
		}
		m.applyFilter(msg.text)

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		if msg.err == nil {
			m.inv.SetDiscovered(msg.devices)
			m.refresh()
			m.events.last = fmt.Sprintf("scan found %d devices", len(msg.devices))
		}

	case actionDoneMsg:
		if msg.err != nil {
			m.Err = msg.err
			return m, nil
		}
		m.Err = nil
		m.refresh()
		m.events.last = actionSummary(msg.ev)

	case ConfigReloadedMsg:
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.inv.SetRegistry(msg.Registry)
		m.refresh()
		m.events.last = "config reloaded"

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// updateSearch handles keyboard input while the search box has focus
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit

	case key.Matches(msg, m.SearchKeys.Apply), key.Matches(msg, m.SearchKeys.Blur):
		m.Searching = false
		m.Search.Blur()
		m.filterSeq++
		m.applyFilter(m.Search.Value())
		return m, nil
	}

	before := m.Search.Value()
	var cmd tea.Cmd
	m.Search, cmd = m.Search.Update(msg)
	if m.Search.Value() == before {
		return m, cmd
	}

	m.filterSeq++
	seq, text := m.filterSeq, m.Search.Value()
	tick := tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return filterMsg{seq: seq, text: text}
	})
	return m, tea.Batch(cmd, tick)
}

// updateTable handles keyboard input on the device table
func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}

	case key.Matches(msg, m.Keys.Down):
		if m.Cursor < len(m.grid.View().Rows)-1 {
			m.Cursor++
		}

	case key.Matches(msg, m.Keys.Toggle):
		m.press("", grid.TargetCheckbox, grid.TargetCell, grid.TargetRow)

	case key.Matches(msg, m.Keys.Activate):
		m.press("", grid.TargetCell, grid.TargetRow)

	case key.Matches(msg, m.Keys.Adopt):
		return m, m.requestAction(inventory.ActionAdopt)

	case key.Matches(msg, m.Keys.Remove):
		return m, m.requestAction(inventory.ActionRemove)

	case key.Matches(msg, m.Keys.SelectAll):
		m.grid.ToggleAll()

	case key.Matches(msg, m.Keys.Clear):
		m.grid.ClearSelection()

	case key.Matches(msg, m.Keys.Sort):
		m.sortColumn(int(msg.String()[0] - '1'))

	case key.Matches(msg, m.Keys.Group):
		m.cycleGroup()

	case key.Matches(msg, m.Keys.Search):
		m.Searching = true
		return m, m.Search.Focus()

	case key.Matches(msg, m.Keys.Rescan):
		if m.Scanning {
			return m, nil
		}
		m.Scanning = true
		m.Err = nil
		return m, tea.Batch(m.runScan(), m.Spinner.Tick)

	case key.Matches(msg, m.Keys.Back):
		m.Detail = ""

	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
	}

	m.clampCursor()
	return m, nil
}

// press dispatches a key press on the cursor row. Group headers toggle
// their bucket; data rows go through the grid's click dispatch.
func (m *Model) press(action string, path ...grid.Target) {
	view := m.grid.View()
	if m.Cursor < 0 || m.Cursor >= len(view.Rows) {
		return
	}
	row := view.Rows[m.Cursor]
	if row.Kind == grid.KindGroup {
		if m.grid.ToggleGroup(row.Group) {
			m.events.last = "collapsed " + row.Label
		} else {
			m.events.last = "expanded " + row.Label
		}
		return
	}

	m.events.activated = ""
	m.grid.Click(grid.ClickEvent{RowID: row.ID, Path: path, Action: action})
	if m.events.activated != "" {
		m.Detail = m.events.activated
	}
}

// requestAction clicks the action control on the cursor row and returns
// the command that performs it, or nil when the row does not offer it.
func (m *Model) requestAction(action string) tea.Cmd {
	m.events.action = nil
	m.press(action, grid.TargetAction, grid.TargetRow)
	ev := m.events.action
	if ev == nil {
		return nil
	}
	if !slices.Contains(inventory.Actions(m.rowByID(ev.ID)), action) {
		m.events.last = fmt.Sprintf("%s: cannot %s", ev.ID, actionVerb(action))
		return nil
	}

	m.events.last = actionVerb(action) + " " + ev.ID + "..."
	inv, done := m.inv, *ev
	return func() tea.Msg {
		return actionDoneMsg{ev: done, err: inv.Do(done.Action, done.ID)}
	}
}

func (m Model) rowByID(id string) grid.Row {
	for _, r := range m.grid.Rows() {
		if m.grid.ID(r) == id {
			return r
		}
	}
	return nil
}

func actionVerb(action string) string {
	switch action {
	case inventory.ActionAdopt:
		return "take control of"
	case inventory.ActionRemove:
		return "remove"
	}
	return action
}

func actionSummary(ev grid.ActionEvent) string {
	switch ev.Action {
	case inventory.ActionAdopt:
		return "took control of " + ev.ID
	case inventory.ActionRemove:
		return "removed " + ev.ID
	}
	return ev.Action + " " + ev.ID
}

// sortColumn activates the sort of the n-th visible column
func (m *Model) sortColumn(n int) {
	visible := grid.Visible(m.columns)
	if n < 0 || n >= len(visible) {
		return
	}
	if !m.grid.ActivateSort(visible[n].Key) {
		m.events.last = visible[n].Title + " is not sortable"
	}
}

// cycleGroup moves group-by to the next groupable column, then to none
func (m *Model) cycleGroup() {
	choices := []string{""}
	for _, c := range m.columns {
		if c.Groupable {
			choices = append(choices, c.Key)
		}
	}

	current := m.grid.GroupSpec().Column
	next := 0
	for i, c := range choices {
		if c == current {
			next = (i + 1) % len(choices)
			break
		}
	}

	m.grid.SetGroupBy(choices[next])
	if choices[next] == "" {
		m.events.last = "grouping off"
	} else {
		m.events.last = "grouped by " + m.events.title(choices[next])
	}
}

func (m *Model) applyFilter(text string) {
	m.grid.SetFilter(text)
	m.clampCursor()
}

func (m *Model) refresh() {
	m.grid.SetRows(m.inv.Rows())
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.grid.View().Rows)
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m Model) runScan() tea.Cmd {
	scan := m.scan
	return func() tea.Msg {
		devices, err := scan(context.Background())
		return scanCompleteMsg{devices: devices, err: err}
	}
}

// View renders the dashboard
func (m Model) View() string {
	width := m.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	height := m.Height
	if height <= 0 {
		height = DefaultHeight
	}

	view := m.grid.View()
	var b strings.Builder

	b.WriteString(SearchLabelStyle.Render("Search:"))
	b.WriteString(" ")
	b.WriteString(m.Search.View())
	b.WriteString("\n\n")

	detail := m.renderDetail()
	avail := height - chromeHeight - lipgloss.Height(detail)
	b.WriteString(m.renderTable(view, width-6, avail))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatus(view))

	if detail != "" {
		b.WriteString("\n")
		b.WriteString(detail)
	}
	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorLineStyle.Render(ui.FailureMarker + " " + m.Err.Error()))
	}

	var helpText string
	if m.Searching {
		helpText = m.Help.View(m.SearchKeys)
	} else {
		helpText = m.Help.View(m.Keys)
	}

	return RenderApplicationContainer(b.String(), helpText, width, height)
}

// renderTable draws the grid and scrolls it so the cursor stays visible
func (m Model) renderTable(view grid.View, width, avail int) string {
	cursor := m.Cursor
	if view.Empty {
		cursor = ui.NoCursor
	}
	table := ui.RenderGrid(view, m.columns, ui.GridOptions{
		Width:      width,
		Cursor:     cursor,
		Selectable: m.selectable,
	})

	lines := strings.Split(table, "\n")
	if avail < 3 {
		avail = 3
	}
	body := lines[1:]
	if view.Empty || len(body) <= avail {
		return table
	}

	start := m.Cursor - avail/2
	if start > len(body)-avail {
		start = len(body) - avail
	}
	if start < 0 {
		start = 0
	}
	return strings.Join(append([]string{lines[0]}, body[start:start+avail]...), "\n")
}

func (m Model) renderStatus(view grid.View) string {
	parts := []string{
		fmt.Sprintf("%d of %d devices", view.Matched, view.Total),
		fmt.Sprintf("%d selected", len(view.Selected)),
	}
	if view.Sort.Active() {
		parts = append(parts, fmt.Sprintf("sort: %s %s", m.events.title(view.Sort.Column), ui.SortMarker(view.Sort, view.Sort.Column)))
	}
	if view.GroupBy != "" {
		parts = append(parts, "group: "+m.events.title(view.GroupBy))
	}
	if m.Scanning {
		parts = append(parts, m.Spinner.View()+" scanning")
	}

	line := StatusLineStyle.Render(strings.Join(parts, " · "))
	if m.events.last != "" {
		line += "  " + EventStyle.Render(m.events.last)
	}
	return line
}

// renderDetail shows every field of the opened row
func (m Model) renderDetail() string {
	if m.Detail == "" {
		return ""
	}
	row := m.rowByID(m.Detail)
	if row == nil {
		return ""
	}

	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{ui.HeaderTitleStyle.UnsetPaddingLeft().Render(m.Detail)}
	for _, k := range keys {
		lines = append(lines, ui.ResultKeyStyle.Render(k+":")+" "+ui.ResultValueStyle.Render(grid.Stringify(row[k])))
	}
	return DetailBoxStyle.Render(strings.Join(lines, "\n"))
}

// State is the view state worth persisting between runs
type State struct {
	Sort      grid.SortSpec
	GroupBy   string
	Collapsed []string
	Selected  []string
}

// State returns the current sort, grouping, collapse and selection state
func (m Model) State() State {
	return State{
		Sort:      m.grid.Sort(),
		GroupBy:   m.grid.GroupSpec().Column,
		Collapsed: m.grid.Collapsed(),
		Selected:  m.grid.Selected(),
	}
}
