package dashboard

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/devgrid/internal/config"
	"github.com/muurk/devgrid/internal/discovery"
	"github.com/muurk/devgrid/internal/grid"
	"github.com/muurk/devgrid/internal/inventory"
)

func testModel(t *testing.T, opts grid.Options) Model {
	t.Helper()
	reg := config.NewRegistry()
	reg.Devices["porch"] = &config.Device{Platform: "ESP8266"}
	reg.Devices["kitchen"] = &config.Device{Platform: "ESP32"}
	reg.Devices["attic"] = &config.Device{Platform: "ESP32"}

	inv := inventory.New(reg)
	inv.SetDiscovered([]*discovery.Device{{Name: "kitchen", IP: "192.168.1.10"}})

	return New(Config{
		Inventory: inv,
		Options:   opts,
		Scan: func(context.Context) ([]*discovery.Device, error) {
			return []*discovery.Device{{Name: "bridge", IP: "192.168.1.50"}}, nil
		},
	})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func ids(m Model) []string {
	var out []string
	for _, r := range m.grid.View().Rows {
		if r.Kind == grid.KindData {
			out = append(out, r.ID)
		}
	}
	return out
}

func TestModel_SortKeys(t *testing.T) {
	m := testModel(t, grid.Options{})
	assert.Equal(t, []string{"attic", "kitchen", "porch"}, ids(m))

	// column 1 is name
	m = press(t, m, runes("1"))
	assert.Equal(t, grid.SortSpec{Column: "name", Direction: grid.DirectionAsc}, m.grid.Sort())
	assert.Equal(t, "sorted by Name (asc)", m.events.last)

	m = press(t, m, runes("1"))
	assert.Equal(t, []string{"porch", "kitchen", "attic"}, ids(m))

	m = press(t, m, runes("1"))
	assert.False(t, m.grid.Sort().Active())
	assert.Equal(t, "sort cleared", m.events.last)

	// status is the fifth visible column; online sorts first
	m = press(t, m, runes("5"))
	assert.Equal(t, "kitchen", ids(m)[0])

	// out of range is ignored
	m = press(t, m, runes("9"))
	assert.Equal(t, "status", m.grid.Sort().Column)
}

func TestModel_SelectionKeys(t *testing.T) {
	m := testModel(t, grid.Options{Selectable: true, Clickable: true})

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, []string{"attic"}, m.grid.Selected())
	assert.Empty(t, m.Detail, "checkbox toggles never open the row")

	m = press(t, m, runes("j"), tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, []string{"attic", "kitchen"}, m.grid.Selected())
	assert.Equal(t, grid.HeaderSome, m.grid.Header())

	m = press(t, m, runes("a"))
	assert.Equal(t, grid.HeaderAll, m.grid.Header())

	m = press(t, m, runes("a"))
	assert.Empty(t, m.grid.Selected())

	m = press(t, m, runes("a"), runes("c"))
	assert.Empty(t, m.grid.Selected())
	assert.Equal(t, "0 selected", m.events.last)
}

func TestModel_EnterOpensDetail(t *testing.T) {
	m := testModel(t, grid.Options{Selectable: true, Clickable: true})

	m = press(t, m, runes("j"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "kitchen", m.Detail)
	assert.Empty(t, m.grid.Selected())
	assert.Contains(t, ansi.Strip(m.View()), "192.168.1.10")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.Detail)
}

func TestModel_EnterWithoutClickable(t *testing.T) {
	m := testModel(t, grid.Options{Selectable: true})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.Detail)
}

func TestModel_GroupKeys(t *testing.T) {
	m := testModel(t, grid.Options{})

	// groupable columns: platform, status, deviceType
	m = press(t, m, runes("g"))
	assert.Equal(t, "platform", m.grid.GroupSpec().Column)
	m = press(t, m, runes("g"))
	assert.Equal(t, "status", m.grid.GroupSpec().Column)
	m = press(t, m, runes("g"))
	assert.Equal(t, "deviceType", m.grid.GroupSpec().Column)
	m = press(t, m, runes("g"))
	assert.Equal(t, "", m.grid.GroupSpec().Column)
	assert.Equal(t, "grouping off", m.events.last)

	// group by platform, collapse the first bucket from its header
	m = press(t, m, runes("g"))
	view := m.grid.View()
	require.Equal(t, grid.KindGroup, view.Rows[0].Kind)
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, m.grid.IsCollapsed(view.Rows[0].Group))
	assert.Contains(t, m.State().Collapsed, view.Rows[0].Group)
}

func TestModel_SearchDebounce(t *testing.T) {
	m := testModel(t, grid.Options{})

	m = press(t, m, runes("/"))
	require.True(t, m.Searching)

	m = press(t, m, runes("p"))
	first := m.filterSeq
	m = press(t, m, runes("o"))
	assert.Equal(t, first+1, m.filterSeq)
	assert.Equal(t, "", m.grid.FilterText(), "filter waits for the quiet period")

	// the stale tick is dropped
	m = press(t, m, filterMsg{seq: first, text: "p"})
	assert.Equal(t, "", m.grid.FilterText())

	m = press(t, m, filterMsg{seq: m.filterSeq, text: "po"})
	assert.Equal(t, "po", m.grid.FilterText())
	assert.Equal(t, []string{"porch"}, ids(m))

	// keys go to the search box while it has focus
	m = press(t, m, runes("q"))
	assert.Equal(t, "poq", m.Search.Value())
}

func TestModel_SearchEnterAppliesImmediately(t *testing.T) {
	m := testModel(t, grid.Options{})
	m = press(t, m, runes("/"), runes("a"), runes("t"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.Searching)
	assert.Equal(t, "at", m.grid.FilterText())
	assert.Equal(t, []string{"attic"}, ids(m))

	// the pending tick from the last keystroke is now stale
	m = press(t, m, filterMsg{seq: m.filterSeq - 1, text: "a"})
	assert.Equal(t, "at", m.grid.FilterText())
}

func TestModel_CursorClampsAfterFilter(t *testing.T) {
	m := testModel(t, grid.Options{})
	m = press(t, m, runes("j"), runes("j"), runes("j"))
	assert.Equal(t, 2, m.Cursor)

	m = press(t, m, filterMsg{seq: m.filterSeq, text: "attic"})
	assert.Equal(t, 0, m.Cursor)

	m = press(t, m, filterMsg{seq: m.filterSeq, text: "nothing matches"})
	assert.Equal(t, 0, m.Cursor)
	assert.Contains(t, ansi.Strip(m.View()), grid.DefaultNoDataText)
}

func TestModel_Scan(t *testing.T) {
	m := testModel(t, grid.Options{})

	next, cmd := m.Update(runes("r"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.Scanning)

	devices, err := m.scan(context.Background())
	require.NoError(t, err)
	m = press(t, m, scanCompleteMsg{devices: devices})

	assert.False(t, m.Scanning)
	assert.Contains(t, ids(m), "bridge")
	assert.Equal(t, "scan found 1 devices", m.events.last)

	m = press(t, m, scanCompleteMsg{err: errors.New("no multicast")})
	assert.EqualError(t, m.Err, "no multicast")
	assert.Contains(t, ids(m), "bridge", "a failed scan keeps the last results")
}

func TestModel_ConfigReload(t *testing.T) {
	m := testModel(t, grid.Options{Selectable: true})
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	require.Equal(t, []string{"attic"}, m.grid.Selected())

	reg := config.NewRegistry()
	reg.Devices["attic"] = &config.Device{}
	reg.Devices["cellar"] = &config.Device{}
	m = press(t, m, ConfigReloadedMsg{Registry: reg})

	assert.Equal(t, []string{"attic", "cellar", "kitchen"}, ids(m))
	assert.Equal(t, []string{"attic"}, m.grid.Selected())
	assert.Equal(t, "config reloaded", m.events.last)

	m = press(t, m, ConfigReloadedMsg{Err: errors.New("bad yaml")})
	assert.EqualError(t, m.Err, "bad yaml")
}

// savedModel is backed by a registry file in a temp dir, with porch
// configured and bridge discovered
func savedModel(t *testing.T) (Model, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	reg, err := config.LoadFrom(path)
	require.NoError(t, err)
	reg.Devices["porch"] = &config.Device{Platform: "ESP8266"}

	inv := inventory.New(reg)
	inv.SetDiscovered([]*discovery.Device{{Name: "bridge", Platform: "ESP32", IP: "192.168.1.50"}})
	return New(Config{Inventory: inv, Options: grid.Options{Clickable: true}}), path
}

func runAction(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	return press(t, next.(Model), cmd())
}

func TestModel_TakeControlAndRemove(t *testing.T) {
	m, path := savedModel(t)
	require.Equal(t, []string{"porch", "bridge"}, ids(m))

	m = press(t, m, runes("j"))
	m = runAction(t, m, runes("t"))
	require.NoError(t, m.Err)
	assert.Equal(t, "took control of bridge", m.events.last)
	assert.Empty(t, m.Detail, "action keys never open the row")
	assert.Equal(t, []string{"bridge", "porch"}, ids(m))

	saved, err := config.LoadFrom(path)
	require.NoError(t, err)
	require.NotNil(t, saved.GetDevice("bridge"))
	assert.Equal(t, "192.168.1.50", saved.GetDevice("bridge").Address)

	// cursor stayed on row 1, now porch
	m = runAction(t, m, runes("x"))
	require.NoError(t, m.Err)
	assert.Equal(t, "removed porch", m.events.last)
	assert.Equal(t, []string{"bridge"}, ids(m))

	saved, err = config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"bridge"}, saved.DeviceNames())
}

func TestModel_ActionNotOffered(t *testing.T) {
	m, _ := savedModel(t)

	// porch is already configured
	next, cmd := m.Update(runes("t"))
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.Equal(t, "porch: cannot take control of", m.events.last)

	// bridge is not configured, so there is nothing to remove
	m = press(t, m, runes("j"))
	_, cmd = m.Update(runes("x"))
	assert.Nil(t, cmd)
}

func TestModel_ActionWithoutClickable(t *testing.T) {
	m := testModel(t, grid.Options{Selectable: true})
	_, cmd := m.Update(runes("x"))
	assert.Nil(t, cmd)
}

func TestModel_ActionFailure(t *testing.T) {
	m, _ := savedModel(t)
	m = press(t, m, actionDoneMsg{
		ev:  grid.ActionEvent{ID: "porch", Action: inventory.ActionRemove},
		err: errors.New("read-only file system"),
	})
	assert.EqualError(t, m.Err, "read-only file system")
	assert.Equal(t, []string{"porch", "bridge"}, ids(m))
}

func TestModel_View(t *testing.T) {
	m := testModel(t, grid.Options{Selectable: true})
	m = press(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	out := ansi.Strip(m.View())
	assert.Contains(t, out, AppName)
	assert.Contains(t, out, "Search:")
	assert.Contains(t, out, "3 of 3 devices")
	assert.Contains(t, out, "attic")
	assert.True(t, strings.Contains(out, "quit"), "help footer is shown")
}

func TestModel_Quit(t *testing.T) {
	m := testModel(t, grid.Options{})
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
