package inventory

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/devgrid/internal/config"
	"github.com/muurk/devgrid/internal/discovery"
	"github.com/muurk/devgrid/internal/grid"
)

func testRegistry() *config.Registry {
	reg := config.NewRegistry()
	reg.Preferences.ESPHomeVersion = "2024.9.2"
	reg.Devices["porch"] = &config.Device{Platform: "ESP8266", DeployedVersion: "2024.6.1", Address: "192.168.1.9"}
	reg.Devices["kitchen"] = &config.Device{FriendlyName: "Kitchen", Platform: "ESP32", DeployedVersion: "2024.9.2"}
	reg.Devices["attic"] = &config.Device{Platform: "ESP32"}
	return reg
}

func names(rows []grid.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.String(KeyName)
	}
	return out
}

func TestBuild(t *testing.T) {
	reg := testRegistry()
	found := []*discovery.Device{
		{Name: "kitchen", IP: "192.168.1.10", Version: "2024.9.2", Platform: "ESP32"},
		{Name: "porch", IP: "192.168.1.11", Version: "2024.6.1"},
		{Name: "zigbee-bridge", IP: "192.168.1.12", Version: "2024.9.2", Platform: "ESP32", FriendlyName: "Bridge"},
		{Name: "bathroom", IP: "192.168.1.13", Version: "2023.12.0", Platform: "ESP8266"},
	}

	rows := Build(reg, found)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"attic", "kitchen", "porch", "bathroom", "zigbee-bridge"}, names(rows))

	byName := make(map[string]grid.Row)
	for _, r := range rows {
		byName[r.String(KeyName)] = r
	}

	assert.Equal(t, grid.StatusOffline, byName["attic"][KeyStatus])
	assert.Equal(t, grid.OriginConfigured, byName["attic"][KeyDeviceType])

	assert.Equal(t, grid.StatusOnline, byName["kitchen"][KeyStatus])
	assert.Equal(t, "192.168.1.10", byName["kitchen"][KeyAddress])

	assert.Equal(t, grid.StatusUpdateAvailable, byName["porch"][KeyStatus])
	assert.Equal(t, "192.168.1.11", byName["porch"][KeyAddress])

	assert.Equal(t, grid.StatusDiscovered, byName["zigbee-bridge"][KeyStatus])
	assert.Equal(t, grid.OriginDiscovered, byName["zigbee-bridge"][KeyDeviceType])
	assert.Equal(t, "Bridge", byName["zigbee-bridge"][KeyFriendlyName])

	// discovered-only rows are never update-available
	assert.Equal(t, grid.StatusDiscovered, byName["bathroom"][KeyStatus])
}

func TestBuild_OfflineKeepsConfiguredValues(t *testing.T) {
	rows := Build(testRegistry(), nil)
	require.Len(t, rows, 3)

	porch := rows[2]
	assert.Equal(t, "porch", porch[KeyName])
	assert.Equal(t, grid.StatusOffline, porch[KeyStatus])
	assert.Equal(t, "192.168.1.9", porch[KeyAddress])
	assert.Equal(t, "2024.6.1", porch[KeyVersion])
}

func TestBuild_NilRegistry(t *testing.T) {
	rows := Build(nil, []*discovery.Device{{Name: "b", IP: "10.0.0.2"}, nil, {Name: "a", IP: "10.0.0.1"}})
	assert.Equal(t, []string{"a", "b"}, names(rows))
}

func TestBuild_GroupsByOrigin(t *testing.T) {
	reg := testRegistry()
	rows := Build(reg, []*discovery.Device{{Name: "extra", IP: "10.0.0.3"}})

	g := grid.New(Columns(), reg.GridOptions())
	g.SetRows(rows)
	view := g.View()

	require.NotEmpty(t, view.Rows)
	assert.Equal(t, grid.KindGroup, view.Rows[0].Kind)
	assert.Equal(t, "Your devices", view.Rows[0].Label)
	assert.Equal(t, 3, view.Rows[0].Count)

	last := view.Rows[len(view.Rows)-2]
	assert.Equal(t, grid.KindGroup, last.Kind)
	assert.Equal(t, "Discovered", last.Label)
}

func TestUpdateAvailable(t *testing.T) {
	tests := []struct {
		running, latest string
		want            bool
	}{
		{"2024.6.1", "2024.9.2", true},
		{"2024.9.2", "2024.9.2", false},
		{"2024.10.0", "2024.9.2", false},
		{"v2023.12.5", "2024.1", true},
		{"", "2024.9.2", false},
		{"2024.9.2", "", false},
		{"dev", "2024.9.2", false},
	}

	for _, tt := range tests {
		t.Run(tt.running+"->"+tt.latest, func(t *testing.T) {
			assert.Equal(t, tt.want, UpdateAvailable(tt.running, tt.latest))
		})
	}
}

func TestColumns(t *testing.T) {
	cols := Columns()
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
	}
	assert.Equal(t, []string{KeyName, KeyFriendlyName, KeyPlatform, KeyAddress, KeyFileName, KeyStatus, KeyDeviceType, KeyVersion}, keys)

	status := cols[5]
	assert.Equal(t, "Update Available", status.Display(grid.Row{KeyStatus: grid.StatusUpdateAvailable}))
	assert.Equal(t, "weird", status.Display(grid.Row{KeyStatus: "weird"}))
}

func TestInventory(t *testing.T) {
	inv := New(testRegistry())
	assert.Len(t, inv.Rows(), 3)

	inv.SetDiscovered([]*discovery.Device{{Name: "new-node", IP: "10.0.0.7"}})
	assert.Len(t, inv.Rows(), 4)

	inv.SetRegistry(config.NewRegistry())
	assert.Equal(t, []string{"new-node"}, names(inv.Rows()))
	assert.Empty(t, inv.Registry().Devices)
}

func TestBuild_MACIsFilterable(t *testing.T) {
	reg := testRegistry()
	found := []*discovery.Device{
		{Name: "kitchen", IP: "192.168.1.10", Metadata: map[string]string{"mac": "a0b1c2d3e4f5"}},
		{Name: "bridge", IP: "192.168.1.12", Metadata: map[string]string{"mac": "ffeeddccbbaa"}},
	}

	rows := Build(reg, found)
	assert.Equal(t, []string{"kitchen"}, names(grid.Filter(rows, "A0B1")))
	assert.Equal(t, []string{"bridge"}, names(grid.Filter(rows, "ffeedd")))
}

func TestActions(t *testing.T) {
	rows := Build(testRegistry(), []*discovery.Device{{Name: "bridge", IP: "10.0.0.7"}})
	byName := map[string]grid.Row{}
	for _, r := range rows {
		byName[r.String(KeyName)] = r
	}
	assert.Equal(t, []string{ActionRemove}, Actions(byName["porch"]))
	assert.Equal(t, []string{ActionAdopt}, Actions(byName["bridge"]))
	assert.Nil(t, Actions(grid.Row{KeyName: "loose"}))
}

func TestApplyAction(t *testing.T) {
	discovered := grid.Row{
		KeyName: "bridge", KeyDeviceType: grid.OriginDiscovered,
		KeyPlatform: "ESP32", KeyBoard: "esp32dev", KeyAddress: "10.0.0.7", KeyVersion: "2024.9.2",
	}
	configured := grid.Row{KeyName: "porch", KeyDeviceType: grid.OriginConfigured}

	tests := []struct {
		name    string
		action  string
		row     grid.Row
		wantErr error
	}{
		{"adopt discovered", ActionAdopt, discovered, nil},
		{"adopt configured", ActionAdopt, configured, ErrNotApplicable},
		{"remove configured", ActionRemove, configured, nil},
		{"remove discovered", ActionRemove, discovered, ErrNotApplicable},
		{"unknown action", "flash", configured, ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := testRegistry()
			err := ApplyAction(reg, tt.action, tt.row)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestApplyAction_AdoptCopiesNodeFields(t *testing.T) {
	reg := testRegistry()
	row := Build(reg, []*discovery.Device{{
		Name: "bridge", FriendlyName: "Bridge", Platform: "ESP32", Board: "esp32dev",
		IP: "10.0.0.7", Version: "2024.9.2",
	}})[3]

	require.NoError(t, ApplyAction(reg, ActionAdopt, row))
	assert.Equal(t, &config.Device{
		FriendlyName:    "Bridge",
		Platform:        "ESP32",
		Board:           "esp32dev",
		FileName:        "bridge.yaml",
		Address:         "10.0.0.7",
		DeployedVersion: "2024.9.2",
	}, reg.GetDevice("bridge"))
}

func TestInventory_Do(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	reg, err := config.LoadFrom(path)
	require.NoError(t, err)
	reg.Devices["porch"] = &config.Device{Platform: "ESP8266"}

	inv := New(reg)
	inv.SetDiscovered([]*discovery.Device{{Name: "bridge", Platform: "ESP32", IP: "10.0.0.7"}})

	require.NoError(t, inv.Do(ActionAdopt, "bridge"))
	assert.Equal(t, []string{"bridge", "porch"}, inv.Registry().DeviceNames())
	assert.Nil(t, reg.GetDevice("bridge"), "previous registry is left untouched")

	saved, err := config.LoadFrom(path)
	require.NoError(t, err)
	require.NotNil(t, saved.GetDevice("bridge"))
	assert.Equal(t, "10.0.0.7", saved.GetDevice("bridge").Address)

	require.NoError(t, inv.Do(ActionRemove, "porch"))
	saved, err = config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"bridge"}, saved.DeviceNames())

	assert.ErrorIs(t, inv.Do(ActionAdopt, "bridge"), ErrNotApplicable)
	assert.ErrorIs(t, inv.Do(ActionRemove, "ghost"), ErrUnknownDevice)
}

func TestInventory_DoWithoutRegistry(t *testing.T) {
	inv := New(nil)
	assert.ErrorIs(t, inv.Do(ActionRemove, "porch"), ErrNoRegistryBound)
}
