package inventory

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/blang/semver/v4"

	"github.com/muurk/devgrid/internal/config"
	"github.com/muurk/devgrid/internal/discovery"
	"github.com/muurk/devgrid/internal/grid"
)

// Row keys
const (
	KeyName         = "name"
	KeyFriendlyName = "friendlyName"
	KeyPlatform     = "platform"
	KeyBoard        = "board"
	KeyAddress      = "address"
	KeyFileName     = "fileName"
	KeyStatus       = grid.StatusColumn
	KeyDeviceType   = "deviceType"
	KeyVersion      = "version"
	KeyComment      = "comment"

	// KeyMAC comes from the node's TXT record; it is not a column but
	// still matches the filter
	KeyMAC = "mac"
)

// Columns returns the default device grid columns.
func Columns() []grid.Column {
	return []grid.Column{
		{Key: KeyName, Title: "Name", Sortable: true, Filterable: true, Width: 22},
		{Key: KeyFriendlyName, Title: "Friendly Name", Sortable: true, Filterable: true, Width: 22},
		{Key: KeyPlatform, Title: "Platform", Sortable: true, Groupable: true, Width: 9},
		{Key: KeyAddress, Title: "Address", Sortable: true, Filterable: true, Width: 16},
		{Key: KeyFileName, Title: "File", Sortable: true, Hidden: true},
		{
			Key: KeyStatus, Title: "Status", Sortable: true, Groupable: true, Width: 18, Type: "status",
			Format: func(v any, _ grid.Row) string { return grid.StatusLabel(grid.Stringify(v)) },
		},
		{Key: KeyDeviceType, Title: "Type", Groupable: true, Hidden: true},
		{Key: KeyVersion, Title: "Version", Sortable: true, Width: 10, Align: grid.AlignRight},
	}
}

// Build merges the configured devices of reg with discovered nodes.
// Configured rows come first in name order, then discovered-only rows in
// name order.
func Build(reg *config.Registry, discovered []*discovery.Device) []grid.Row {
	byName := make(map[string]*discovery.Device, len(discovered))
	for _, d := range discovered {
		if d != nil && d.Name != "" {
			byName[d.Name] = d
		}
	}

	var latest string
	rows := make([]grid.Row, 0, len(byName))
	if reg != nil {
		if reg.Preferences != nil {
			latest = reg.Preferences.ESPHomeVersion
		}
		for _, name := range reg.DeviceNames() {
			rows = append(rows, configuredRow(name, reg.Devices[name], byName[name], latest))
		}
	}

	var extra []string
	for name := range byName {
		if reg == nil || reg.GetDevice(name) == nil {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		rows = append(rows, discoveredRow(byName[name]))
	}
	return rows
}

func configuredRow(name string, dev *config.Device, node *discovery.Device, latest string) grid.Row {
	if dev == nil {
		dev = &config.Device{}
	}
	row := grid.Row{
		KeyName:         name,
		KeyFriendlyName: dev.FriendlyName,
		KeyPlatform:     dev.Platform,
		KeyBoard:        dev.Board,
		KeyAddress:      dev.Address,
		KeyFileName:     dev.FileName,
		KeyStatus:       grid.StatusOffline,
		KeyDeviceType:   grid.OriginConfigured,
		KeyVersion:      dev.DeployedVersion,
		KeyComment:      dev.Comment,
	}
	if node == nil {
		return row
	}

	row[KeyStatus] = grid.StatusOnline
	row[KeyAddress] = node.IP
	if mac := node.GetMetadata(KeyMAC); mac != "" {
		row[KeyMAC] = mac
	}
	if node.Version != "" {
		row[KeyVersion] = node.Version
	}
	if dev.Platform == "" {
		row[KeyPlatform] = node.Platform
	}
	if dev.FriendlyName == "" && node.FriendlyName != "" {
		row[KeyFriendlyName] = node.FriendlyName
	}
	if UpdateAvailable(row.String(KeyVersion), latest) {
		row[KeyStatus] = grid.StatusUpdateAvailable
	}
	return row
}

func discoveredRow(node *discovery.Device) grid.Row {
	return grid.Row{
		KeyName:         node.Name,
		KeyFriendlyName: node.FriendlyName,
		KeyPlatform:     node.Platform,
		KeyBoard:        node.Board,
		KeyAddress:      node.IP,
		KeyStatus:       grid.StatusDiscovered,
		KeyDeviceType:   grid.OriginDiscovered,
		KeyVersion:      node.Version,
		KeyMAC:          node.GetMetadata(KeyMAC),
	}
}

// UpdateAvailable reports whether running is older than latest.
// Versions that do not parse never report an update.
func UpdateAvailable(running, latest string) bool {
	if running == "" || latest == "" {
		return false
	}
	r, err := semver.ParseTolerant(running)
	if err != nil {
		return false
	}
	l, err := semver.ParseTolerant(latest)
	if err != nil {
		return false
	}
	return r.LT(l)
}

// Inventory holds the latest registry and scan results and rebuilds rows
// on demand. It is safe for concurrent use.
type Inventory struct {
	mu         sync.RWMutex
	reg        *config.Registry
	discovered []*discovery.Device
}

// New creates an inventory over reg.
func New(reg *config.Registry) *Inventory {
	return &Inventory{reg: reg}
}

// SetRegistry replaces the configured devices, e.g. after a config reload.
func (inv *Inventory) SetRegistry(reg *config.Registry) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.reg = reg
}

// Registry returns the current registry.
func (inv *Inventory) Registry() *config.Registry {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.reg
}

// SetDiscovered replaces the scan results.
func (inv *Inventory) SetDiscovered(devices []*discovery.Device) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.discovered = devices
}

// Rows builds the current rows.
func (inv *Inventory) Rows() []grid.Row {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return Build(inv.reg, inv.discovered)
}

// Device actions
const (
	// ActionAdopt copies a discovered node into the registry
	ActionAdopt = "adopt"
	// ActionRemove deletes a configured device from the registry
	ActionRemove = "remove"
)

var (
	ErrUnknownDevice   = errors.New("unknown device")
	ErrUnknownAction   = errors.New("unknown action")
	ErrNotApplicable   = errors.New("action does not apply to this device")
	ErrNoRegistryBound = errors.New("no registry loaded")
)

// Actions lists the actions available for row.
func Actions(row grid.Row) []string {
	switch row.String(KeyDeviceType) {
	case grid.OriginDiscovered:
		return []string{ActionAdopt}
	case grid.OriginConfigured:
		return []string{ActionRemove}
	}
	return nil
}

// ApplyAction performs action on reg for row. It does not save.
func ApplyAction(reg *config.Registry, action string, row grid.Row) error {
	name := row.String(KeyName)
	origin := row.String(KeyDeviceType)
	switch action {
	case ActionAdopt:
		if origin != grid.OriginDiscovered || reg.GetDevice(name) != nil {
			return fmt.Errorf("%s %s: %w", action, name, ErrNotApplicable)
		}
		dev := reg.EnsureDevice(name)
		dev.FriendlyName = row.String(KeyFriendlyName)
		dev.Platform = row.String(KeyPlatform)
		dev.Board = row.String(KeyBoard)
		dev.Address = row.String(KeyAddress)
		dev.DeployedVersion = row.String(KeyVersion)
		return nil
	case ActionRemove:
		if origin != grid.OriginConfigured || !reg.RemoveDevice(name) {
			return fmt.Errorf("%s %s: %w", action, name, ErrNotApplicable)
		}
		return nil
	}
	return fmt.Errorf("%q: %w", action, ErrUnknownAction)
}

// Do applies action to the device called name and saves the registry.
// The registry is copied before it is changed, so callers holding the
// previous registry never see a partial update.
func (inv *Inventory) Do(action, name string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.reg == nil {
		return ErrNoRegistryBound
	}
	var row grid.Row
	for _, r := range Build(inv.reg, inv.discovered) {
		if r.String(KeyName) == name {
			row = r
			break
		}
	}
	if row == nil {
		return fmt.Errorf("%s: %w", name, ErrUnknownDevice)
	}

	next := *inv.reg
	next.Devices = maps.Clone(inv.reg.Devices)
	if err := ApplyAction(&next, action, row); err != nil {
		return err
	}
	if err := next.Save(); err != nil {
		return err
	}
	inv.reg = &next
	return nil
}
