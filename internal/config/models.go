package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/muurk/devgrid/internal/grid"
)

// CurrentVersion is the only config file version this build understands
const CurrentVersion = 1

// Registry represents the entire user configuration file.
// It stores the configured device inventory and dashboard preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by device name
	Preferences *Preferences       `yaml:"preferences,omitempty"`

	// path is where the registry was loaded from (empty = default location)
	path string
}

// Device represents one configured device ("Your devices" in the dashboard).
type Device struct {
	FriendlyName    string `yaml:"friendly_name,omitempty"`    // Display name
	Platform        string `yaml:"platform,omitempty"`         // e.g. "ESP32", "ESP8266"
	Board           string `yaml:"board,omitempty"`            // e.g. "esp32dev"
	FileName        string `yaml:"file_name,omitempty"`        // YAML file the device is built from
	Address         string `yaml:"address,omitempty"`          // Static IP or hostname, if known
	DeployedVersion string `yaml:"deployed_version,omitempty"` // Firmware version last flashed
	Comment         string `yaml:"comment,omitempty"`
}

// Preferences holds dashboard defaults. These seed the grid on startup.
type Preferences struct {
	SortColumn    string            `yaml:"sort_column,omitempty"`
	SortDirection string            `yaml:"sort_direction,omitempty"` // asc, desc or none
	GroupBy       string            `yaml:"group_by,omitempty"`
	GroupOrder    []string          `yaml:"group_order,omitempty"`
	GroupLabels   map[string]string `yaml:"group_labels,omitempty"`
	Collapsed     []string          `yaml:"collapsed,omitempty"`
	IdentityField string            `yaml:"identity_field,omitempty"`
	DebounceMS    int               `yaml:"debounce_ms"`
	Clickable     bool              `yaml:"clickable"`
	Selectable    bool              `yaml:"selectable"`
	NoDataText    string            `yaml:"no_data_text,omitempty"`

	// ESPHomeVersion is the latest firmware version; online devices running
	// an older version are reported as update-available
	ESPHomeVersion string `yaml:"esphome_version,omitempty"`

	// DiscoverTimeout is the mDNS discovery timeout in seconds
	DiscoverTimeout int `yaml:"discover_timeout"`
}

// DefaultPreferences returns the preferences used for a fresh config file.
func DefaultPreferences() *Preferences {
	return &Preferences{
		SortColumn:      "name",
		SortDirection:   string(grid.DirectionAsc),
		GroupBy:         "deviceType",
		GroupOrder:      []string{grid.OriginConfigured, grid.OriginDiscovered},
		IdentityField:   grid.DefaultIdentityField,
		DebounceMS:      int(grid.DefaultDebounce / time.Millisecond),
		Clickable:       true,
		Selectable:      true,
		DiscoverTimeout: 5,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Devices:     make(map[string]*Device),
		Preferences: DefaultPreferences(),
	}
}

// Path returns the file this registry was loaded from, if any.
func (r *Registry) Path() string {
	return r.path
}

// GetDevice retrieves device metadata by name.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// EnsureDevice ensures a device entry exists in the registry.
// Returns the device entry (existing or newly created).
func (r *Registry) EnsureDevice(name string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[name]; exists {
		return device
	}

	device := &Device{FileName: name + ".yaml"}
	r.Devices[name] = device
	return device
}

// RemoveDevice deletes a device. Returns false if it was not configured.
func (r *Registry) RemoveDevice(name string) bool {
	if _, ok := r.Devices[name]; !ok {
		return false
	}
	delete(r.Devices, name)
	return true
}

// DeviceNames returns the configured device names in sorted order.
func (r *Registry) DeviceNames() []string {
	names := make([]string, 0, len(r.Devices))
	for name := range r.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetSort records the preferred sort column and direction.
func (r *Registry) SetSort(spec grid.SortSpec) {
	r.prefs().SortColumn = spec.Column
	r.prefs().SortDirection = string(spec.Direction)
}

// SetGroupBy records the preferred grouping column.
func (r *Registry) SetGroupBy(column string) {
	r.prefs().GroupBy = column
}

// SetCollapsed records the collapsed bucket keys.
func (r *Registry) SetCollapsed(keys []string) {
	r.prefs().Collapsed = keys
}

// SortSpec returns the preferred sort as a grid spec.
// An invalid direction yields no sort.
func (r *Registry) SortSpec() grid.SortSpec {
	p := r.prefs()
	dir, err := grid.ParseDirection(p.SortDirection)
	if err != nil || p.SortColumn == "" {
		return grid.SortSpec{Direction: grid.DirectionNone}
	}
	return grid.SortSpec{Column: p.SortColumn, Direction: dir}
}

// DebounceDelay returns the live filter debounce delay.
func (r *Registry) DebounceDelay() time.Duration {
	if ms := r.prefs().DebounceMS; ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return grid.DefaultDebounce
}

// DiscoverTimeoutDuration returns the mDNS discovery timeout.
func (r *Registry) DiscoverTimeoutDuration() time.Duration {
	if s := r.prefs().DiscoverTimeout; s > 0 {
		return time.Duration(s) * time.Second
	}
	return 5 * time.Second
}

// GridOptions builds grid options from the preferences.
func (r *Registry) GridOptions() grid.Options {
	p := r.prefs()
	return grid.Options{
		IdentityField:    p.IdentityField,
		Selectable:       p.Selectable,
		Clickable:        p.Clickable,
		Grouping:         p.GroupBy != "",
		GroupBy:          p.GroupBy,
		GroupOrder:       p.GroupOrder,
		GroupLabels:      p.GroupLabels,
		InitialCollapsed: p.Collapsed,
		Sort:             r.SortSpec(),
		NoDataText:       p.NoDataText,
	}
}

// Validate checks the registry for values the dashboard cannot use.
func (r *Registry) Validate() error {
	if r.Version != CurrentVersion {
		return &Error{
			Type:    ErrTypeVersion,
			Message: fmt.Sprintf("unsupported config version: %d (expected %d)", r.Version, CurrentVersion),
		}
	}
	p := r.prefs()
	if _, err := grid.ParseDirection(p.SortDirection); err != nil {
		return &Error{Type: ErrTypeValidation, Message: "invalid sort_direction", Err: err}
	}
	if p.DebounceMS < 0 {
		return &Error{Type: ErrTypeValidation, Message: fmt.Sprintf("debounce_ms must not be negative, got %d", p.DebounceMS)}
	}
	if p.DiscoverTimeout < 0 {
		return &Error{Type: ErrTypeValidation, Message: fmt.Sprintf("discover_timeout must not be negative, got %d", p.DiscoverTimeout)}
	}
	return nil
}

func (r *Registry) prefs() *Preferences {
	if r.Preferences == nil {
		r.Preferences = DefaultPreferences()
	}
	return r.Preferences
}
