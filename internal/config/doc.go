// Package config provides user configuration management for devgrid.
//
// This package manages a YAML-based configuration file holding the configured
// device inventory (shown as "Your devices" in the dashboard) and the
// dashboard preferences that seed the grid: default sort, grouping column,
// bucket order and labels, collapsed buckets, identity field, debounce delay
// and selection/click modes.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/devgrid/config.yaml or $HOME/.config/devgrid/config.yaml
//   - macOS: $HOME/.config/devgrid/config.yaml
//   - Windows: %LOCALAPPDATA%\devgrid\config.yaml
//
// An explicit path can be used with LoadFrom and SaveTo.
//
// # Usage Example
//
//	registry, err := config.LoadFrom(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	device := registry.EnsureDevice("kitchen-light")
//	device.Platform = "ESP32"
//
//	g := grid.New(inventory.Columns(), registry.GridOptions())
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Hot Reload
//
// Watch observes the file with fsnotify and reloads it after a short quiet
// period, so edits made in another editor show up in a running dashboard.
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File writes are protected by a mutex. A Registry value itself is not safe
// for concurrent mutation.
package config
