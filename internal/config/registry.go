package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "devgrid"
	configFile = "config.yaml"
)

var (
	// Global registry instance (loaded lazily)
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
	globalRegistryErr  error

	// Mutex for thread-safe file operations
	fileMutex sync.Mutex
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/devgrid or $HOME/.config/devgrid
//   - macOS: $HOME/.config/devgrid (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\devgrid
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// LoadRegistry loads the configuration registry from the default location.
// If the file doesn't exist, returns a new default registry.
// Thread-safe - multiple calls will return the same instance.
func LoadRegistry() (*Registry, error) {
	globalRegistryOnce.Do(func() {
		path, err := GetConfigPath()
		if err != nil {
			globalRegistryErr = &Error{Type: ErrTypePath, Message: "failed to get config path", Err: err}
			return
		}
		globalRegistry, globalRegistryErr = LoadFrom(path)
	})
	return globalRegistry, globalRegistryErr
}

// LoadFrom loads a registry from an explicit path.
// A missing file yields a default registry bound to that path.
func LoadFrom(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		reg := NewRegistry()
		reg.path = path
		return reg, nil
	}
	if err != nil {
		return nil, &Error{Type: ErrTypeRead, Message: "failed to read config file", Path: path, Err: err}
	}

	registry, err := Parse(data)
	if err != nil {
		var cfgErr *Error
		if errors.As(err, &cfgErr) {
			cfgErr.Path = path
		}
		return nil, err
	}
	registry.path = path
	return registry, nil
}

// Parse decodes and validates a registry from YAML.
func Parse(data []byte) (*Registry, error) {
	// Defaults are decoded over, so a partial preferences block keeps the rest
	registry := Registry{Preferences: DefaultPreferences()}
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, &Error{Type: ErrTypeParse, Message: "failed to parse config file", Err: err}
	}

	// Ensure maps are initialized
	if registry.Devices == nil {
		registry.Devices = make(map[string]*Device)
	}
	if registry.Preferences == nil {
		registry.Preferences = DefaultPreferences()
	}

	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return &registry, nil
}

// Save saves the registry to the path it was loaded from, or to the
// default location. Performs an atomic write to prevent corruption on crash.
func (r *Registry) Save() error {
	path := r.path
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return &Error{Type: ErrTypePath, Message: "failed to get config path", Err: err}
		}
	}
	return r.SaveTo(path)
}

// SaveTo writes the registry to path atomically.
func (r *Registry) SaveTo(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return &Error{Type: ErrTypeWrite, Message: "failed to create config directory", Path: path, Err: err}
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return &Error{Type: ErrTypeWrite, Message: "failed to marshal config", Path: path, Err: err}
	}

	header := []byte(`# devgrid configuration file
# Configured devices appear under "Your devices" in the dashboard;
# preferences seed the sort, grouping and selection behaviour.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return &Error{Type: ErrTypeWrite, Message: "failed to write temporary config file", Path: path, Err: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &Error{Type: ErrTypeWrite, Message: "failed to save config file", Path: path, Err: err}
	}

	r.path = path
	return nil
}

// ReloadRegistry reloads the global registry from disk, discarding any
// in-memory changes.
func ReloadRegistry() (*Registry, error) {
	fileMutex.Lock()
	globalRegistryOnce = sync.Once{}
	fileMutex.Unlock()
	return LoadRegistry()
}

// CreateDefaultConfig writes a default configuration file with example
// devices to path.
func CreateDefaultConfig(path string) error {
	registry := NewRegistry()
	registry.Devices["living-room-sensor"] = &Device{
		FriendlyName:    "Living Room Sensor",
		Platform:        "ESP32",
		Board:           "esp32dev",
		FileName:        "living-room-sensor.yaml",
		DeployedVersion: "2024.9.2",
	}
	registry.Devices["garage-door"] = &Device{
		FriendlyName:    "Garage Door",
		Platform:        "ESP8266",
		Board:           "d1_mini",
		FileName:        "garage-door.yaml",
		Address:         "192.168.1.40",
		DeployedVersion: "2024.6.1",
	}
	registry.Preferences.ESPHomeVersion = "2024.9.2"

	return registry.SaveTo(path)
}
