package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Device represents an ESPHome node discovered on the network
type Device struct {
	// Name is the node name from the mDNS instance (e.g., "living-room-sensor")
	Name string

	// Hostname is the mDNS hostname (e.g., "living-room-sensor.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the native API port (typically 6053)
	Port int

	// Version is the ESPHome firmware version from the TXT record
	Version string

	// Platform is the chip family (e.g., "ESP32", "ESP8266")
	Platform string

	// Board is the board identifier (e.g., "esp32dev")
	Board string

	// FriendlyName is the optional display name set in the node's YAML
	FriendlyName string

	// Metadata contains all mDNS TXT record data
	// Common fields: "version", "mac", "platform", "board", "network"
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("ESPHome node %s (%s) at %s:%d", d.Name, d.Hostname, d.IP, d.Port)
}

// Address returns the host:port of the native API endpoint.
// IPv6 addresses are bracketed.
func (d *Device) Address() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// DisplayName returns the friendly name, falling back to the node name
func (d *Device) DisplayName() string {
	if d.FriendlyName != "" {
		return d.FriendlyName
	}
	return d.Name
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
