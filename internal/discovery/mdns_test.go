package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func esphomeEntry(instance, host string) *zeroconf.ServiceEntry {
	return &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{
			Instance: instance,
			Service:  ServiceType,
			Domain:   ServiceDomain,
		},
		HostName: host,
	}
}

func TestParseServiceEntry(t *testing.T) {
	withAddr := func(e *zeroconf.ServiceEntry, port int, v4, v6 []net.IP, txt ...string) *zeroconf.ServiceEntry {
		e.Port = port
		e.AddrIPv4 = v4
		e.AddrIPv6 = v6
		e.Text = txt
		return e
	}

	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantName     string
		wantIP       string
		wantPort     int
		wantVersion  string
		wantPlatform string
	}{
		{
			name: "node with IPv4 and full TXT record",
			entry: withAddr(esphomeEntry("living-room-sensor", "living-room-sensor.local."), 6053,
				[]net.IP{net.ParseIP("192.168.1.20")}, nil,
				"version=2024.9.2", "platform=ESP32", "board=esp32dev", "mac=a0b1c2d3e4f5"),
			wantName:     "living-room-sensor",
			wantIP:       "192.168.1.20",
			wantPort:     6053,
			wantVersion:  "2024.9.2",
			wantPlatform: "ESP32",
		},
		{
			name: "lowercase platform is normalized",
			entry: withAddr(esphomeEntry("porch", "porch.local."), 6053,
				[]net.IP{net.ParseIP("10.0.0.5")}, nil, "platform=esp8266"),
			wantName:     "porch",
			wantIP:       "10.0.0.5",
			wantPort:     6053,
			wantPlatform: "ESP8266",
		},
		{
			name: "no port defaults to native API port",
			entry: withAddr(esphomeEntry("garage-door", "garage-door.local"), 0,
				[]net.IP{net.ParseIP("172.16.0.1")}, nil),
			wantName: "garage-door",
			wantIP:   "172.16.0.1",
			wantPort: DefaultPort,
		},
		{
			name: "name falls back to hostname",
			entry: withAddr(esphomeEntry("", "kitchen.local."), 6053,
				[]net.IP{net.ParseIP("192.168.1.30")}, nil),
			wantName: "kitchen",
			wantIP:   "192.168.1.30",
			wantPort: 6053,
		},
		{
			name: "IPv6 only node",
			entry: withAddr(esphomeEntry("attic", "attic.local."), 6053,
				nil, []net.IP{net.ParseIP("fe80::1")}),
			wantName: "attic",
			wantIP:   "fe80::1",
			wantPort: 6053,
		},
		{
			name: "prefers IPv4 over IPv6",
			entry: withAddr(esphomeEntry("shed", "shed.local."), 6053,
				[]net.IP{net.ParseIP("192.168.1.50")}, []net.IP{net.ParseIP("fe80::2")}),
			wantName: "shed",
			wantIP:   "192.168.1.50",
			wantPort: 6053,
		},
		{
			name:    "no name and no hostname",
			entry:   withAddr(esphomeEntry("", ""), 6053, []net.IP{net.ParseIP("192.168.1.1")}, nil),
			wantNil: true,
		},
		{
			name:    "no address",
			entry:   withAddr(esphomeEntry("ghost", "ghost.local."), 6053, nil, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}

			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil device")
			}
			if device.Name != tt.wantName {
				t.Errorf("device.Name = %v, want %v", device.Name, tt.wantName)
			}
			if device.IP != tt.wantIP {
				t.Errorf("device.IP = %v, want %v", device.IP, tt.wantIP)
			}
			if device.Port != tt.wantPort {
				t.Errorf("device.Port = %v, want %v", device.Port, tt.wantPort)
			}
			if device.Version != tt.wantVersion {
				t.Errorf("device.Version = %v, want %v", device.Version, tt.wantVersion)
			}
			if device.Platform != tt.wantPlatform {
				t.Errorf("device.Platform = %v, want %v", device.Platform, tt.wantPlatform)
			}
			if device.Hostname != tt.entry.HostName {
				t.Errorf("device.Hostname = %v, want %v", device.Hostname, tt.entry.HostName)
			}
			if time.Since(device.DiscoveredAt) > time.Second {
				t.Errorf("device.DiscoveredAt is not recent: %v", device.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	entry := esphomeEntry("living-room-sensor", "living-room-sensor.local.")
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}
	entry.Text = []string{"version=2024.9.2", "board=esp32dev", "friendly_name=Living Room", "network"}

	device := parseServiceEntry(entry)
	if device == nil {
		t.Fatal("parseServiceEntry() = nil, want device")
	}

	expectedMetadata := map[string]string{
		"version":       "2024.9.2",
		"board":         "esp32dev",
		"friendly_name": "Living Room",
		"network":       "", // Key without value
	}

	if len(device.Metadata) != len(expectedMetadata) {
		t.Errorf("device.Metadata has %d entries, want %d", len(device.Metadata), len(expectedMetadata))
	}
	for key, expectedValue := range expectedMetadata {
		if actualValue, ok := device.Metadata[key]; !ok {
			t.Errorf("device.Metadata missing key %q", key)
		} else if actualValue != expectedValue {
			t.Errorf("device.Metadata[%q] = %q, want %q", key, actualValue, expectedValue)
		}
	}

	if device.Board != "esp32dev" {
		t.Errorf("device.Board = %v, want esp32dev", device.Board)
	}
	if device.FriendlyName != "Living Room" {
		t.Errorf("device.FriendlyName = %v, want Living Room", device.FriendlyName)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}

	scanner.Timeout = 0
	if scanner.timeout() != DefaultScanTimeout {
		t.Errorf("timeout() with zero Timeout = %v, want %v", scanner.timeout(), DefaultScanTimeout)
	}
}

// Note: live mDNS discovery needs a multicast-capable network and is
// exercised manually with `devgrid scan`.
