package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/muurk/devgrid/internal/logging"
)

const (
	// ServiceType is the mDNS service type ESPHome nodes advertise
	ServiceType = "_esphomelib._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the ESPHome native API port
	DefaultPort = 6053
)

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is the maximum time to wait for device discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan discovers ESPHome nodes until the timeout or ctx ends.
// Devices are deduplicated by name and returned in name order.
func (s *Scanner) Scan(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	var mu sync.Mutex
	found := make(map[string]*Device)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		err = fmt.Errorf("failed to create mDNS resolver: %w", err)
		logging.LogScan(ServiceType, 0, err)
		return nil, err
	}

	go func() {
		for entry := range entries {
			device := parseServiceEntry(entry)
			if device == nil {
				continue
			}
			mu.Lock()
			found[device.Name] = device
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		err = fmt.Errorf("failed to browse for mDNS services: %w", err)
		logging.LogScan(ServiceType, 0, err)
		return nil, err
	}

	<-ctx.Done()

	mu.Lock()
	devices := make([]*Device, 0, len(found))
	for _, d := range found {
		devices = append(devices, d)
	}
	mu.Unlock()

	sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
	logging.LogScan(ServiceType, len(devices), nil)
	return devices, nil
}

// Find waits for the node with the given name.
// Returns an error if it does not appear within the timeout.
func (s *Scanner) Find(ctx context.Context, name string) (*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	deviceChan := make(chan *Device, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			device := parseServiceEntry(entry)
			if device != nil && device.Name == name {
				select {
				case deviceChan <- device:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case device := <-deviceChan:
		return device, nil
	case <-ctx.Done():
		// the finder may have cancelled right after sending
		select {
		case device := <-deviceChan:
			return device, nil
		default:
		}
		return nil, fmt.Errorf("device %s not found within timeout", name)
	}
}

func (s *Scanner) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultScanTimeout
	}
	return s.Timeout
}

// parseServiceEntry converts a zeroconf service entry to a Device
// Returns nil if the entry has no usable name or address
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil {
		return nil
	}

	hostname := entry.HostName
	name := entry.Instance
	if name == "" {
		name = strings.TrimSuffix(strings.TrimSuffix(hostname, "."), ".local")
	}
	if name == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Device{
		Name:         name,
		Hostname:     hostname,
		IP:           ip,
		Port:         port,
		Version:      metadata["version"],
		Platform:     strings.ToUpper(metadata["platform"]),
		Board:        metadata["board"],
		FriendlyName: metadata["friendly_name"],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForDevices scans with a custom timeout
func ScanForDevices(ctx context.Context, timeout time.Duration) ([]*Device, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan(ctx)
}

// QuickScan performs a fast scan with a 2-second timeout
func QuickScan(ctx context.Context) ([]*Device, error) {
	return ScanForDevices(ctx, 2*time.Second)
}

// FindDevice searches for a node by name with the default timeout
func FindDevice(ctx context.Context, name string) (*Device, error) {
	return NewScanner().Find(ctx, name)
}
