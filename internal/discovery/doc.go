// Package discovery finds ESPHome nodes on the local network over mDNS.
//
// ESPHome firmware advertises its native API as a "_esphomelib._tcp"
// service. The instance name is the node name, and the TXT record carries
// the firmware version, chip platform, board and an optional friendly name.
//
// # Usage Example
//
//	devices, err := discovery.ScanForDevices(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, d := range devices {
//	    fmt.Printf("%s %s %s\n", d.Name, d.IP, d.Version)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Devices must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
