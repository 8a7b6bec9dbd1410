// Package inventory merges configured devices and mDNS discoveries into the
// rows shown by the device grid.
//
// Configured devices come from the config registry and form the "Your
// devices" group. A configured device is online when a node with the same
// name answered the last scan, and update-available when that node runs a
// firmware version older than the configured ESPHome version. Nodes that
// answered the scan but are not configured form the "Discovered" group.
//
// Row keys:
//   - name, friendlyName, platform, board, address, fileName, comment
//   - status: online, offline, update-available or discovered
//   - deviceType: configured or discovered
//   - version: the reported firmware version, else the deployed one
package inventory
