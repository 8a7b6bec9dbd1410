package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/devgrid/internal/config"
	"github.com/muurk/devgrid/internal/dashboard"
	"github.com/muurk/devgrid/internal/discovery"
	"github.com/muurk/devgrid/internal/grid"
	"github.com/muurk/devgrid/internal/inventory"
	"github.com/muurk/devgrid/internal/logging"
	"github.com/muurk/devgrid/internal/server"
	"github.com/muurk/devgrid/internal/ui"
)

// Command flags
var (
	listFilter string
	listSort   string
	listGroup  string
	listFormat string
	scanFirst  bool

	watchConfig  bool
	rememberView bool

	serveAddr string

	scanTimeout int

	initForce bool
)

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(adoptCmd)
	rootCmd.AddCommand(removeCmd)

	listCmd.Flags().StringVar(&listFilter, "filter", "", "Case-insensitive filter across all fields")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort column with optional direction, e.g. name or status:desc")
	listCmd.Flags().StringVar(&listGroup, "group", "", "Group by column (overrides the configured grouping; \"none\" disables it)")
	listCmd.Flags().StringVar(&listFormat, "format", "table", "Output format (table, json, yaml)")
	listCmd.Flags().BoolVar(&scanFirst, "scan", false, "Run an mDNS discovery scan before listing")

	dashboardCmd.Flags().BoolVar(&scanFirst, "scan", false, "Run an mDNS discovery scan on startup")
	dashboardCmd.Flags().BoolVar(&watchConfig, "watch", false, "Reload the config file when it changes")
	dashboardCmd.Flags().BoolVar(&rememberView, "remember", false, "Save sort and grouping back to the config file on exit")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "Listen address")
	serveCmd.Flags().BoolVar(&scanFirst, "scan", false, "Run an mDNS discovery scan on startup")
	serveCmd.Flags().BoolVar(&watchConfig, "watch", false, "Reload the config file when it changes")

	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Scan timeout in seconds (default from config)")

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file without asking")
}

// listCmd prints the derived grid once
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List devices",
	Long: `Derive the device grid once and print it.

Configured devices come from the config file. With --scan, nodes found on
the network are merged in, marking configured devices online and adding
unconfigured nodes as discovered.`,
	Example: `  # Table grouped as configured
  devgrid list

  # Only ESP32 devices, newest status first
  devgrid list --filter esp32 --sort status:desc

  # Flat JSON for scripting
  devgrid list --group none --format json`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	inv := inventory.New(reg)

	if scanFirst {
		devices, err := discovery.ScanForDevices(cmd.Context(), reg.DiscoverTimeoutDuration())
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		inv.SetDiscovered(devices)
	}

	columns := inventory.Columns()
	opts := reg.GridOptions()
	g := grid.New(columns, opts)
	g.SetRows(inv.Rows())
	g.SetFilter(listFilter)

	if listSort != "" {
		spec, err := server.ParseSortFlag(listSort)
		if err != nil {
			return err
		}
		g.SetSort(spec)
	}
	if cmd.Flags().Changed("group") {
		if listGroup == "none" {
			listGroup = ""
		}
		g.SetGroupBy(listGroup)
	}

	view := g.View()
	switch listFormat {
	case "table":
		out := cmd.OutOrStdout()
		if ui.IsTerminal(out) {
			return ui.RenderOnce(out, view, columns, false)
		}
		printTable(ui.NewPrinter(out), view, columns, listParams(cmd))
		return nil
	case "json", "yaml":
		return writeListing(cmd.OutOrStdout(), listFormat, newListing(view, columns))
	default:
		return fmt.Errorf("unknown format %q (expected table, json or yaml)", listFormat)
	}
}

// listParams describes the list flags that shaped the view
func listParams(cmd *cobra.Command) map[string]string {
	params := map[string]string{}
	if listFilter != "" {
		params["Filter"] = listFilter
	}
	if listSort != "" {
		params["Sort"] = listSort
	}
	if cmd.Flags().Changed("group") {
		params["Group"] = listGroup
	}
	if scanFirst {
		params["Scan"] = "yes"
	}
	return params
}

// printTable writes a header and the grid for non-interactive output
func printTable(p *ui.Printer, view grid.View, columns []grid.Column, params map[string]string) {
	p.PrintHeader("Devices", "devgrid list", params)
	p.PrintGrid(view, columns, false)
}

// listing is the machine-readable form of a derived view
type listing struct {
	Total   int            `json:"total" yaml:"total"`
	Matched int            `json:"matched" yaml:"matched"`
	Sort    grid.SortSpec  `json:"sort" yaml:"sort"`
	GroupBy string         `json:"groupBy,omitempty" yaml:"group_by,omitempty"`
	Rows    []listingEntry `json:"rows" yaml:"rows"`
}

type listingEntry struct {
	ID     string            `json:"id" yaml:"id"`
	Group  string            `json:"group,omitempty" yaml:"group,omitempty"`
	Fields map[string]string `json:"fields" yaml:"fields"`
}

func newListing(view grid.View, columns []grid.Column) listing {
	out := listing{
		Total:   view.Total,
		Matched: view.Matched,
		Sort:    view.Sort,
		GroupBy: view.GroupBy,
		Rows:    []listingEntry{},
	}
	for _, vr := range view.Rows {
		if vr.Kind != grid.KindData {
			continue
		}
		entry := listingEntry{ID: vr.ID, Group: vr.Group, Fields: make(map[string]string, len(columns))}
		for _, c := range columns {
			entry.Fields[c.Key] = vr.Row.String(c.Key)
		}
		out.Rows = append(out.Rows, entry)
	}
	return out
}

func writeListing(w io.Writer, format string, l listing) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(l)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

// dashboardCmd launches the interactive dashboard
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Launch the interactive dashboard",
	Long: `Launch the interactive terminal dashboard.

Type / to filter, 1-9 to sort by a column, g to change grouping, space to
select and enter to open a device. Press ? for all keys.`,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	inv := inventory.New(reg)

	model := dashboard.New(dashboard.Config{
		Inventory:   inv,
		Options:     reg.GridOptions(),
		Debounce:    reg.DebounceDelay(),
		ScanOnStart: scanFirst,
		ScanTimeout: reg.DiscoverTimeoutDuration(),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if watchConfig {
		go func() {
			err := config.Watch(ctx, reg.Path(), 0, func(updated *config.Registry, err error) {
				p.Send(dashboard.ConfigReloadedMsg{Registry: updated, Err: err})
			})
			if err != nil {
				logging.Warn("Config watch stopped", zap.Error(err))
			}
		}()
	}

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}

	if rememberView {
		if m, ok := final.(dashboard.Model); ok {
			return rememberState(inv.Registry(), m.State())
		}
	}
	return nil
}

// rememberState writes the dashboard's sort, grouping and collapsed groups
// back to the registry file
func rememberState(reg *config.Registry, state dashboard.State) error {
	reg.SetSort(state.Sort)
	reg.SetGroupBy(state.GroupBy)
	reg.SetCollapsed(state.Collapsed)
	if err := reg.Save(); err != nil {
		return fmt.Errorf("failed to save dashboard state: %w", err)
	}
	logging.Info("Dashboard state saved", zap.String("path", reg.Path()))
	return nil
}

// serveCmd runs the WebSocket session server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the device grid over WebSocket",
	Long: `Start the grid session server.

Each WebSocket client on /ws gets its own grid over the shared device
inventory. /api/rows and /api/view serve plain JSON.`,
	Example: `  # Local only
  devgrid serve

  # All interfaces, reload on config edits
  devgrid serve --addr :8080 --watch --log-level info`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	host, portStr, err := net.SplitHostPort(serveAddr)
	if err != nil {
		return fmt.Errorf("invalid --addr %q: %w", serveAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port in --addr %q: %w", serveAddr, err)
	}

	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	inv := inventory.New(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(&server.Config{
		Host:     host,
		Port:     port,
		Columns:  inventory.Columns(),
		Options:  reg.GridOptions(),
		Debounce: reg.DebounceDelay(),
	}, inv)

	if scanFirst {
		timeout := reg.DiscoverTimeoutDuration()
		go scanAndRefresh(ctx, inv, srv, func(ctx context.Context) ([]*discovery.Device, error) {
			return discovery.ScanForDevices(ctx, timeout)
		})
	}

	if watchConfig {
		go func() {
			err := config.Watch(ctx, reg.Path(), 0, reloadAndRefresh(inv, srv))
			if err != nil {
				logging.Warn("Config watch stopped", zap.Error(err))
			}
		}()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving device grid on ws://%s/ws (Ctrl+C to stop)\n", serveAddr)
	return srv.Start(ctx)
}

// scanAndRefresh merges one scan into inv and pushes new views. A failed
// scan is logged and leaves the previous results.
func scanAndRefresh(ctx context.Context, inv *inventory.Inventory, srv *server.Server, scan dashboard.ScanFunc) {
	devices, err := scan(ctx)
	if err != nil {
		logging.Warn("Discovery scan failed", zap.Error(err))
		return
	}
	inv.SetDiscovered(devices)
	srv.Refresh()
}

// reloadAndRefresh returns the config.Watch callback for serve. A registry
// that fails to load is logged and the previous devices stay.
func reloadAndRefresh(inv *inventory.Inventory, srv *server.Server) func(*config.Registry, error) {
	return func(updated *config.Registry, err error) {
		if err != nil {
			logging.Warn("Config reload failed, keeping previous devices", zap.Error(err))
			return
		}
		inv.SetRegistry(updated)
		srv.Refresh()
	}
}

// scanCmd discovers ESPHome nodes on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for ESPHome devices on the network",
	Long: `Scan for ESPHome devices using mDNS/DNS-SD discovery.

This command browses for _esphomelib._tcp services and prints every node
found with its address, platform and firmware version.`,
	Example: `  # Scan using the configured timeout
  devgrid scan

  # Longer scan for busy networks
  devgrid scan --timeout 15`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	timeout := time.Duration(scanTimeout) * time.Second
	if scanTimeout <= 0 {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		timeout = reg.DiscoverTimeoutDuration()
	}

	out := cmd.OutOrStdout()
	printer := ui.NewPrinter(out)
	printer.PrintHeader("Scan", "devgrid scan", map[string]string{
		"Service": discovery.ServiceType,
		"Timeout": timeout.String(),
	})

	devices, err := discovery.ScanForDevices(cmd.Context(), timeout)
	if err := printScanResult(printer, devices, err); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	return nil
}

// errNoDevices is shown when a scan completes with no answers
var errNoDevices = errors.New("no ESPHome devices responded")

var scanTroubleshooting = []string{
	"Ensure the devices are powered on and joined to this network",
	"Check that multicast traffic is not blocked between subnets",
	"Try increasing --timeout for slower networks",
}

// printScanResult prints the devices found, or an error box when the scan
// failed or found nothing. Only a failed scan returns an error.
func printScanResult(p *ui.Printer, devices []*discovery.Device, err error) error {
	if err != nil {
		p.PrintError("Discovery scan", err, scanTroubleshooting)
		return err
	}
	if len(devices) == 0 {
		p.PrintError("No devices found", errNoDevices, scanTroubleshooting)
		return nil
	}

	p.Println(fmt.Sprintf("Found %d device(s):", len(devices)))
	p.Newline()
	for i, d := range devices {
		p.Println(fmt.Sprintf("%d. %s", i+1, d.DisplayName()))
		p.Println("   Address:  " + d.Address())
		if d.Platform != "" {
			p.Println(fmt.Sprintf("   Platform: %s %s", d.Platform, d.Board))
		}
		if d.Version != "" {
			p.Println("   Version:  " + d.Version)
		}
		p.Newline()
	}
	return nil
}

// adoptCmd takes control of a discovered node
var adoptCmd = &cobra.Command{
	Use:   "adopt NAME",
	Short: "Add a discovered device to the config file",
	Long: `Wait for the named node to answer on mDNS and copy its platform,
board, address and firmware version into the config file. The device then
appears under "Your devices".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		name := args[0]

		device, err := discovery.FindDevice(cmd.Context(), name)
		if err != nil {
			ui.NewPrinter(cmd.ErrOrStderr()).PrintError("Adopt "+name, err, scanTroubleshooting)
			return err
		}

		inv := inventory.New(reg)
		inv.SetDiscovered([]*discovery.Device{device})
		return runDeviceAction(cmd, inv, inventory.ActionAdopt, name)
	},
}

// removeCmd deletes a configured device
var removeCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a device from the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		return runDeviceAction(cmd, inventory.New(reg), inventory.ActionRemove, args[0])
	},
}

func runDeviceAction(cmd *cobra.Command, inv *inventory.Inventory, action, name string) error {
	if err := inv.Do(action, name); err != nil {
		return err
	}
	logging.Info("Device action applied", zap.String("id", name), zap.String("action", action))
	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Config updated", map[string]string{
		"Device": name,
		"Action": action,
		"Path":   inv.Registry().Path(),
	})
	return nil
}

// initCmd writes a starter config file
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			path, err = config.GetConfigPath()
			if err != nil {
				return fmt.Errorf("failed to resolve config path: %w", err)
			}
		}
		if _, err := os.Stat(path); err == nil && !initForce {
			if !ui.ConfirmOverwrite(cmd.InOrStdin(), cmd.OutOrStdout(), path) {
				return nil
			}
		}
		if err := config.CreateDefaultConfig(path); err != nil {
			return err
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Config file created", map[string]string{"Path": path})
		return nil
	},
}
