// Devgrid is a dashboard for ESPHome devices.
//
// It merges the configured device inventory with nodes discovered over
// mDNS and presents them in a filterable, sortable, groupable grid, either
// as an interactive terminal dashboard, a one-shot listing, or a WebSocket
// session server for browser clients.
//
// Usage:
//
//	devgrid [command] [flags]
//
// Running without arguments launches the dashboard.
// See 'devgrid --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/devgrid/internal/config"
	"github.com/muurk/devgrid/internal/logging"
	"github.com/muurk/devgrid/internal/version"
)

// Global flags
var (
	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.Sync()
}

var rootCmd = &cobra.Command{
	Use:   "devgrid",
	Short: "ESPHome Device Dashboard",
	Long: `A dashboard for ESPHome devices.

Configured devices are read from the devgrid config file and merged with
nodes discovered on the local network. The result can be browsed in an
interactive dashboard, printed once with 'list', or served to browser
clients over WebSocket with 'serve'.

If no command is specified, the interactive dashboard will launch automatically.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the dashboard when no subcommand provided
		return runDashboard(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/devgrid/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); logs go to stderr")

	rootCmd.AddCommand(versionCmd)
}

// loadRegistry loads the registry named by --config, or the default one
func loadRegistry() (*config.Registry, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	path, err := config.GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	return config.LoadFrom(path)
}
