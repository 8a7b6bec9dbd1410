// Package logging provides structured logging for devgrid.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used across the dashboard, the session server and discovery.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: grid events (sort, selection, activation), debounced filters
//   - Info: sessions opening/closing, scans, config reloads
//   - Warn: non-fatal issues (scan failures, bad client messages)
//   - Error: startup failures
//
// # Structured Logging
//
// All log functions use structured fields:
//
//	logging.Info("Session event",
//	    zap.String("session_id", id),
//	    zap.String("remote_addr", "192.168.1.100"),
//	)
//
// # Specialized Logging
//
//	logging.LogGridEvent("dashboard", "sort-changed", zap.String("column", "status"))
//	logging.LogSession(id, remoteAddr, "opened")
//	logging.LogScan("_esphomelib._tcp", len(devices), err)
//	logging.LogConfigReload(path, err)
//
// # Configuration
//
// Logging is silent unless a level is given or DEVGRID_LOG_LEVEL is set:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Output goes to stderr so it never interleaves with table output or the
// terminal dashboard on stdout.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once initialized.
package logging
