// Package logging provides structured logging for the klipmi host.
//
// This package wraps a zap logger with convenience functions for the
// logging patterns used throughout the host: page navigation, display
// events, printer calls and raw serial traffic.
//
// # Log Levels
//
//   - Debug: serial hex dumps, every display event
//   - Info: page changes, printer calls, connection state
//   - Warn: recoverable issues (stale return page, skipped render passes)
//   - Error: failed printer calls, transport failures
//
// # Configuration
//
// Initialize logging at startup. An empty level falls back to the
// KLIPMI_LOG_LEVEL environment variable; if that is unset too, logging is
// silent:
//
//	if err := logging.Initialize(cfg.Log.Level); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// # Domain Helpers
//
//	logging.LogPageChange("main", "keybdB")
//	logging.LogDisplayEvent("touch", 3, 4, 0)
//	logging.LogPrinterCall("printer.gcode.script", "G28")
//	logging.LogRawBytes("serial rx", frame)
//
// Output goes to stderr so that commands printing results to stdout stay
// scriptable.
package logging
