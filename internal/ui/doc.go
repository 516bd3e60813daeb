// Package ui provides the terminal front ends of the klipmi CLI.
//
// Two kinds of component live here:
//
//   - Reports: headers, result boxes and tables that one-shot commands
//     (validate, pages, scan, config) print before exiting.
//   - The simulator: a Bubble Tea program that drives the page engine
//     against an in-memory Screen instead of a serial panel.
//
// # Simulator
//
// Screen implements the same display calls as the Nextion transport. It
// keeps the loaded page and the fields written since, and signals every
// change on a channel the simulator watches. Commands typed at the prompt
// use the replay script language:
//
//	page main
//	touch 5
//	input input.txt 60
//	touch 31
//	telemetry print_stats.state=printing
//
// When the printer is a replay.Recorder, each command it receives is
// echoed into the log panel.
//
// # Logging Integration
//
// zap logging is silent unless KLIPMI_LOG_LEVEL is set, so curated output
// is not interleaved with log lines. The simulator runs on the alternate
// screen; log to a file when debugging it.
package ui
