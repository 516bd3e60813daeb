// Klipmi drives the OpenP4 touchscreen from Klipper via Moonraker.
//
// It reads touch events from the Nextion panel on a serial port, runs them
// through the page state machine and sends the resulting G-code to the
// printer, while painting printer telemetry back onto the panel.
//
// Usage:
//
//	klipmi [command] [flags]
//
// See 'klipmi --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/klipmi/internal/config"
	"github.com/muurk/klipmi/internal/logging"
	"github.com/muurk/klipmi/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
)

// cfg is loaded before any command runs
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "klipmi",
	Short: "OpenP4 touchscreen host for Klipper",
	Long: `Klipmi runs the OpenP4 Nextion touchscreen against a Klipper printer.

The panel firmware only draws pages; klipmi decides which page to show,
turns button presses into G-code sent through Moonraker and paints
printer telemetry onto the panel.

Configuration is read from $XDG_CONFIG_HOME/klipmi/config.yaml unless
--config is given. Every key can be overridden with a KLIPMI_ environment
variable, e.g. KLIPMI_MOONRAKER_HOST.`,
	Version:       version.Full(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		level := logLevel
		if level == "" {
			level = cfg.Log.Level
		}
		return logging.Initialize(level)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/klipmi/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides log.level")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("klipmi %s (HMI %d.%d.%d)\n", version.Full(), version.HMIMajor, version.HMIMinor, version.HMIPatch)
	},
}
