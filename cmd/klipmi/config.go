package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/klipmi/internal/config"
	"github.com/muurk/klipmi/internal/ui"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	Long: `Write a configuration file holding the default settings, merged with
any KLIPMI_ environment overrides currently set. An existing file is only
replaced with --force.`,
	Example: `  # Create $XDG_CONFIG_HOME/klipmi/config.yaml
  klipmi config init

  # Create a config for a printer at another address
  KLIPMI_MOONRAKER_HOST=voron.local klipmi config init --config ./klipmi.yaml`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration klipmi would run with: the file, defaults and
KLIPMI_ environment overrides combined.`,
	RunE: runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	ui.NewPrinter(cmd.OutOrStdout()).Report(ui.Success("Config written",
		ui.Detail{Key: "Path", Value: path},
		ui.Detail{Key: "Display", Value: cfg.Display.Device},
		ui.Detail{Key: "Moonraker", Value: fmt.Sprintf("%s:%d", cfg.Moonraker.Host, cfg.Moonraker.Port)},
	))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
