package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/klipmi/internal/app"
	"github.com/muurk/klipmi/internal/config"
	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/openp4"
	"github.com/muurk/klipmi/internal/ui"
	"github.com/muurk/klipmi/internal/urls"
)

// tablePath is a page table file to use instead of the embedded one
var tablePath string

// loadTable returns the page table named by --table, or nil for the
// embedded one
func loadTable() (*openp4.PageTable, error) {
	if tablePath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(tablePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read page table: %w", err)
	}
	return openp4.LoadPageTable(data)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and page table",
	Long: `Check the configuration and the page table without touching the
display or the printer.

Every config key is validated, page references in the ui section must
name pages of the table, and the page table must register cleanly with
every transition target present.`,
	Example: `  # Check the default config and the embedded page table
  klipmi validate

  # Check a page table being edited
  klipmi validate --table ./pages.yaml`,
	RunE: runValidate,
}

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List the pages of the page table",
	Example: `  # List every page with its outgoing transitions
  klipmi pages

  # Pages of a custom table
  klipmi pages --table ./pages.yaml`,
	RunE: runPages,
}

func init() {
	validateCmd.Flags().StringVar(&tablePath, "table", "", "Page table file (default: embedded table)")
	pagesCmd.Flags().StringVar(&tablePath, "table", "", "Page table file (default: embedded table)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(pagesCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := ui.NewPrinter(cmd.OutOrStdout())
	out.Header("Validate", "klipmi validate")

	path := configPath
	if path == "" {
		path, _ = config.GetConfigPath()
	}

	reg, err := checkAll()
	if err != nil {
		out.Report(ui.Failure("Validation failed", err,
			"run 'klipmi config show' to see the effective settings",
			"page references accept a firmware name or a numeric id",
			"moonraker.api_key is only needed outside trusted_clients: "+urls.MoonrakerAuthorization))
		return fmt.Errorf("validation failed")
	}

	table := "embedded"
	if tablePath != "" {
		table = tablePath
	}
	out.Report(ui.Success("Configuration is valid",
		ui.Detail{Key: "Config", Value: path},
		ui.Detail{Key: "Page table", Value: table},
		ui.Detail{Key: "Pages", Value: strconv.Itoa(reg.Len())},
		ui.Detail{Key: "Display", Value: fmt.Sprintf("%s @ %d", cfg.Display.Device, cfg.Display.Baud)},
		ui.Detail{Key: "Moonraker", Value: fmt.Sprintf("%s:%d", cfg.Moonraker.Host, cfg.Moonraker.Port)},
	))
	return nil
}

// checkAll validates the config and the page table together
func checkAll() (*hmi.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table, err := loadTable()
	if err != nil {
		return nil, err
	}
	pages, err := app.ResolveUI(cfg.UI, table)
	if err != nil {
		return nil, err
	}
	reg, err := openp4.NewRegistry(pages.Config)
	if err != nil {
		return nil, err
	}
	opts := openp4.EngineOptions()
	errs := reg.Validate(opts.MainPage, opts.SleepPage, opts.ConflictPage, opts.KeypadPage, opts.SleepTrigger)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return reg, nil
}

func runPages(cmd *cobra.Command, args []string) error {
	table, err := loadTable()
	if err != nil {
		return err
	}
	pages, err := app.ResolveUI(config.UIConfig{}, table)
	if err != nil {
		return err
	}
	reg, err := openp4.NewRegistry(pages.Config)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, reg.Len())
	for _, page := range reg.Pages() {
		id := page.Identity()
		var targets []string
		if linker, ok := page.(hmi.Linker); ok {
			for _, t := range linker.Targets() {
				targets = append(targets, strconv.Itoa(int(t)))
			}
		}
		kind := "page"
		if _, ok := page.(hmi.Interrupter); ok {
			kind = "interrupt"
		}
		rows = append(rows, []string{strconv.Itoa(int(id.ID)), id.Name, kind, strings.Join(targets, " ")})
	}

	ui.NewPrinter(cmd.OutOrStdout()).Table([]string{"ID", "NAME", "KIND", "TARGETS"}, rows)
	return nil
}
