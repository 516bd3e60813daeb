package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/klipmi/internal/config"
	"github.com/muurk/klipmi/internal/discovery"
	"github.com/muurk/klipmi/internal/ui"
	"github.com/muurk/klipmi/internal/urls"
)

// Scan command flags
var (
	scanTimeout int
	scanSave    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find Moonraker instances on the network",
	Long: `Find Moonraker instances using mDNS/DNS-SD discovery.

Both _moonraker._tcp announcements and _http._tcp services whose name
mentions moonraker are listed. With --save the first printer found is
written to the config file as moonraker.host and moonraker.port.`,
	Example: `  # Scan for 5 seconds (default)
  klipmi scan

  # Longer scan, then use the result
  klipmi scan --timeout 15 --save`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 5, "Scan timeout in seconds")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "Write the first printer found to the config file")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	out := ui.NewPrinter(cmd.OutOrStdout())
	out.Header("Printer scan", fmt.Sprintf("klipmi scan --timeout %d", scanTimeout))

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second
	printers, err := scanner.Scan(cmd.Context())
	if err != nil {
		out.Report(ui.Failure("Scan failed", err))
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(printers) == 0 {
		out.Report(ui.Warning("No printers found"))
		fmt.Fprintln(cmd.OutOrStdout(), "\nTroubleshooting:")
		fmt.Fprintln(cmd.OutOrStdout(), "  - Enable [zeroconf] in moonraker.conf: "+urls.MoonrakerZeroconf)
		fmt.Fprintln(cmd.OutOrStdout(), "  - Check that this host is on the printer's network")
		fmt.Fprintln(cmd.OutOrStdout(), "  - Try increasing --timeout")
		return nil
	}

	rows := make([][]string, 0, len(printers))
	for _, p := range printers {
		rows = append(rows, []string{p.Name, p.Host(), formatMetadata(p.Metadata)})
	}
	out.Table([]string{"NAME", "ADDRESS", "METADATA"}, rows)

	if !scanSave {
		return nil
	}
	path := configPath
	if path == "" {
		if path, err = config.GetConfigPath(); err != nil {
			return err
		}
	}
	first := printers[0]
	cfg.Moonraker.Host = first.IP
	cfg.Moonraker.Port = first.Port
	if err := cfg.Save(path); err != nil {
		return err
	}
	out.Report(ui.Success("Saved printer",
		ui.Detail{Key: "Printer", Value: first.Name},
		ui.Detail{Key: "Address", Value: first.Host()},
		ui.Detail{Key: "Config", Value: path},
	))
	return nil
}

func formatMetadata(md map[string]string) string {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + md[k]
	}
	return strings.Join(parts, " ")
}
