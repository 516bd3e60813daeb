package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/klipmi/internal/app"
	"github.com/muurk/klipmi/internal/discovery"
	"github.com/muurk/klipmi/internal/logging"
	"github.com/muurk/klipmi/internal/serial"
	"github.com/muurk/klipmi/internal/urls"
)

// Run command flags
var (
	runDevice   string
	runBaud     int
	runHost     string
	runPort     int
	runListen   string
	runDiscover bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive the touchscreen",
	Long: `Open the display's serial port, connect to Moonraker and run the page
state machine until interrupted.

Flags override the matching config keys. With --discover the first
Moonraker instance announced over mDNS is used instead of moonraker.host.
When --listen (or api.listen) is set, a debug API is served on that
address: GET /api/state, GET /api/pages, POST /api/touch,
POST /api/numeric, POST /api/page/:id and the /api/events websocket.

Printer commands use the Moonraker websocket API:
` + urls.MoonrakerAPI,
	Example: `  # Run with the config file settings
  klipmi run

  # Printer on another host, debug API on port 8080
  klipmi run --host voron.local --listen :8080

  # Find Moonraker on the LAN
  klipmi run --discover --log-level debug`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runDevice, "device", "", "Serial device of the display (overrides display.device)")
	runCmd.Flags().IntVar(&runBaud, "baud", 0, "Display baud rate (overrides display.baud)")
	runCmd.Flags().StringVar(&runHost, "host", "", "Moonraker host (overrides moonraker.host)")
	runCmd.Flags().IntVar(&runPort, "port", 0, "Moonraker port (overrides moonraker.port)")
	runCmd.Flags().StringVar(&runListen, "listen", "", "Debug API address (overrides api.listen)")
	runCmd.Flags().BoolVar(&runDiscover, "discover", false, "Locate Moonraker with mDNS")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Display.Device = runDevice
	}
	if flags.Changed("baud") {
		cfg.Display.Baud = runBaud
	}
	if flags.Changed("host") {
		cfg.Moonraker.Host = runHost
	}
	if flags.Changed("port") {
		cfg.Moonraker.Port = runPort
	}
	if flags.Changed("listen") {
		cfg.API.Listen = runListen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runDiscover {
		printer, err := discovery.NewScanner().First(ctx)
		if err != nil {
			return fmt.Errorf("discovery failed (is zeroconf enabled? see %s): %w", urls.MoonrakerZeroconf, err)
		}
		logging.Info("Discovered Moonraker", zap.String("printer", printer.String()))
		cfg.Moonraker.Host = printer.IP
		cfg.Moonraker.Port = printer.Port
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	port, err := serial.Open(&serial.Config{Device: cfg.Display.Device, Baud: cfg.Display.Baud})
	if err != nil {
		return err
	}

	a, err := app.New(cfg, port)
	if err != nil {
		_ = port.Close()
		return err
	}
	return runUntilSignal(ctx, a.Run)
}

// runUntilSignal runs fn and reports a clean exit when the user stopped it
func runUntilSignal(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)
	if ctx.Err() != nil {
		logging.Info("Shutting down")
		return nil
	}
	return err
}
