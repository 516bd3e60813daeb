package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/klipmi/internal/app"
	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/moonraker"
	"github.com/muurk/klipmi/internal/openp4"
	"github.com/muurk/klipmi/internal/replay"
	"github.com/muurk/klipmi/internal/server"
	"github.com/muurk/klipmi/internal/ui"
	"github.com/muurk/klipmi/internal/urls"
)

// Simulate command flags
var (
	simLive   bool
	simListen string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the page state machine against a terminal panel",
	Long: `Run the page state machine with an in-memory panel drawn in the
terminal instead of the serial display.

Type replay commands at the prompt to press buttons, enter numbers, type
into text fields or change telemetry:

  touch 5                         press component 5 on the current page
  touch 35 14                     press component 14 on page 35
  numeric 7 42                    keypad field 7 reports 42
  input input.txt 60              type 60 into input.txt
  telemetry extruder.target=210   update printer status
  page control                    jump to a page by name or id
  sleep                           the panel goes to sleep

Without --live the printer is simulated: it starts idle and ready, and
every command the pages send is shown in the log. With --live telemetry
comes from Moonraker and commands are sent to the real printer.

Telemetry objects and fields are those of Klipper's status reference:
` + urls.KlipperStatusReference,
	Example: `  # Offline simulator
  klipmi simulate

  # Against the real printer, debug API on :8080
  klipmi simulate --live --listen :8080`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().BoolVar(&simLive, "live", false, "Connect to Moonraker instead of simulating the printer")
	simulateCmd.Flags().StringVar(&simListen, "listen", "", "Also serve the debug API on this address")

	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	pages, err := app.ResolveUI(cfg.UI, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	screen := ui.NewScreen()
	recorder := &replay.Recorder{}

	var loop *hmi.Loop
	var client *moonraker.Client
	var printer hmi.Printer = recorder
	if simLive {
		post := func(name string, fn func(context.Context, *hmi.Engine) error) func() {
			return func() { _ = loop.Post(gctx, name, fn) }
		}
		client = moonraker.NewClient(moonraker.Options{
			Host:              cfg.Moonraker.Host,
			Port:              cfg.Moonraker.Port,
			APIKey:            cfg.Moonraker.APIKey,
			ReconnectInterval: cfg.Moonraker.ReconnectInterval,
			Objects:           openp4.Objects(),
		}, moonraker.Handlers{
			OnStatus:       func(snap hmi.Snapshot) { _ = loop.Telemetry(gctx, snap) },
			OnReady:        post("klipper ready", openp4.OnReady),
			OnNotReady:     post("klipper not ready", openp4.OnNotReady),
			OnKlipperError: post("klipper error", openp4.OnKlipperError),
		})
		printer = client
	}

	engine, err := openp4.NewEngine(screen, printer, pages.Config)
	if err != nil {
		return err
	}
	screen.UsePages(engine.Registry())
	loop = hmi.NewLoop(engine, 0)

	var api *server.Server
	if simListen != "" {
		api = server.New(loop, engine)
	}

	simCfg := ui.SimulatorConfig{
		Screen:   screen,
		Runner:   replay.NewRunner(loop, engine, screen, openp4.IdleSnapshot()),
		Registry: engine.Registry(),
	}
	if !simLive {
		simCfg.Recorder = recorder
	}

	g.Go(func() error { return loop.Run(gctx) })

	if err := loop.Navigate(gctx, pages.Initial); err != nil {
		return err
	}
	if simLive {
		g.Go(func() error { return client.Run(gctx) })
	} else {
		_ = loop.Post(gctx, "simulated ready", openp4.OnReady)
		_ = loop.Telemetry(gctx, openp4.IdleSnapshot())
	}
	if api != nil {
		g.Go(func() error { return api.Serve(gctx, simListen) })
	}

	g.Go(func() error {
		// Quitting the simulator stops everything else
		defer stop()
		return ui.RunSimulator(gctx, simCfg)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("simulator: %w", err)
	}
	return nil
}
