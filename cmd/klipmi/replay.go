package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/klipmi/internal/app"
	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/openp4"
	"github.com/muurk/klipmi/internal/replay"
	"github.com/muurk/klipmi/internal/ui"
)

var replayQuiet bool

var replayCmd = &cobra.Command{
	Use:   "replay <script>...",
	Short: "Run event scripts against the page state machine",
	Long: `Run event scripts against the page state machine with a simulated
panel and printer, then list the commands the printer received.

Each script starts from a fresh engine on the configured initial page
with an idle, ready printer. A failing expect step stops the script and
makes the command exit non-zero. See 'klipmi simulate --help' for the
script commands.`,
	Example: `  # Check the bed heater flow
  klipmi replay testdata/heat-bed.txt

  # Only report pass/fail
  klipmi replay --quiet scripts/*.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVarP(&replayQuiet, "quiet", "q", false, "Do not list printer commands")

	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	pages, err := app.ResolveUI(cfg.UI, nil)
	if err != nil {
		return err
	}

	out := ui.NewPrinter(cmd.OutOrStdout())
	failed := 0
	for _, path := range args {
		cmds, err := replayFile(cmd.Context(), pages, path)
		if err != nil {
			failed++
			out.Report(ui.Failure(path, err))
			continue
		}
		out.Report(ui.Success(path, ui.Detail{Key: "Commands", Value: strconv.Itoa(len(cmds))}))
		if !replayQuiet && len(cmds) > 0 {
			rows := make([][]string, len(cmds))
			for i, c := range cmds {
				rows[i] = []string{strconv.Itoa(i + 1), c}
			}
			out.Table([]string{"#", "COMMAND"}, rows)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(args))
	}
	return nil
}

// replayFile runs one script and returns what the printer was sent
func replayFile(ctx context.Context, pages app.UI, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	steps, err := replay.Parse(f)
	if err != nil {
		return nil, err
	}

	screen := ui.NewScreen()
	recorder := &replay.Recorder{}
	engine, err := openp4.NewEngine(screen, recorder, pages.Config)
	if err != nil {
		return nil, err
	}
	screen.UsePages(engine.Registry())
	loop := hmi.NewLoop(engine, 0)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	runner := replay.NewRunner(loop, engine, screen, openp4.IdleSnapshot())
	if err := loop.Navigate(ctx, pages.Initial); err != nil {
		return nil, err
	}
	if err := loop.Do(ctx, "replay ready", openp4.OnReady); err != nil {
		return nil, err
	}
	runErr := runner.Run(ctx, steps)

	cancel()
	if loopErr := <-done; loopErr != nil && !errors.Is(loopErr, context.Canceled) && runErr == nil {
		runErr = loopErr
	}
	return recorder.Commands(), runErr
}
