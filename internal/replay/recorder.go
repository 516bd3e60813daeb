package replay

import (
	"context"
	"sync"

	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/moonraker"
)

// Recorder is a printer that records the commands it is given in the
// form they would reach Klipper.
type Recorder struct {
	mu       sync.Mutex
	commands []string
}

func (r *Recorder) add(cmd string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	return nil
}

// Commands returns everything recorded so far
func (r *Recorder) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}

func (r *Recorder) RunGcode(_ context.Context, script string) error {
	return r.add(script)
}

func (r *Recorder) RunMacro(_ context.Context, name string, params map[string]any) error {
	return r.add(moonraker.FormatMacro(name, params))
}

// TogglePin records the pin only; the value sent depends on live printer state.
func (r *Recorder) TogglePin(_ context.Context, pin string) error {
	return r.add("SET_PIN PIN=" + pin + " VALUE=<toggle>")
}

func (r *Recorder) EmergencyStop(context.Context) error {
	return r.add("<printer.emergency_stop>")
}

func (r *Recorder) PausePrint(context.Context) error {
	return r.add("<printer.print.pause>")
}

func (r *Recorder) Restart(context.Context) error {
	return r.add("<printer.restart>")
}

func (r *Recorder) FirmwareRestart(context.Context) error {
	return r.add("<printer.firmware_restart>")
}

var _ hmi.Printer = (*Recorder)(nil)
