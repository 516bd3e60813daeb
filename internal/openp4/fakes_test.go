package openp4

import (
	"context"
	"fmt"
	"testing"

	"github.com/muurk/klipmi/internal/hmi"
)

type fakeDisplay struct {
	fields   map[string]string
	sets     map[string]any
	commands []string
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{fields: map[string]string{}, sets: map[string]any{}}
}

func (d *fakeDisplay) Get(_ context.Context, field string) (string, error) {
	v, ok := d.fields[field]
	if !ok {
		return "", hmi.NewFieldUnavailableError(field, nil)
	}
	return v, nil
}

func (d *fakeDisplay) Set(_ context.Context, field string, value any) error {
	d.sets[field] = value
	return nil
}

func (d *fakeDisplay) Command(_ context.Context, raw string) error {
	d.commands = append(d.commands, raw)
	return nil
}

type fakePrinter struct {
	calls []string
}

func (p *fakePrinter) record(format string, args ...any) error {
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
	return nil
}

func (p *fakePrinter) RunGcode(_ context.Context, script string) error {
	return p.record("gcode %s", script)
}

func (p *fakePrinter) RunMacro(_ context.Context, name string, params map[string]any) error {
	return p.record("macro %s %v", name, params)
}

func (p *fakePrinter) TogglePin(_ context.Context, pin string) error {
	return p.record("toggle %s", pin)
}

func (p *fakePrinter) EmergencyStop(context.Context) error   { return p.record("estop") }
func (p *fakePrinter) PausePrint(context.Context) error      { return p.record("pause") }
func (p *fakePrinter) Restart(context.Context) error         { return p.record("restart") }
func (p *fakePrinter) FirmwareRestart(context.Context) error { return p.record("firmware_restart") }

type fixture struct {
	t       *testing.T
	ctx     context.Context
	engine  *hmi.Engine
	display *fakeDisplay
	printer *fakePrinter
}

// newFixture builds the OpenP4 engine with Klipper ready and the given
// page shown.
func newFixture(t *testing.T, start hmi.PageID, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		display: newFakeDisplay(),
		printer: &fakePrinter{},
	}
	engine, err := NewEngine(f.display, f.printer, cfg)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	f.engine = engine
	engine.State().SetPrinterState("ready")
	if err := engine.ChangePage(f.ctx, start); err != nil {
		t.Fatalf("ChangePage(%d) error = %v", start, err)
	}
	return f
}

func (f *fixture) touch(component int) {
	f.t.Helper()
	f.touchOn(f.currentID(), component)
}

func (f *fixture) touchOn(page hmi.PageID, component int) {
	f.t.Helper()
	if err := f.engine.DispatchTouch(f.ctx, page, component); err != nil {
		f.t.Fatalf("DispatchTouch(%d, %d) error = %v", page, component, err)
	}
}

func (f *fixture) numeric(component, value int) {
	f.t.Helper()
	if err := f.engine.DispatchNumericInput(f.ctx, component, value); err != nil {
		f.t.Fatalf("DispatchNumericInput(%d, %d) error = %v", component, value, err)
	}
}

func (f *fixture) telemetry(snap hmi.Snapshot) {
	f.t.Helper()
	if err := f.engine.DispatchTelemetry(f.ctx, snap); err != nil {
		f.t.Fatalf("DispatchTelemetry() error = %v", err)
	}
}

func (f *fixture) currentID() hmi.PageID {
	cur, ok := f.engine.Current()
	if !ok {
		f.t.Fatalf("no current page")
	}
	return cur.ID
}

func (f *fixture) wantPage(want hmi.PageID) {
	f.t.Helper()
	if got := f.currentID(); got != want {
		f.t.Errorf("current page = %d, want %d", got, want)
	}
}

func (f *fixture) wantCalls(want ...string) {
	f.t.Helper()
	if len(f.printer.calls) != len(want) {
		f.t.Fatalf("printer calls = %q, want %q", f.printer.calls, want)
	}
	for i := range want {
		if f.printer.calls[i] != want[i] {
			f.t.Errorf("printer call %d = %q, want %q", i, f.printer.calls[i], want[i])
		}
	}
}

// snapshot returns a telemetry snapshot with every core object present
func snapshot(state string) hmi.Snapshot {
	return hmi.Snapshot{
		objStats:    {"state": state, "print_duration": 0.0},
		objExtruder: {"temperature": 24.6, "target": 0.0},
		objBed:      {"temperature": 22.1, "target": 0.0},
		objChamber:  {"temperature": 21.0, "target": 0.0},
	}
}
