package hmi

import (
	"context"
	"errors"
	"fmt"

	"github.com/muurk/klipmi/internal/logging"
	"go.uber.org/zap"
)

// Options names the pages the shared helpers navigate to.
type Options struct {
	// MainPage is the fail-closed target when an interrupt page has
	// nothing to resume.
	MainPage PageID
	// SleepPage is shown by InterceptSleep.
	SleepPage PageID
	// ConflictPage is shown by CheckConflict when the printer is busy.
	ConflictPage PageID
	// KeypadPage is the numeric entry page used by BeginHeaterEdit.
	KeypadPage PageID
	// SleepTrigger is the page id the display reports when its sleep
	// timer fired.
	SleepTrigger PageID
	// NavBar maps bottom bar component ids to section pages.
	NavBar NavBar
}

func (o Options) required() []PageID {
	ids := []PageID{o.MainPage, o.SleepPage, o.ConflictPage, o.KeypadPage}
	ids = append(ids, o.NavBar.Targets()...)
	return ids
}

// PageChange is passed to page change observers.
type PageChange struct {
	From PageIdentity
	To   PageIdentity
}

// Engine owns the current page and dispatches display events and printer
// telemetry to it.
//
// Engine is not safe for concurrent use. All calls must come from a single
// goroutine; Loop provides that serialisation for concurrent producers.
type Engine struct {
	registry  *Registry
	state     *SharedState
	display   Display
	printer   *PrinterCalls
	opts      Options
	observers []func(PageChange)
}

// NewEngine creates an engine over a populated registry. It runs the
// registry validation pass and fails if any page target or any page named
// in opts is not registered.
func NewEngine(registry *Registry, display Display, printer Printer, opts Options) (*Engine, error) {
	if registry == nil || display == nil || printer == nil {
		return nil, fmt.Errorf("registry, display and printer are required")
	}
	if errs := registry.Validate(opts.required()...); len(errs) > 0 {
		return nil, fmt.Errorf("page registry validation failed: %w", errors.Join(errs...))
	}

	return &Engine{
		registry: registry,
		state:    NewSharedState(),
		display:  display,
		printer:  &PrinterCalls{printer: printer},
		opts:     opts,
	}, nil
}

// State returns the shared state
func (e *Engine) State() *SharedState { return e.state }

// Display returns the display collaborator
func (e *Engine) Display() Display { return e.display }

// Printer returns the fire-and-forget printer facade
func (e *Engine) Printer() *PrinterCalls { return e.printer }

// Registry returns the page registry
func (e *Engine) Registry() *Registry { return e.registry }

// Options returns the engine options
func (e *Engine) Options() Options { return e.opts }

// OnPageChange registers fn to be called after every page switch, before
// the new page's OnEnter runs.
func (e *Engine) OnPageChange(fn func(PageChange)) {
	e.observers = append(e.observers, fn)
}

// Current returns the current page identity
func (e *Engine) Current() (PageIdentity, bool) {
	return e.state.Current()
}

// ChangePage makes target the current page. The display is switched first,
// then the state is updated, then the page's OnEnter runs to completion.
//
// Entering a page that is not an Interrupter drops any saved return page
// and heater edit: nothing on a regular page can resume them.
func (e *Engine) ChangePage(ctx context.Context, target PageID) error {
	page, err := e.registry.Lookup(target)
	if err != nil {
		return err
	}
	to := page.Identity()
	from, _ := e.state.Current()

	if err := e.display.Command(ctx, to.Instruction()); err != nil {
		return fmt.Errorf("failed to show page %s: %w", to, err)
	}

	if !isInterrupt(page) {
		e.state.ClearReturnPage()
		e.state.ClearHeaterEdit()
	}
	e.state.setCurrent(to)
	logging.LogPageChange(from.Name, to.Name)

	for _, fn := range e.observers {
		fn(PageChange{From: from, To: to})
	}

	if err := page.OnEnter(ctx, e); err != nil {
		return fmt.Errorf("failed to enter page %s: %w", to, err)
	}
	return nil
}

func (e *Engine) currentPage() (Page, error) {
	cur, ok := e.state.Current()
	if !ok {
		return nil, &NavError{
			Type:    ErrTypeNoCurrentPage,
			Message: "no page has been shown yet",
			PageID:  -1,
		}
	}
	return e.registry.Lookup(cur.ID)
}

// DispatchTouch forwards a touch to the current page. pageID is the page
// the display reported with the touch.
func (e *Engine) DispatchTouch(ctx context.Context, pageID PageID, componentID int) error {
	logging.LogDisplayEvent("touch", int(pageID), componentID, 0)
	page, err := e.currentPage()
	if err != nil {
		return err
	}
	return page.OnEvent(ctx, e, Event{
		Kind:        EventTouch,
		PageID:      pageID,
		ComponentID: componentID,
	})
}

// DispatchNumericInput forwards a numeric entry to the current page
func (e *Engine) DispatchNumericInput(ctx context.Context, componentID, value int) error {
	logging.LogDisplayEvent("numeric", -1, componentID, value)
	page, err := e.currentPage()
	if err != nil {
		return err
	}
	cur, _ := e.state.Current()
	return page.OnEvent(ctx, e, Event{
		Kind:        EventNumericInput,
		PageID:      cur.ID,
		ComponentID: componentID,
		Value:       value,
	})
}

// DispatchTelemetry stores snap as the latest telemetry and lets the
// current page render it. Snapshots missing a core object are stored but
// not rendered; the screen keeps the previous values until the next tick.
func (e *Engine) DispatchTelemetry(ctx context.Context, snap Snapshot) error {
	e.state.telemetry = snap
	if ws := snap.WebhooksState(); ws != "" {
		e.state.SetPrinterState(ws)
	}

	if _, ok := e.state.Current(); !ok {
		return nil
	}
	page, err := e.currentPage()
	if err != nil {
		return err
	}

	if err := snap.CheckCore(); err != nil {
		logging.Warn("Skipping render pass", zap.Error(err))
		return nil
	}
	return page.OnTelemetry(ctx, e, snap)
}

// PrinterCalls wraps the printer collaborator for page handlers. Calls are
// fire-and-forget: failures are logged, never returned to the page.
type PrinterCalls struct {
	printer Printer
}

func (c *PrinterCalls) report(method, detail string, err error) {
	if err != nil {
		logging.Error("Printer call failed",
			zap.String("method", method),
			zap.String("detail", detail),
			zap.Error(err),
		)
		return
	}
	logging.LogPrinterCall(method, detail)
}

// RunGcode sends a gcode script
func (c *PrinterCalls) RunGcode(ctx context.Context, script string) {
	c.report("gcode", script, c.printer.RunGcode(ctx, script))
}

// RunMacro runs a gcode macro with named parameters
func (c *PrinterCalls) RunMacro(ctx context.Context, name string, params map[string]any) {
	c.report("macro", name, c.printer.RunMacro(ctx, name, params))
}

// TogglePin flips an output pin
func (c *PrinterCalls) TogglePin(ctx context.Context, pin string) {
	c.report("toggle_pin", pin, c.printer.TogglePin(ctx, pin))
}

// EmergencyStop halts the printer
func (c *PrinterCalls) EmergencyStop(ctx context.Context) {
	c.report("emergency_stop", "", c.printer.EmergencyStop(ctx))
}

// PausePrint pauses the active print
func (c *PrinterCalls) PausePrint(ctx context.Context) {
	c.report("pause", "", c.printer.PausePrint(ctx))
}

// Restart restarts the Klipper host
func (c *PrinterCalls) Restart(ctx context.Context) {
	c.report("restart", "", c.printer.Restart(ctx))
}

// FirmwareRestart restarts the Klipper firmware
func (c *PrinterCalls) FirmwareRestart(ctx context.Context) {
	c.report("firmware_restart", "", c.printer.FirmwareRestart(ctx))
}
