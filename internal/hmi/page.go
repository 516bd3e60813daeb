package hmi

import (
	"context"
	"fmt"
)

// PageID is the numeric page index used by the display firmware.
type PageID int

// PageIdentity names a page. The id must match the screen firmware's page
// table; the name is used for logging and lookups from scripts.
//
// ByName pages are switched to by firmware name instead of by id. Pages the
// firmware reaches only by name carry an id outside its table.
type PageIdentity struct {
	ID     PageID
	Name   string
	ByName bool
}

// Instruction returns the display instruction that shows this page
func (p PageIdentity) Instruction() string {
	if p.ByName {
		return "page " + p.Name
	}
	return fmt.Sprintf("page %d", p.ID)
}

func (p PageIdentity) String() string {
	return fmt.Sprintf("%s(%d)", p.Name, p.ID)
}

// EventKind distinguishes the two kinds of display events.
type EventKind int

const (
	EventTouch EventKind = iota
	EventNumericInput
)

func (k EventKind) String() string {
	switch k {
	case EventTouch:
		return "touch"
	case EventNumericInput:
		return "numeric"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

// Event is a single display occurrence delivered to a page.
type Event struct {
	Kind EventKind
	// PageID is the page the display reported at the moment of the touch.
	// It is only meaningful for touch events.
	PageID      PageID
	ComponentID int
	// Value carries the entered number for numeric input events.
	Value int
}

// Page is one screen of the touch UI.
//
// OnEnter runs after the page becomes current and before it receives any
// event. OnEvent handles touch and numeric input. OnTelemetry renders a
// printer snapshot and may request a page change; the change applies to the
// next dispatch.
type Page interface {
	Identity() PageIdentity
	OnEnter(ctx context.Context, e *Engine) error
	OnEvent(ctx context.Context, e *Engine, ev Event) error
	OnTelemetry(ctx context.Context, e *Engine, snap Snapshot) error
}

// Interrupter is implemented by pages entered transiently from any other
// page (sleep, conflict, keypad). Entering one keeps the saved return page.
type Interrupter interface {
	Interrupt() bool
}

// Linker is implemented by pages that know their navigation targets ahead
// of time. Registry.Validate checks that every target resolves.
type Linker interface {
	Targets() []PageID
}

// Display is the screen collaborator.
type Display interface {
	// Get reads a field. Fields missing on the current page fail with an
	// error for which IsFieldUnavailable reports true.
	Get(ctx context.Context, field string) (string, error)
	Set(ctx context.Context, field string, value any) error
	Command(ctx context.Context, raw string) error
}

// Printer is the printer collaborator.
type Printer interface {
	RunGcode(ctx context.Context, script string) error
	RunMacro(ctx context.Context, name string, params map[string]any) error
	TogglePin(ctx context.Context, pin string) error
	EmergencyStop(ctx context.Context) error
	PausePrint(ctx context.Context) error
	Restart(ctx context.Context) error
	FirmwareRestart(ctx context.Context) error
}

func isInterrupt(p Page) bool {
	i, ok := p.(Interrupter)
	return ok && i.Interrupt()
}
