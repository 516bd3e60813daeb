package hmi

import "context"

// maxReturnDepth bounds nested interrupts (keypad, then conflict, then
// sleep). Deeper nesting drops the oldest entry.
const maxReturnDepth = 4

// HeaterEdit describes which heater the keypad page is editing.
type HeaterEdit struct {
	HeaterKey string
	Title     string
	MaxDigits int
	// Apply issues the heater target command for the entered value.
	Apply func(ctx context.Context, value int) error
}

// SharedState is the context shared by every page for the lifetime of the
// UI session. It is owned by the Engine and only touched from the engine's
// goroutine.
type SharedState struct {
	current    PageIdentity
	hasCurrent bool

	// returns holds the saved return pages, innermost last. Each interrupt
	// page resumes the entry that was on top when it was entered.
	returns []PageIdentity

	heaterEdit *HeaterEdit
	telemetry  Snapshot

	// MoveDistance and ExtrudeDistance are the last selected jog and
	// extrude step sizes in millimetres.
	MoveDistance    float64
	ExtrudeDistance float64

	printerState        string
	operationInProgress bool
}

// NewSharedState creates the state with default step sizes
func NewSharedState() *SharedState {
	return &SharedState{
		MoveDistance:    10,
		ExtrudeDistance: 10,
		printerState:    "shutdown",
	}
}

// Current returns the current page, if one has been shown
func (s *SharedState) Current() (PageIdentity, bool) {
	return s.current, s.hasCurrent
}

func (s *SharedState) setCurrent(p PageIdentity) {
	s.current = p
	s.hasCurrent = true
}

// ReturnPage returns the page an interrupt should resume
func (s *SharedState) ReturnPage() (PageIdentity, bool) {
	if len(s.returns) == 0 {
		return PageIdentity{}, false
	}
	return s.returns[len(s.returns)-1], true
}

// SetReturnPage records p as the page to resume. Saving the page that is
// already on top is a no-op, so a repeated interrupt from the same page
// does not stack up.
func (s *SharedState) SetReturnPage(p PageIdentity) {
	if top, ok := s.ReturnPage(); ok && top == p {
		return
	}
	if len(s.returns) == maxReturnDepth {
		s.returns = append(s.returns[:0], s.returns[1:]...)
	}
	s.returns = append(s.returns, p)
}

// TakeReturnPage returns the page to resume and clears it
func (s *SharedState) TakeReturnPage() (PageIdentity, bool) {
	p, ok := s.ReturnPage()
	if ok {
		s.returns = s.returns[:len(s.returns)-1]
	}
	return p, ok
}

// ReturnDepth returns how many return pages are saved
func (s *SharedState) ReturnDepth() int {
	return len(s.returns)
}

// ClearReturnPage drops every saved return page
func (s *SharedState) ClearReturnPage() {
	s.returns = s.returns[:0]
}

// HeaterEdit returns the pending heater edit, or nil
func (s *SharedState) HeaterEdit() *HeaterEdit {
	return s.heaterEdit
}

// SetHeaterEdit stores the heater edit for the keypad page
func (s *SharedState) SetHeaterEdit(h *HeaterEdit) {
	s.heaterEdit = h
}

// ClearHeaterEdit drops the pending heater edit
func (s *SharedState) ClearHeaterEdit() {
	s.heaterEdit = nil
}

// Telemetry returns the latest snapshot
func (s *SharedState) Telemetry() Snapshot {
	return s.telemetry
}

// PrinterState returns the Klipper webhooks state ("ready", "startup",
// "shutdown", "error")
func (s *SharedState) PrinterState() string {
	return s.printerState
}

// SetPrinterState records the Klipper webhooks state
func (s *SharedState) SetPrinterState(state string) {
	s.printerState = state
}

// OperationInProgress reports whether a long running local operation
// (calibration, load, unload) is active
func (s *SharedState) OperationInProgress() bool {
	return s.operationInProgress
}

// SetOperationInProgress sets the local operation flag checked by the
// conflict guard
func (s *SharedState) SetOperationInProgress(on bool) {
	s.operationInProgress = on
}
