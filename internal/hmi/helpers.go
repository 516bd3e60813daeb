package hmi

import (
	"context"
	"sort"

	"github.com/muurk/klipmi/internal/logging"
	"go.uber.org/zap"
)

// NavBar maps the bottom navigation bar's component ids to section pages.
type NavBar map[int]PageID

// Resolve returns the section page for a nav-bar component
func (n NavBar) Resolve(componentID int) (PageID, bool) {
	id, ok := n[componentID]
	return id, ok
}

// Targets returns the section pages ordered by component id
func (n NavBar) Targets() []PageID {
	components := make([]int, 0, len(n))
	for c := range n {
		components = append(components, c)
	}
	sort.Ints(components)

	targets := make([]PageID, 0, len(components))
	for _, c := range components {
		targets = append(targets, n[c])
	}
	return targets
}

// ResolveNavBarTarget returns the section page for componentID using the
// engine's nav-bar table.
func ResolveNavBarTarget(e *Engine, componentID int) (PageID, bool) {
	return e.opts.NavBar.Resolve(componentID)
}

// HandleNavBar navigates to the section page for componentID. Components
// that are not on the nav bar are logged and ignored; handled reports
// whether a navigation happened.
func HandleNavBar(ctx context.Context, e *Engine, componentID int) (handled bool, err error) {
	target, ok := ResolveNavBarTarget(e, componentID)
	if !ok {
		cur, _ := e.state.Current()
		logging.Debug("Unrecognized component",
			zap.String("page", cur.Name),
			zap.Int("component_id", componentID),
		)
		return false, nil
	}
	return true, e.ChangePage(ctx, target)
}

// InterceptSleep switches to the sleep page when the display reports the
// sleep trigger page. Pages call it before any other touch handling and
// stop when intercepted is true.
func InterceptSleep(ctx context.Context, e *Engine, pageIDFromEvent PageID) (intercepted bool, err error) {
	if pageIDFromEvent != e.opts.SleepTrigger {
		return false, nil
	}
	cur, ok := e.state.Current()
	if !ok || cur.ID == e.opts.SleepPage {
		return false, nil
	}
	e.state.SetReturnPage(cur)
	return true, e.ChangePage(ctx, e.opts.SleepPage)
}

// Resume navigates to the saved return page and clears it. With nothing
// saved it falls back to the main page.
func Resume(ctx context.Context, e *Engine) error {
	target, ok := e.state.TakeReturnPage()
	if !ok {
		cur, _ := e.state.Current()
		logging.Warn("No return page to resume, falling back to main page",
			zap.String("page", cur.Name),
			zap.String("error_type", ErrTypeStaleReturnPage.String()),
		)
		return e.ChangePage(ctx, e.opts.MainPage)
	}
	return e.ChangePage(ctx, target.ID)
}

// PrinterBusy reports whether printer actions must be refused: Klipper is
// shut down or in error, or a local operation is still running.
func PrinterBusy(s *SharedState) bool {
	switch s.PrinterState() {
	case "shutdown", "error":
		return true
	}
	return s.OperationInProgress()
}

// CheckConflict shows the conflict page when the printer is busy. Callers
// must abort their action when busy is true.
func CheckConflict(ctx context.Context, e *Engine) (busy bool, err error) {
	if !PrinterBusy(e.state) {
		return false, nil
	}
	cur, _ := e.state.Current()
	if cur.ID == e.opts.ConflictPage {
		return true, nil
	}
	logging.Info("Printer busy, action refused",
		zap.String("page", cur.Name),
		zap.String("printer_state", e.state.PrinterState()),
		zap.Bool("operation_in_progress", e.state.OperationInProgress()),
	)
	e.state.SetReturnPage(cur)
	return true, e.ChangePage(ctx, e.opts.ConflictPage)
}

// ProbeVisible reports whether a component exists and is readable on the
// current display page. Any read failure means "not visible".
func ProbeVisible(ctx context.Context, e *Engine, component string) bool {
	if _, err := e.display.Get(ctx, component+".vis"); err != nil {
		logging.Debug("Visibility probe failed",
			zap.String("component", component),
			zap.Bool("field_unavailable", IsFieldUnavailable(err)),
		)
		return false
	}
	return true
}

// Clamp limits a numeric entry to [0, limit]
func Clamp(value, limit int) int {
	return min(max(value, 0), limit)
}
