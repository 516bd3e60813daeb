package openp4

import (
	"context"
	"strconv"
	"strings"

	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/logging"
	"go.uber.org/zap"
)

// Keypad components
const (
	keypadConfirm = 31
	keypadBack    = 32
)

const keypadDefaultDigits = 3

// keypadPage is the numeric entry page used to edit heater targets. It
// is entered on top of another page and returns there when done.
type keypadPage struct {
	id hmi.PageIdentity
	// pending is the last value the firmware pushed as numeric input
	pending    int
	hasPending bool
}

func (p *keypadPage) Identity() hmi.PageIdentity { return p.id }
func (p *keypadPage) Interrupt() bool            { return true }

func (p *keypadPage) OnEnter(ctx context.Context, e *hmi.Engine) error {
	p.pending, p.hasPending = 0, false

	title := ""
	digits := keypadDefaultDigits
	if edit := e.State().HeaterEdit(); edit != nil {
		title = edit.Title
		digits = edit.MaxDigits
	}

	pt := newPainter(ctx, e)
	pt.set("t2.txt", "")
	pt.set("t3.txt", "")
	pt.set("j0.val", 0)
	pt.set("t4.txt", "")
	pt.set("n7.val", 0)
	pt.set("t100.txt", title)
	pt.set("inputlenth.val", digits)
	pt.set("show.txt", "")
	return pt.err
}

func (p *keypadPage) OnEvent(ctx context.Context, e *hmi.Engine, ev hmi.Event) error {
	if ev.Kind == hmi.EventNumericInput {
		p.pending, p.hasPending = ev.Value, true
		return nil
	}
	if ok, err := hmi.InterceptSleep(ctx, e, ev.PageID); ok || err != nil {
		return err
	}

	switch ev.ComponentID {
	case keypadBack:
		return hmi.CancelHeaterEdit(ctx, e)
	case keypadConfirm:
		value, ok := p.entered(ctx, e)
		if !ok {
			return hmi.CancelHeaterEdit(ctx, e)
		}
		return hmi.ConfirmHeaterEdit(ctx, e, value)
	}
	_, err := hmi.HandleNavBar(ctx, e, ev.ComponentID)
	return err
}

// entered reads the typed value from the input field. Text that is not a
// number rejects the edit; the last numeric input event stands in only
// when the field cannot be read at all.
func (p *keypadPage) entered(ctx context.Context, e *hmi.Engine) (int, bool) {
	raw, err := e.Display().Get(ctx, "input.txt")
	if err != nil {
		logging.Debug("Keypad input unreadable", zap.Error(err))
		return p.pending, p.hasPending
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		logging.Warn("Keypad input is not a number", zap.String("input", raw))
		return 0, false
	}
	return value, true
}

func (p *keypadPage) OnTelemetry(context.Context, *hmi.Engine, hmi.Snapshot) error { return nil }
