package openp4

import (
	"context"
	"strconv"

	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/logging"
	"go.uber.org/zap"
)

// Printing page components
const (
	printingEmergencyStop = 0
	printingPause         = 1
	printingCaselight     = 5
	printingControl       = 6
)

// Printing page heater highlight images
const (
	printingRegular   = 51
	printingHighlight = 52
)

type printingPage struct {
	id hmi.PageIdentity
	// onComplete is where to go when the print finishes. Nil keeps the
	// page up so the user sees the final progress.
	onComplete *hmi.PageID
}

func (p *printingPage) Identity() hmi.PageIdentity { return p.id }

func (p *printingPage) Targets() []hmi.PageID {
	targets := []hmi.PageID{Control}
	if p.onComplete != nil {
		targets = append(targets, *p.onComplete)
	}
	return targets
}

func (p *printingPage) OnEnter(context.Context, *hmi.Engine) error { return nil }

func (p *printingPage) OnEvent(ctx context.Context, e *hmi.Engine, ev hmi.Event) error {
	if ev.Kind != hmi.EventTouch {
		return nil
	}
	if ok, err := hmi.InterceptSleep(ctx, e, ev.PageID); ok || err != nil {
		return err
	}

	switch ev.ComponentID {
	case printingEmergencyStop:
		e.Printer().EmergencyStop(ctx)
	case printingPause:
		e.Printer().PausePrint(ctx)
	case printingCaselight:
		e.Printer().TogglePin(ctx, CaselightPin)
	case printingControl:
		return e.ChangePage(ctx, Control)
	case 2, 3, 4:
		logging.Debug("Printing page button has no action", zap.Int("component_id", ev.ComponentID))
	default:
		_, err := hmi.HandleNavBar(ctx, e, ev.ComponentID)
		return err
	}
	return nil
}

func (p *printingPage) OnTelemetry(ctx context.Context, e *hmi.Engine, snap hmi.Snapshot) error {
	if p.onComplete != nil && snap.PrintState() == "complete" {
		return e.ChangePage(ctx, *p.onComplete)
	}

	extruder := readHeater(snap, objExtruder)
	bed := readHeater(snap, objBed)
	chamber := readHeater(snap, objChamber)

	pt := newPainter(ctx, e)
	pt.set("n0.val", int(extruder.temperature))
	pt.pick("b0.picc", extruder.heating(), printingHighlight, printingRegular)
	pt.set("t0.txt", strconv.Itoa(int(extruder.target)))
	pt.set("n1.val", int(bed.temperature))
	pt.pick("b1.picc", bed.heating(), printingHighlight, printingRegular)
	pt.set("t1.txt", strconv.Itoa(int(bed.target)))
	pt.set("n2.val", int(chamber.temperature))
	pt.pick("b7.picc", chamber.heating(), printingHighlight, printingRegular)
	pt.set("t5.txt", strconv.Itoa(int(chamber.target)))

	// The firmware uses the highlight image for the "light off" state.
	pt.pick("b3.picc", snap.FloatOr(objCaselight, "value", 0) < 1, printingHighlight, printingRegular)

	progress := snap.FloatOr(objDisplay, "progress", 0) * 100
	elapsed := snap.FloatOr(objStats, "print_duration", 0)
	pt.set("p0.val", int(progress))
	pt.set("t7.txt", strconv.Itoa(int(progress)))

	switch {
	case elapsed <= 0:
		pt.set("t2.txt", noClock)
		pt.set("t3.txt", noClock)
	case progress <= 0:
		pt.set("t2.txt", formatClock(elapsed))
		pt.set("t3.txt", noClock)
	default:
		pt.set("t2.txt", formatClock(elapsed))
		pt.set("t3.txt", formatClock(elapsed/(progress/100)))
	}
	return pt.err
}
