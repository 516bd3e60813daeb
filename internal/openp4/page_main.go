package openp4

import (
	"context"

	"github.com/muurk/klipmi/internal/hmi"
)

// Main page components
const (
	mainCaselight       = 0
	mainNetwork         = 1
	mainFirmwareRestart = 2
	mainExtruderTarget  = 4
	mainBedTarget       = 5
	mainChamberTarget   = 6
)

type mainPage struct {
	id hmi.PageIdentity
}

func (p *mainPage) Identity() hmi.PageIdentity { return p.id }

func (p *mainPage) Targets() []hmi.PageID {
	return []hmi.PageID{Network, Keypad, Printing}
}

func (p *mainPage) OnEnter(context.Context, *hmi.Engine) error { return nil }

func (p *mainPage) OnEvent(ctx context.Context, e *hmi.Engine, ev hmi.Event) error {
	if ev.Kind != hmi.EventTouch {
		return nil
	}
	if ok, err := hmi.InterceptSleep(ctx, e, ev.PageID); ok || err != nil {
		return err
	}

	switch ev.ComponentID {
	case mainCaselight:
		e.Printer().TogglePin(ctx, CaselightPin)
	case mainNetwork:
		return e.ChangePage(ctx, Network)
	case mainFirmwareRestart:
		e.Printer().FirmwareRestart(ctx)
	case mainExtruderTarget:
		return editHeater(ctx, e, "extruder")
	case mainBedTarget:
		return editHeater(ctx, e, "bed")
	case mainChamberTarget:
		return editHeater(ctx, e, "chamber")
	default:
		_, err := hmi.HandleNavBar(ctx, e, ev.ComponentID)
		return err
	}
	return nil
}

func (p *mainPage) OnTelemetry(ctx context.Context, e *hmi.Engine, snap hmi.Snapshot) error {
	if moved, err := followPrint(ctx, e, snap); moved || err != nil {
		return err
	}

	extruder := readHeater(snap, objExtruder)
	bed := readHeater(snap, objBed)
	chamber := readHeater(snap, objChamber)
	light := snap.FloatOr(objCaselight, "value", 0) > 0

	pt := newPainter(ctx, e)
	pt.set("n0.val", int(extruder.temperature))
	pt.pick("b4.pco", extruder.hasTarget(), colorHighlight, colorRegular)
	pt.set("n1.val", int(bed.temperature))
	pt.pick("b5.pco", bed.hasTarget(), colorHighlight, colorRegular)
	pt.set("n2.val", int(chamber.temperature))
	pt.pick("b6.pco", chamber.hasTarget(), colorHighlight, colorRegular)
	pt.pick("b0.picc", light, 12, 11)
	pt.pick("b0.picc2", light, 10, 9)
	return pt.err
}
