package openp4

import (
	"context"
	"fmt"

	"github.com/muurk/klipmi/internal/hmi"
)

// Printer object names used by the page renderers
const (
	objExtruder  = "extruder"
	objBed       = "heater_bed"
	objChamber   = "heater_generic chamber"
	objCaselight = "output_pin caselight"
	objDisplay   = "display_status"
	objStats     = "print_stats"

	objCoolingFan   = "fan_generic cooling_fan"
	objAuxFan       = "fan_generic auxiliary_cooling_fan"
	objChamberFan   = "heater_fan chamber_fan"
	objExhaustFan   = "fan_generic exhaust_fan"
	objHotendFan    = "heater_fan hotend_fan"
	objWebhooks     = "webhooks"
	objGcodeMove    = "gcode_move"
	objMotionReport = "motion_report"
	objPartFan      = "fan"
)

// CaselightPin is the output pin toggled by the caselight buttons
const CaselightPin = "caselight"

// Display colours (RGB565)
const (
	colorRegular   = 65535
	colorHighlight = 63488
)

// painter issues a sequence of display writes and keeps the first error.
type painter struct {
	ctx context.Context
	d   hmi.Display
	err error
}

func newPainter(ctx context.Context, e *hmi.Engine) *painter {
	return &painter{ctx: ctx, d: e.Display()}
}

func (p *painter) set(field string, value any) {
	if p.err != nil {
		return
	}
	if err := p.d.Set(p.ctx, field, value); err != nil {
		p.err = fmt.Errorf("set %s: %w", field, err)
	}
}

// pick sets field to on or off depending on cond
func (p *painter) pick(field string, cond bool, on, off int) {
	if cond {
		p.set(field, on)
	} else {
		p.set(field, off)
	}
}

type heaterReading struct {
	temperature float64
	target      float64
}

func readHeater(snap hmi.Snapshot, object string) heaterReading {
	return heaterReading{
		temperature: snap.FloatOr(object, "temperature", 0),
		target:      snap.FloatOr(object, "target", 0),
	}
}

func (h heaterReading) heating() bool { return h.target > h.temperature }
func (h heaterReading) hasTarget() bool { return h.target > 0 }

// fanPercent returns a fan speed in percent; missing fans read as 0
func fanPercent(snap hmi.Snapshot, object string) int {
	return int(snap.FloatOr(object, "speed", 0) * 100)
}

// formatClock formats seconds as HH:MM
func formatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/3600, (total%3600)/60)
}

const noClock = "--:--"
