package openp4

import (
	"context"
	"fmt"
	"strconv"

	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/logging"
	"go.uber.org/zap"
)

// Control page components
const (
	controlKbFirst   = 3
	controlKbLast    = 5
	controlDist1     = 6
	controlDist10    = 7
	controlDist50    = 8
	controlDist100   = 9
	controlHome      = 10
	controlMotorsOff = 11
	controlYUp       = 14
	controlYDown     = 15
	controlXDown     = 16
	controlXUp       = 17
	controlZDown     = 18
	controlZUp       = 19
	controlRetract   = 20
	controlExtrude   = 21
	controlFans      = 22
)

// Feed rates in mm/min
const (
	feedXY      = 3000
	feedZ       = 600
	feedExtrude = 300
	feedRetract = 1800
)

var stepDistances = map[int]float64{
	controlDist1:   1,
	controlDist10:  10,
	controlDist50:  50,
	controlDist100: 100,
}

type jog struct {
	axis string
	sign float64
}

var jogs = map[int]jog{
	controlYUp:   {"Y", 1},
	controlYDown: {"Y", -1},
	controlXDown: {"X", -1},
	controlXUp:   {"X", 1},
	controlZDown: {"Z", -1},
	controlZUp:   {"Z", 1},
}

func formatDistance(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}

// jogGcode builds a relative move of dist along axis
func jogGcode(axis string, dist float64) string {
	feed := feedXY
	if axis == "Z" {
		feed = feedZ
	}
	return fmt.Sprintf("G91\nG1 %s%s F%d\nG90", axis, formatDistance(dist), feed)
}

// extrudeGcode builds a relative extruder move; negative dist retracts
func extrudeGcode(dist float64) string {
	feed := feedExtrude
	if dist < 0 {
		feed = feedRetract
	}
	return fmt.Sprintf("M83\nG1 E%s F%d", formatDistance(dist), feed)
}

// showConflict raises the conflict page for a reason the printer state
// alone does not cover.
func showConflict(ctx context.Context, e *hmi.Engine) error {
	cur, _ := e.Current()
	e.State().SetReturnPage(cur)
	return e.ChangePage(ctx, BtnConflict)
}

type controlPage struct {
	id hmi.PageIdentity
}

func (p *controlPage) Identity() hmi.PageIdentity { return p.id }

func (p *controlPage) Targets() []hmi.PageID {
	return []hmi.PageID{ControlKb, ControlSetFan, BtnConflict, Printing}
}

func (p *controlPage) OnEnter(context.Context, *hmi.Engine) error { return nil }

func (p *controlPage) OnEvent(ctx context.Context, e *hmi.Engine, ev hmi.Event) error {
	if ev.Kind != hmi.EventTouch {
		logging.Debug("Numeric input ignored", zap.String("page", p.id.Name), zap.Int("component_id", ev.ComponentID))
		return nil
	}
	if ok, err := hmi.InterceptSleep(ctx, e, ev.PageID); ok || err != nil {
		return err
	}

	c := ev.ComponentID
	state := e.State()
	if d, ok := stepDistances[c]; ok {
		state.MoveDistance = d
		state.ExtrudeDistance = d
		return nil
	}
	if j, ok := jogs[c]; ok {
		return p.guarded(ctx, e, jogGcode(j.axis, j.sign*state.MoveDistance))
	}

	switch {
	case c >= controlKbFirst && c <= controlKbLast:
		return e.ChangePage(ctx, ControlKb)
	case c == controlHome:
		return p.guarded(ctx, e, "G28")
	case c == controlMotorsOff:
		e.Printer().RunGcode(ctx, "M84")
	case c == controlRetract:
		return p.extrude(ctx, e, "gm1", -state.ExtrudeDistance)
	case c == controlExtrude:
		return p.extrude(ctx, e, "gm0", state.ExtrudeDistance)
	case c == controlFans:
		return e.ChangePage(ctx, ControlSetFan)
	case c < controlKbFirst || c == 12 || c == 13:
		logging.Debug("Control page button has no action", zap.Int("component_id", c))
	default:
		_, err := hmi.HandleNavBar(ctx, e, c)
		return err
	}
	return nil
}

// guarded runs script unless the printer is busy
func (p *controlPage) guarded(ctx context.Context, e *hmi.Engine, script string) error {
	if busy, err := hmi.CheckConflict(ctx, e); busy || err != nil {
		return err
	}
	e.Printer().RunGcode(ctx, script)
	return nil
}

// extrude moves filament unless the printer is busy or printing. The
// page's busy animation is shown when the current layout has one.
func (p *controlPage) extrude(ctx context.Context, e *hmi.Engine, animation string, dist float64) error {
	if busy, err := hmi.CheckConflict(ctx, e); busy || err != nil {
		return err
	}
	if e.State().Telemetry().PrintState() == "printing" {
		return showConflict(ctx, e)
	}
	if hmi.ProbeVisible(ctx, e, animation) {
		if err := e.Display().Command(ctx, fmt.Sprintf("vis %s,1", animation)); err != nil {
			return err
		}
	}
	e.Printer().RunGcode(ctx, extrudeGcode(dist))
	return nil
}

func (p *controlPage) OnTelemetry(ctx context.Context, e *hmi.Engine, snap hmi.Snapshot) error {
	if moved, err := followPrint(ctx, e, snap); moved || err != nil {
		return err
	}
	return paintTemperatures(ctx, e, snap)
}

// paintTemperatures writes the three heater readings to n0..n2
func paintTemperatures(ctx context.Context, e *hmi.Engine, snap hmi.Snapshot) error {
	pt := newPainter(ctx, e)
	pt.set("n0.val", int(readHeater(snap, objExtruder).temperature))
	pt.set("n1.val", int(readHeater(snap, objBed).temperature))
	pt.set("n2.val", int(readHeater(snap, objChamber).temperature))
	return pt.err
}

// Control keyboard numeric fields
const (
	kbExtruder = 0
	kbBed      = 1
	kbChamber  = 2
	kbFan1     = 22
	kbFan2     = 23
	kbFan3     = 24
)

var kbHeaters = map[int]string{
	kbExtruder: "extruder",
	kbBed:      "bed",
	kbChamber:  "chamber",
}

var kbFans = map[int]int{
	kbFan1: 1,
	kbFan2: 2,
	kbFan3: 3,
}

// fanPWM converts a percentage to the 0..255 M106 range
func fanPWM(percent int) int {
	return hmi.Clamp(percent*255/100, 255)
}

// controlKbPage is the control page with its on-screen keyboard open.
// Heater targets and fan speeds arrive as numeric input.
type controlKbPage struct {
	id hmi.PageIdentity
}

func (p *controlKbPage) Identity() hmi.PageIdentity { return p.id }

func (p *controlKbPage) Targets() []hmi.PageID { return []hmi.PageID{Printing} }

func (p *controlKbPage) OnEnter(context.Context, *hmi.Engine) error { return nil }

func (p *controlKbPage) OnEvent(ctx context.Context, e *hmi.Engine, ev hmi.Event) error {
	if ev.Kind == hmi.EventNumericInput {
		return p.onNumeric(ctx, e, ev)
	}
	if ok, err := hmi.InterceptSleep(ctx, e, ev.PageID); ok || err != nil {
		return err
	}
	// Field taps only move the keyboard focus.
	if ev.ComponentID < 6 || ev.ComponentID == kbFan1 {
		return nil
	}
	_, err := hmi.HandleNavBar(ctx, e, ev.ComponentID)
	return err
}

func (p *controlKbPage) onNumeric(ctx context.Context, e *hmi.Engine, ev hmi.Event) error {
	if key, ok := kbHeaters[ev.ComponentID]; ok {
		Heaters[key].SetTarget(ctx, e, ev.Value)
		return nil
	}
	if fan, ok := kbFans[ev.ComponentID]; ok {
		e.Printer().RunGcode(ctx, fmt.Sprintf("M106 P%d S%d", fan, fanPWM(ev.Value)))
		return nil
	}
	logging.Debug("Numeric input ignored", zap.String("page", p.id.Name), zap.Int("component_id", ev.ComponentID))
	return nil
}

func (p *controlKbPage) OnTelemetry(ctx context.Context, e *hmi.Engine, snap hmi.Snapshot) error {
	if moved, err := followPrint(ctx, e, snap); moved || err != nil {
		return err
	}
	return paintTemperatures(ctx, e, snap)
}
