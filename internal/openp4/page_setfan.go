package openp4

import (
	"context"
	"fmt"

	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/logging"
	"go.uber.org/zap"
)

// Fan page components
const (
	setFanCooling   = 6
	setFanAuxiliary = 7
	setFanChamber   = 8
	setFanNavIgnore = 34
)

// fanToggle binds a fan button to its M106 index and telemetry object
type fanToggle struct {
	index  int
	object string
}

var fanToggles = map[int]fanToggle{
	setFanCooling:   {0, objCoolingFan},
	setFanAuxiliary: {2, objAuxFan},
	setFanChamber:   {3, objChamberFan},
}

type setFanPage struct {
	id hmi.PageIdentity
	// speeds holds the last reported percentage per fan button
	speeds map[int]int
}

func (p *setFanPage) Identity() hmi.PageIdentity { return p.id }

func (p *setFanPage) Targets() []hmi.PageID { return []hmi.PageID{ControlKb, Printing} }

func (p *setFanPage) OnEnter(_ context.Context, e *hmi.Engine) error {
	p.speeds = make(map[int]int, len(fanToggles))
	p.remember(e.State().Telemetry())
	return nil
}

func (p *setFanPage) remember(snap hmi.Snapshot) {
	for component, fan := range fanToggles {
		p.speeds[component] = fanPercent(snap, fan.object)
	}
}

func (p *setFanPage) OnEvent(ctx context.Context, e *hmi.Engine, ev hmi.Event) error {
	if ev.Kind != hmi.EventTouch {
		return nil
	}
	if ok, err := hmi.InterceptSleep(ctx, e, ev.PageID); ok || err != nil {
		return err
	}

	c := ev.ComponentID
	if fan, ok := fanToggles[c]; ok {
		speed := 255
		if p.speeds[c] > 0 {
			speed = 0
		}
		e.Printer().RunGcode(ctx, fmt.Sprintf("M106 P%d S%d", fan.index, speed))
		return nil
	}

	switch {
	case c >= controlKbFirst && c <= controlKbLast:
		return e.ChangePage(ctx, ControlKb)
	case c <= 30 || c == setFanNavIgnore:
		// Speed steppers are drawn by the firmware; the control tab is
		// the page we are already on.
		logging.Debug("Fan page button has no action", zap.Int("component_id", c))
		return nil
	}
	_, err := hmi.HandleNavBar(ctx, e, c)
	return err
}

func (p *setFanPage) OnTelemetry(ctx context.Context, e *hmi.Engine, snap hmi.Snapshot) error {
	if moved, err := followPrint(ctx, e, snap); moved || err != nil {
		return err
	}
	if p.speeds == nil {
		p.speeds = make(map[int]int, len(fanToggles))
	}
	p.remember(snap)

	pt := newPainter(ctx, e)
	heaters := []struct {
		button, current, target string
		object                  string
	}{
		{"b0", "n0", "n3", objExtruder},
		{"b1", "n1", "n4", objBed},
		{"b7", "n2", "n5", objChamber},
	}
	for _, h := range heaters {
		r := readHeater(snap, h.object)
		pt.set(h.current+".val", int(r.temperature))
		pt.pick(h.button+".picc", r.heating(), 115, 114)
		pt.pick(h.button+".picc2", r.heating(), 118, 116)
		pt.pick(h.button+".pco", r.heating(), colorHighlight, colorRegular)
		pt.set(h.target+".val", int(r.target))
	}

	for _, c := range []int{setFanCooling, setFanAuxiliary, setFanChamber} {
		speed := p.speeds[c]
		pt.set(fmt.Sprintf("n%d.val", c), speed)
		pt.pick(fmt.Sprintf("b%d.picc", c), speed > 0, 134, 131)
		pt.pick(fmt.Sprintf("b%d.picc2", c), speed > 0, 136, 135)
	}
	return pt.err
}
