package openp4

import (
	"context"

	"github.com/muurk/klipmi/internal/hmi"
)

// sleepPage is shown after the display's sleep timer fired. Any touch
// wakes it and resumes the page that was active before.
type sleepPage struct {
	id hmi.PageIdentity
}

func (p *sleepPage) Identity() hmi.PageIdentity { return p.id }
func (p *sleepPage) Interrupt() bool            { return true }

func (p *sleepPage) OnEnter(context.Context, *hmi.Engine) error { return nil }

func (p *sleepPage) OnEvent(ctx context.Context, e *hmi.Engine, ev hmi.Event) error {
	if ev.Kind != hmi.EventTouch {
		return nil
	}
	return hmi.Resume(ctx, e)
}

func (p *sleepPage) OnTelemetry(context.Context, *hmi.Engine, hmi.Snapshot) error { return nil }

// conflictPage tells the user the printer cannot take the requested
// action. Its confirm button resumes the page that raised the conflict.
type conflictPage struct {
	id hmi.PageIdentity
}

const conflictConfirm = 0

func (p *conflictPage) Identity() hmi.PageIdentity { return p.id }
func (p *conflictPage) Interrupt() bool            { return true }

func (p *conflictPage) OnEnter(context.Context, *hmi.Engine) error { return nil }

func (p *conflictPage) OnEvent(ctx context.Context, e *hmi.Engine, ev hmi.Event) error {
	if ev.Kind != hmi.EventTouch {
		return nil
	}
	if ok, err := hmi.InterceptSleep(ctx, e, ev.PageID); ok || err != nil {
		return err
	}
	if ev.ComponentID == conflictConfirm {
		return hmi.Resume(ctx, e)
	}
	return nil
}

func (p *conflictPage) OnTelemetry(context.Context, *hmi.Engine, hmi.Snapshot) error { return nil }
