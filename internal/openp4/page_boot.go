package openp4

import (
	"context"

	"github.com/muurk/klipmi/internal/hmi"
	"github.com/muurk/klipmi/internal/version"
)

// bootPage is the splash screen shown while Klipper is not ready. It
// reports the host's HMI version and only reacts to the sleep trigger.
type bootPage struct {
	id hmi.PageIdentity
}

func (p *bootPage) Identity() hmi.PageIdentity { return p.id }

func (p *bootPage) OnEnter(ctx context.Context, e *hmi.Engine) error {
	return e.Display().Set(ctx, "version.val", version.HMICode())
}

func (p *bootPage) OnEvent(ctx context.Context, e *hmi.Engine, ev hmi.Event) error {
	if ev.Kind != hmi.EventTouch {
		return nil
	}
	_, err := hmi.InterceptSleep(ctx, e, ev.PageID)
	return err
}

func (p *bootPage) OnTelemetry(context.Context, *hmi.Engine, hmi.Snapshot) error { return nil }
